package command

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
)

// missingService reports a handler built without its facade dependency.
func missingService(handler string) error {
	return core.NewInternalError(handler+": service is required", map[string]any{"handler": handler})
}

// invalidField rejects a command message before it reaches the facade.
func invalidField(field string, message string) error {
	return core.NewValidationError("command: validation failed", goerrors.ValidationErrors{
		{Field: field, Message: message},
	})
}
