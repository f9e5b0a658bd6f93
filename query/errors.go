package query

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
)

func missingReader(handler string) error {
	return core.NewInternalError(handler+": reader is required", map[string]any{"handler": handler})
}

func invalidField(field string, message string) error {
	return core.NewValidationError("query: validation failed", goerrors.ValidationErrors{
		{Field: field, Message: message},
	})
}
