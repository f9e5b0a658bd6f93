package transport

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
)

// misconfigured reports a request the adapter refuses to send because the
// client was set up wrong. A cause, when present, is kept as the source.
func misconfigured(cause error, message string, metadata map[string]any) error {
	if cause == nil {
		return core.NewConfigurationError(core.TextCodeConfigurationInvalid, message, metadata)
	}
	err := goerrors.Wrap(cause, goerrors.CategoryBadInput, message).
		WithTextCode(core.TextCodeConfigurationInvalid)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
