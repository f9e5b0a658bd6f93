package query

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
)

func TestSelectMessage_ValidateReturnsRichError(t *testing.T) {
	err := (SelectMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.TextCodeValidationFailed {
		t.Fatalf("expected %q text code, got %q", core.TextCodeValidationFailed, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 || validation[0].Field != "operation" {
		t.Fatalf("expected operation validation field, got %v", validation)
	}
}

func TestSelectQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *SelectQuery
	_, err := q.Query(context.Background(), SelectMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.TextCodeInternal {
		t.Fatalf("expected %q text code, got %q", core.TextCodeInternal, rich.TextCode)
	}
}
