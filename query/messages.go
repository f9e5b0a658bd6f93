package query

import (
	"strings"
	"time"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
)

const (
	TypeSelect      = "etims.query.select"
	TypeSelectSince = "etims.query.select_since"
)

type SelectMessage struct {
	Operation string
	Payload   core.Payload
}

func (SelectMessage) Type() string { return TypeSelect }

func (m SelectMessage) Validate() error {
	return validateOperation(m.Operation)
}

// SelectSinceMessage drives the lastReqDt lookups. The remote side rejects
// timestamps in the future so they are refused here.
type SelectSinceMessage struct {
	Operation string
	Query     operations.LastRequestQuery
}

func (SelectSinceMessage) Type() string { return TypeSelectSince }

func (m SelectSinceMessage) Validate() error {
	if err := validateOperation(m.Operation); err != nil {
		return err
	}
	if m.Query.Since.IsZero() {
		return invalidField("lastReqDt", "is required")
	}
	if m.Query.Since.After(time.Now()) {
		return invalidField("lastReqDt", "must not be in the future")
	}
	return nil
}

func validateOperation(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidField("operation", "is required")
	}
	def, ok := operations.DefaultTable().Lookup(name)
	if !ok {
		return invalidField("operation", "unknown operation "+name)
	}
	if def.Kind != operations.KindQuery {
		return invalidField("operation", name+" is not a query")
	}
	return nil
}
