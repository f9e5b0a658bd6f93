package query

import (
	"context"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
)

type Reader interface {
	Invoke(ctx context.Context, name string, payload core.Payload) (core.Result, error)
	SelectSince(ctx context.Context, name string, q operations.LastRequestQuery) (core.Result, error)
}

type SelectQuery struct {
	reader Reader
}

func NewSelectQuery(reader Reader) *SelectQuery {
	return &SelectQuery{reader: reader}
}

func (q *SelectQuery) Query(ctx context.Context, msg SelectMessage) (core.Result, error) {
	if q == nil || q.reader == nil {
		return core.Result{}, missingReader("query.select")
	}
	return q.reader.Invoke(ctx, msg.Operation, msg.Payload)
}

type SelectSinceQuery struct {
	reader Reader
}

func NewSelectSinceQuery(reader Reader) *SelectSinceQuery {
	return &SelectSinceQuery{reader: reader}
}

func (q *SelectSinceQuery) Query(ctx context.Context, msg SelectSinceMessage) (core.Result, error) {
	if q == nil || q.reader == nil {
		return core.Result{}, missingReader("query.select_since")
	}
	return q.reader.SelectSince(ctx, msg.Operation, msg.Query)
}
