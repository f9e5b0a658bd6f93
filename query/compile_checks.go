package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
)

var (
	_ gocmd.Querier[SelectMessage, core.Result]      = (*SelectQuery)(nil)
	_ gocmd.Querier[SelectSinceMessage, core.Result] = (*SelectSinceQuery)(nil)

	_ Reader = (*operations.Facade)(nil)
)
