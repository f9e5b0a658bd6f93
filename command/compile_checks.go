package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-etims/operations"
)

var (
	_ gocmd.Commander[InitializeMessage]           = (*InitializeCommand)(nil)
	_ gocmd.Commander[SubmitMessage]               = (*SubmitCommand)(nil)
	_ gocmd.Commander[SendSalesTransactionMessage] = (*SendSalesTransactionCommand)(nil)

	_ Submitter = (*operations.Facade)(nil)
)
