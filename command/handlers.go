package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
)

type Submitter interface {
	Initialize(ctx context.Context, req operations.InitializeRequest) (operations.InitializeResult, error)
	Invoke(ctx context.Context, name string, payload core.Payload) (core.Result, error)
	SendSalesTransaction(ctx context.Context, tx operations.SalesTransaction) (core.Result, error)
}

type InitializeCommand struct {
	service Submitter
}

func NewInitializeCommand(service Submitter) *InitializeCommand {
	return &InitializeCommand{service: service}
}

func (c *InitializeCommand) Execute(ctx context.Context, msg InitializeMessage) error {
	if c == nil || c.service == nil {
		return missingService("command.initialize")
	}
	out, err := c.service.Initialize(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SubmitCommand struct {
	service Submitter
}

func NewSubmitCommand(service Submitter) *SubmitCommand {
	return &SubmitCommand{service: service}
}

func (c *SubmitCommand) Execute(ctx context.Context, msg SubmitMessage) error {
	if c == nil || c.service == nil {
		return missingService("command.submit")
	}
	out, err := c.service.Invoke(ctx, msg.Operation, msg.Payload)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SendSalesTransactionCommand struct {
	service Submitter
}

func NewSendSalesTransactionCommand(service Submitter) *SendSalesTransactionCommand {
	return &SendSalesTransactionCommand{service: service}
}

func (c *SendSalesTransactionCommand) Execute(ctx context.Context, msg SendSalesTransactionMessage) error {
	if c == nil || c.service == nil {
		return missingService("command.send_sales_transaction")
	}
	out, err := c.service.SendSalesTransaction(ctx, msg.Transaction)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
