package command

import (
	"strings"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/operations"
)

const (
	TypeInitialize           = "etims.command.initialize"
	TypeSubmit               = "etims.command.submit"
	TypeSendSalesTransaction = "etims.command.sales.send"
)

type InitializeMessage struct {
	Request operations.InitializeRequest
}

func (InitializeMessage) Type() string { return TypeInitialize }

func (m InitializeMessage) Validate() error {
	if strings.TrimSpace(m.Request.TIN) == "" {
		return invalidField("tin", "is required")
	}
	if strings.TrimSpace(m.Request.BranchID) == "" {
		return invalidField("bhfId", "is required")
	}
	if strings.TrimSpace(m.Request.DeviceSerial) == "" {
		return invalidField("dvcSrlNo", "is required")
	}
	return nil
}

// SubmitMessage runs any state changing operation by name. Payload checks are
// left to the schema validator behind the facade.
type SubmitMessage struct {
	Operation string
	Payload   core.Payload
}

func (SubmitMessage) Type() string { return TypeSubmit }

func (m SubmitMessage) Validate() error {
	return validateOperation(m.Operation, operations.KindCommand)
}

type SendSalesTransactionMessage struct {
	Transaction operations.SalesTransaction
}

func (SendSalesTransactionMessage) Type() string { return TypeSendSalesTransaction }

func (m SendSalesTransactionMessage) Validate() error {
	if m.Transaction.InvoiceNo <= 0 {
		return invalidField("invcNo", "must be positive")
	}
	if len(m.Transaction.Items) == 0 {
		return invalidField("itemList", "must contain at least one item")
	}
	return nil
}

func validateOperation(name string, kind operations.Kind) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidField("operation", "is required")
	}
	def, ok := operations.DefaultTable().Lookup(name)
	if !ok {
		return invalidField("operation", "unknown operation "+name)
	}
	if def.Kind != kind {
		return invalidField("operation", name+" is not a "+string(kind))
	}
	return nil
}
