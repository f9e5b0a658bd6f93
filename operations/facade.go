package operations

import (
	"context"
	"strings"

	"github.com/goliatone/go-etims/core"
)

// Facade validates a payload against the operation's schema and hands it to
// the sender. It holds no state beyond its collaborators.
type Facade struct {
	validator core.SchemaValidator
	sender    core.Sender
	table     Table
}

type FacadeOption func(*Facade)

func WithTable(table Table) FacadeOption {
	return func(f *Facade) {
		f.table = table
	}
}

func NewFacade(validator core.SchemaValidator, sender core.Sender, opts ...FacadeOption) *Facade {
	f := &Facade{
		validator: validator,
		sender:    sender,
		table:     DefaultTable(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Facade) Table() Table {
	return f.table
}

// Invoke runs a named operation with a map payload. Validation happens before
// any token or network activity.
func (f *Facade) Invoke(ctx context.Context, name string, payload core.Payload) (core.Result, error) {
	if f == nil || f.validator == nil || f.sender == nil {
		return core.Result{}, core.NewConfigurationError(core.TextCodeConfigurationInvalid, "operations: facade requires a validator and a sender", nil)
	}
	def, ok := f.table.Lookup(name)
	if !ok {
		return core.Result{}, core.NewConfigurationError(
			core.TextCodeEndpointNotConfigured,
			"operation ["+strings.TrimSpace(name)+"] not registered",
			map[string]any{"operation": strings.TrimSpace(name)},
		)
	}
	validated, err := f.validator.Validate(payload, def.Schema)
	if err != nil {
		return core.Result{}, err
	}
	return f.sender.Send(ctx, def.Operation(), validated)
}

// InvokeRecord flattens a typed record with ToPayload and runs Invoke.
func (f *Facade) InvokeRecord(ctx context.Context, name string, record any) (core.Result, error) {
	payload, err := ToPayload(record)
	if err != nil {
		return core.Result{}, core.NewValidationError(err.Error(), nil)
	}
	return f.Invoke(ctx, name, payload)
}

// Initialize registers the device and extracts the device context key. The
// facade is not changed; apply the key with WithBusinessIdentifiers.
func (f *Facade) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	result, err := f.InvokeRecord(ctx, Initialize, req)
	if err != nil {
		return InitializeResult{}, err
	}
	key := DeviceKey(result.Body)
	if key == "" {
		return InitializeResult{}, core.NewAPIError(core.APIError{
			HTTPStatus:      result.StatusCode,
			BusinessMessage: "initialization response carries no cmcKey",
			RawBody:         result.Raw,
			EndpointKey:     Initialize,
		})
	}
	return InitializeResult{DeviceKey: key, Result: result}, nil
}

// DeviceKey finds cmcKey at the root of an initialization response, under
// data, or under data.info.
func DeviceKey(body map[string]any) string {
	if key := core.StringValue(body["cmcKey"]); key != "" {
		return key
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		return ""
	}
	if key := core.StringValue(data["cmcKey"]); key != "" {
		return key
	}
	if info, ok := data["info"].(map[string]any); ok {
		return core.StringValue(info["cmcKey"])
	}
	return ""
}

func (f *Facade) SendSalesTransaction(ctx context.Context, tx SalesTransaction) (core.Result, error) {
	return f.InvokeRecord(ctx, SendSalesTransaction, tx)
}

func (f *Facade) SaveStockMaster(ctx context.Context, req StockMasterRequest) (core.Result, error) {
	return f.InvokeRecord(ctx, SaveStockMaster, req)
}

func (f *Facade) SaveItemComposition(ctx context.Context, req ItemCompositionRequest) (core.Result, error) {
	return f.InvokeRecord(ctx, SaveItemComposition, req)
}

func (f *Facade) CustomerPinInfo(ctx context.Context, q CustomerPinQuery) (core.Result, error) {
	return f.InvokeRecord(ctx, CustomerPinInfo, q)
}

func (f *Facade) SelectCustomerList(ctx context.Context, q CustomerPinQuery) (core.Result, error) {
	return f.InvokeRecord(ctx, SelectCustomerList, q)
}

func (f *Facade) SelectInvoiceDetail(ctx context.Context, q InvoiceDetailQuery) (core.Result, error) {
	return f.InvokeRecord(ctx, SelectInvoiceDetail, q)
}

// SelectSince runs one of the lastReqDt driven lookups such as SelectCodeList
// or SelectStockMoveLists.
func (f *Facade) SelectSince(ctx context.Context, name string, q LastRequestQuery) (core.Result, error) {
	return f.InvokeRecord(ctx, name, q)
}

func (f *Facade) SelectCodeList(ctx context.Context, q LastRequestQuery) (core.Result, error) {
	return f.SelectSince(ctx, SelectCodeList, q)
}

func (f *Facade) BranchList(ctx context.Context, q LastRequestQuery) (core.Result, error) {
	return f.SelectSince(ctx, BranchList, q)
}
