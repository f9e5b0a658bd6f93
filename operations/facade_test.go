package operations

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/schema"
)

type stubSender struct {
	calls    []core.Operation
	payloads []core.Payload
	result   core.Result
	err      error
}

func (s *stubSender) Send(_ context.Context, op core.Operation, payload core.Payload) (core.Result, error) {
	s.calls = append(s.calls, op)
	s.payloads = append(s.payloads, payload)
	return s.result, s.err
}

func newFacade(sender *stubSender) *Facade {
	return NewFacade(schema.DefaultRegistry(), sender)
}

func strPtr(value string) *string {
	return &value
}

func sampleSale() SalesTransaction {
	return SalesTransaction{
		InvoiceNo:          1,
		CustomerTIN:        strPtr("A123456789Z"),
		CustomerName:       strPtr("Test Customer"),
		SalesTypeCode:      "N",
		ReceiptTypeCode:    "R",
		PaymentTypeCode:    "01",
		SalesStatusCode:    "02",
		ConfirmedAt:        "20260301100000",
		SalesDate:          "20260301",
		TotalItemCount:     1,
		TaxableAmountC:     81000,
		TotalTaxableAmount: 81000,
		TotalAmount:        81000,
		PurchaserAccepted:  "N",
		RegistrantID:       "Admin",
		RegistrantName:     "Admin",
		ModifierID:         "Admin",
		ModifierName:       "Admin",
		Receipt: Receipt{
			CustomerTIN:       strPtr("A123456789Z"),
			ReportNo:          1,
			PublishedAt:       "20260301100000",
			TopMessage:        "Shop",
			BottomMessage:     "Welcome",
			PurchaserAccepted: "N",
		},
		Items: []SalesItem{{
			Sequence:         1,
			ItemCode:         "KE2NTBA00000001",
			ItemClassCode:    "1000000000",
			ItemName:         "Brand A",
			PackageUnitCode:  "NT",
			Package:          1,
			QuantityUnitCode: "BA",
			Quantity:         90,
			Price:            1000,
			SupplyAmount:     81000,
			DiscountRate:     10,
			DiscountAmount:   9000,
			TaxTypeCode:      "C",
			TaxableAmount:    81000,
			TotalAmount:      81000,
		}},
	}
}

func TestFacadeInvoke_ValidationFailureSkipsSend(t *testing.T) {
	sender := &stubSender{}
	_, err := newFacade(sender).Invoke(context.Background(), Initialize, core.Payload{"tin": "P000000002"})
	if !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := core.ValidationFields(err)
	if len(fields) != 2 || fields[0].Field != "bhfId" || fields[1].Field != "dvcSrlNo" {
		t.Fatalf("unexpected field errors %v", fields)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("expected no send after validation failure")
	}
}

func TestFacadeInvoke_UnknownOperation(t *testing.T) {
	_, err := newFacade(&stubSender{}).Invoke(context.Background(), "deleteEverything", core.Payload{})
	if !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFacadeSendSalesTransaction_FlattensRecord(t *testing.T) {
	sender := &stubSender{result: core.Result{StatusCode: http.StatusOK, Body: map[string]any{"resultCd": "0000"}}}

	if _, err := newFacade(sender).SendSalesTransaction(context.Background(), sampleSale()); err != nil {
		t.Fatalf("send sales transaction: %v (fields %v)", err, core.ValidationFields(err))
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.calls))
	}
	if sender.calls[0] != (core.Operation{EndpointKey: SendSalesTransaction, Method: http.MethodPost}) {
		t.Fatalf("unexpected operation %+v", sender.calls[0])
	}
	payload := sender.payloads[0]
	if payload["invcNo"] != json.Number("1") {
		t.Fatalf("expected integral invoice number, got %#v", payload["invcNo"])
	}
	if value, ok := payload["cnclDt"]; !ok || value != nil {
		t.Fatalf("expected cnclDt to be sent as null, got %#v", value)
	}
	items := payload["itemList"].([]any)
	item := items[0].(map[string]any)
	if value, ok := item["barCd"]; !ok || value != nil {
		t.Fatalf("expected barCd to be present and null, got %#v", value)
	}
}

func TestFacadeInitialize_ExtractsDeviceKey(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
	}{
		{"root", map[string]any{"resultCd": "0000", "cmcKey": "key-1"}},
		{"data", map[string]any{"data": map[string]any{"cmcKey": "key-1"}}},
		{"data info", map[string]any{"data": map[string]any{"info": map[string]any{"cmcKey": "key-1"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &stubSender{result: core.Result{StatusCode: http.StatusOK, Body: tc.body}}
			out, err := newFacade(sender).Initialize(context.Background(), InitializeRequest{
				TIN:          "P000000002",
				BranchID:     "00",
				DeviceSerial: "dvcv1130",
			})
			if err != nil {
				t.Fatalf("initialize: %v", err)
			}
			if out.DeviceKey != "key-1" {
				t.Fatalf("expected key-1, got %q", out.DeviceKey)
			}
		})
	}
}

func TestFacadeInitialize_MissingDeviceKeyIsAPIError(t *testing.T) {
	sender := &stubSender{result: core.Result{StatusCode: http.StatusOK, Body: map[string]any{"resultCd": "0000"}}}
	_, err := newFacade(sender).Initialize(context.Background(), InitializeRequest{TIN: "P1", BranchID: "00", DeviceSerial: "d"})
	apiErr, ok := core.AsAPIError(err)
	if !ok || apiErr.IsBusiness() {
		t.Fatalf("expected non-business api error, got %v", err)
	}
}

func TestLastRequestQuery_FormatsTimestamp(t *testing.T) {
	sender := &stubSender{}
	since := time.Date(2026, 2, 22, 8, 5, 9, 0, time.UTC)
	if _, err := newFacade(sender).SelectCodeList(context.Background(), LastRequestQuery{TIN: "P1", Since: since}); err != nil {
		t.Fatalf("select code list: %v", err)
	}
	payload := sender.payloads[0]
	if payload["lastReqDt"] != "20260222080509" {
		t.Fatalf("unexpected lastReqDt %v", payload["lastReqDt"])
	}
	if _, ok := payload["bhfId"]; ok {
		t.Fatalf("expected empty branch id to be omitted")
	}
}

func TestDefinitions_AreConsistentWithSchemasAndEndpoints(t *testing.T) {
	registry := schema.DefaultRegistry()
	endpoints := core.NewEndpointTable(core.DefaultEndpointPaths())
	table := DefaultTable()

	if got := len(table.Names("")); got != 24 {
		t.Fatalf("expected 24 operations, got %d", got)
	}
	if got := len(table.Names(KindCommand)) + len(table.Names(KindQuery)); got != 24 {
		t.Fatalf("every operation must be a command or a query, got %d", got)
	}
	for _, def := range Definitions() {
		if _, ok := registry.Lookup(def.Schema); !ok {
			t.Fatalf("operation %s references unknown schema %s", def.Name, def.Schema)
		}
		if _, err := endpoints.Resolve(def.EndpointKey, def.Method); err != nil {
			t.Fatalf("operation %s references unknown endpoint: %v", def.Name, err)
		}
	}
}

func TestEnvelope_DecodesStringAndNumericCodes(t *testing.T) {
	for _, raw := range []string{`{"resultCd":"0000","resultMsg":"ok"}`, `{"resultCd":0,"resultMsg":"ok"}`} {
		var envelope Envelope
		if err := (core.Result{Raw: []byte(raw)}).Decode(&envelope); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if envelope.ResultMessage != "ok" {
			t.Fatalf("unexpected message %q", envelope.ResultMessage)
		}
	}

	var envelope Envelope
	_ = (core.Result{Raw: []byte(`{"resultCd":"0000","data":{"itemList":[]}}`)}).Decode(&envelope)
	if !envelope.ResultCode.Success() || string(envelope.Data) != `{"itemList":[]}` {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}
