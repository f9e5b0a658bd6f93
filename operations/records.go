package operations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-etims/core"
)

const (
	DateTimeLayout = "20060102150405"
	DateLayout     = "20060102"
)

// Payloader is implemented by records that build their own payload map.
type Payloader interface {
	Payload() (core.Payload, error)
}

// ToPayload flattens a record into the map the schema validator and the
// pipeline consume. Numbers decode as json.Number so integers stay integral.
func ToPayload(record any) (core.Payload, error) {
	switch typed := record.(type) {
	case nil:
		return core.Payload{}, nil
	case core.Payload:
		return typed, nil
	case Payloader:
		return typed.Payload()
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("operations: encode record: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	out := core.Payload{}
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("operations: record must encode to a json object: %w", err)
	}
	return out, nil
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

type InitializeRequest struct {
	TIN          string `json:"tin"`
	BranchID     string `json:"bhfId"`
	DeviceSerial string `json:"dvcSrlNo"`
}

// InitializeResult carries the device context key issued by the remote side.
// Callers apply it with WithBusinessIdentifiers.
type InitializeResult struct {
	DeviceKey string
	Result    core.Result
}

// LastRequestQuery selects records changed since a point in time. The remote
// side rejects future timestamps.
type LastRequestQuery struct {
	TIN      string
	BranchID string
	Since    time.Time
}

func (q LastRequestQuery) Payload() (core.Payload, error) {
	payload := core.Payload{"lastReqDt": FormatDateTime(q.Since)}
	if q.TIN != "" {
		payload["tin"] = q.TIN
	}
	if q.BranchID != "" {
		payload["bhfId"] = q.BranchID
	}
	return payload, nil
}

type CustomerPinQuery struct {
	CustomerTIN string `json:"custmTin"`
}

type InvoiceDetailQuery struct {
	InvoiceNo int64 `json:"invcNo"`
}

type StockMasterRequest struct {
	ItemCode          string  `json:"itemCd"`
	RemainingQuantity float64 `json:"rsdQty"`
	RegistrantID      string  `json:"regrId"`
	RegistrantName    string  `json:"regrNm"`
	ModifierID        string  `json:"modrId"`
	ModifierName      string  `json:"modrNm"`
}

type ItemCompositionRequest struct {
	ItemCode          string  `json:"itemCd"`
	ComponentItemCode string  `json:"cpstItemCd"`
	ComponentQuantity float64 `json:"cpstQty"`
	RegistrantID      string  `json:"regrId"`
	RegistrantName    string  `json:"regrNm"`
}

// SalesTransaction is a sales receipt submission. Pointer fields are sent as
// null when unset.
type SalesTransaction struct {
	InvoiceNo          int64       `json:"invcNo"`
	OriginalInvoiceNo  int64       `json:"orgInvcNo"`
	CustomerTIN        *string     `json:"custTin"`
	CustomerName       *string     `json:"custNm"`
	SalesTypeCode      string      `json:"salesTyCd"`
	ReceiptTypeCode    string      `json:"rcptTyCd"`
	PaymentTypeCode    string      `json:"pmtTyCd"`
	SalesStatusCode    string      `json:"salesSttsCd"`
	ConfirmedAt        string      `json:"cfmDt"`
	SalesDate          string      `json:"salesDt"`
	StockReleasedAt    *string     `json:"stockRlsDt"`
	CancelRequestedAt  *string     `json:"cnclReqDt"`
	CancelledAt        *string     `json:"cnclDt"`
	RefundedAt         *string     `json:"rfdDt"`
	RefundReasonCode   *string     `json:"rfdRsnCd"`
	TotalItemCount     int         `json:"totItemCnt"`
	TaxableAmountA     float64     `json:"taxblAmtA"`
	TaxableAmountB     float64     `json:"taxblAmtB"`
	TaxableAmountC     float64     `json:"taxblAmtC"`
	TaxableAmountD     float64     `json:"taxblAmtD"`
	TaxableAmountE     float64     `json:"taxblAmtE"`
	TaxRateA           float64     `json:"taxRtA"`
	TaxRateB           float64     `json:"taxRtB"`
	TaxRateC           float64     `json:"taxRtC"`
	TaxRateD           float64     `json:"taxRtD"`
	TaxRateE           float64     `json:"taxRtE"`
	TaxAmountA         float64     `json:"taxAmtA"`
	TaxAmountB         float64     `json:"taxAmtB"`
	TaxAmountC         float64     `json:"taxAmtC"`
	TaxAmountD         float64     `json:"taxAmtD"`
	TaxAmountE         float64     `json:"taxAmtE"`
	TotalTaxableAmount float64     `json:"totTaxblAmt"`
	TotalTaxAmount     float64     `json:"totTaxAmt"`
	TotalAmount        float64     `json:"totAmt"`
	PurchaserAccepted  string      `json:"prchrAcptcYn"`
	Remark             *string     `json:"remark"`
	RegistrantID       string      `json:"regrId"`
	RegistrantName     string      `json:"regrNm"`
	ModifierID         string      `json:"modrId"`
	ModifierName       string      `json:"modrNm"`
	Receipt            Receipt     `json:"receipt"`
	Items              []SalesItem `json:"itemList"`
}

type Receipt struct {
	CustomerTIN       *string `json:"custTin"`
	CustomerMobile    *string `json:"custMblNo"`
	ReportNo          int64   `json:"rptNo"`
	PublishedAt       string  `json:"rcptPbctDt"`
	TradeName         string  `json:"trdeNm"`
	Address           string  `json:"adrs"`
	TopMessage        string  `json:"topMsg"`
	BottomMessage     string  `json:"btmMsg"`
	PurchaserAccepted string  `json:"prchrAcptcYn"`
}

type SalesItem struct {
	Sequence         int      `json:"itemSeq"`
	ItemCode         string   `json:"itemCd"`
	ItemClassCode    string   `json:"itemClsCd"`
	ItemName         string   `json:"itemNm"`
	Barcode          *string  `json:"barCd"`
	PackageUnitCode  string   `json:"pkgUnitCd"`
	Package          float64  `json:"pkg"`
	QuantityUnitCode string   `json:"qtyUnitCd"`
	Quantity         float64  `json:"qty"`
	Price            float64  `json:"prc"`
	SupplyAmount     float64  `json:"splyAmt"`
	DiscountRate     float64  `json:"dcRt"`
	DiscountAmount   float64  `json:"dcAmt"`
	InsuranceCode    *string  `json:"isrccCd"`
	InsuranceName    *string  `json:"isrccNm"`
	InsuranceRate    *float64 `json:"isrcRt"`
	InsuranceAmount  *float64 `json:"isrcAmt"`
	TaxTypeCode      string   `json:"taxTyCd"`
	TaxableAmount    float64  `json:"taxblAmt"`
	TaxAmount        float64  `json:"taxAmt"`
	TotalAmount      float64  `json:"totAmt"`
}

// Envelope is the common response shape. Data holds the operation specific
// body for callers that decode it further.
type Envelope struct {
	ResultCode    Code            `json:"resultCd"`
	ResultMessage string          `json:"resultMsg"`
	ResultDate    string          `json:"resultDt"`
	Data          json.RawMessage `json:"data"`
}

// Code accepts result codes sent either as JSON strings or numbers.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] != '"' {
		*c = Code(data)
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*c = Code(value)
	return nil
}

func (c Code) Success() bool {
	return string(c) == core.ResultSuccessCode
}
