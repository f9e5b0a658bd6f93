package operations

import (
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/schema"
)

// Kind separates operations that change remote state from read-only lookups.
type Kind string

const (
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
)

// Operation names match the endpoint keys of the default endpoint table.
const (
	Initialize                  = core.EndpointInitialize
	BranchInsuranceInfo         = "branchInsuranceInfo"
	BranchUserAccount           = "branchUserAccount"
	BranchSendCustomerInfo      = "branchSendCustomerInfo"
	SelectCodeList              = "selectCodeList"
	SelectItemClass             = "selectItemClass"
	BranchList                  = "branchList"
	CustomerPinInfo             = "customerPinInfo"
	SelectTaxpayerInfo          = "selectTaxpayerInfo"
	SelectNoticeList            = "selectNoticeList"
	SelectCustomerList          = "selectCustomerList"
	ImportedItemInfo            = "importedItemInfo"
	ImportedItemConvertedInfo   = "importedItemConvertedInfo"
	ItemInfo                    = "itemInfo"
	SaveItem                    = "saveItem"
	SaveItemComposition         = "saveItemComposition"
	GetPurchaseTransactionInfo  = "getPurchaseTransactionInfo"
	SendPurchaseTransactionInfo = "sendPurchaseTransactionInfo"
	SendSalesTransaction        = "sendSalesTransaction"
	SelectSalesTransactions     = "selectSalesTransactions"
	SelectInvoiceDetail         = "selectInvoiceDetail"
	InsertStockIO               = "insertStockIO"
	SaveStockMaster             = "saveStockMaster"
	SelectStockMoveLists        = "selectStockMoveLists"
)

// Definition binds an operation to the schema its payload must satisfy and
// the endpoint it is sent to.
type Definition struct {
	Name        string
	Schema      string
	EndpointKey string
	Method      string
	Kind        Kind
}

func (d Definition) Operation() core.Operation {
	return core.Operation{EndpointKey: d.EndpointKey, Method: d.Method}
}

func Definitions() []Definition {
	return []Definition{
		command(Initialize, schema.Initialization),
		command(BranchInsuranceInfo, schema.BranchInsurance),
		command(BranchUserAccount, schema.BranchUserAccount),
		command(BranchSendCustomerInfo, schema.CustomerInfo),
		query(SelectCodeList, schema.CodeList),
		query(SelectItemClass, schema.ItemClass),
		query(BranchList, schema.BranchList),
		query(CustomerPinInfo, schema.CustomerPin),
		query(SelectTaxpayerInfo, schema.TaxpayerInfo),
		query(SelectNoticeList, schema.NoticeList),
		query(SelectCustomerList, schema.CustomerList),
		query(ImportedItemInfo, schema.ImportedItemInfo),
		command(ImportedItemConvertedInfo, schema.ImportedItemConversion),
		query(ItemInfo, schema.ItemInfo),
		command(SaveItem, schema.Item),
		command(SaveItemComposition, schema.ItemComposition),
		query(GetPurchaseTransactionInfo, schema.PurchaseTransactionInfo),
		command(SendPurchaseTransactionInfo, schema.PurchaseTransaction),
		command(SendSalesTransaction, schema.SalesTransaction),
		query(SelectSalesTransactions, schema.SelectSalesTransactions),
		query(SelectInvoiceDetail, schema.InvoiceDetail),
		command(InsertStockIO, schema.StockIO),
		command(SaveStockMaster, schema.StockMaster),
		query(SelectStockMoveLists, schema.StockMoveList),
	}
}

func command(name string, schemaName string) Definition {
	return Definition{Name: name, Schema: schemaName, EndpointKey: name, Method: http.MethodPost, Kind: KindCommand}
}

func query(name string, schemaName string) Definition {
	return Definition{Name: name, Schema: schemaName, EndpointKey: name, Method: http.MethodPost, Kind: KindQuery}
}

type Table struct {
	definitions map[string]Definition
}

func NewTable(definitions ...Definition) Table {
	out := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			continue
		}
		if def.EndpointKey == "" {
			def.EndpointKey = def.Name
		}
		if def.Method == "" {
			def.Method = http.MethodPost
		}
		if def.Kind == "" {
			def.Kind = KindCommand
		}
		out[def.Name] = def
	}
	return Table{definitions: out}
}

func DefaultTable() Table {
	return NewTable(Definitions()...)
}

func (t Table) Lookup(name string) (Definition, bool) {
	def, ok := t.definitions[strings.TrimSpace(name)]
	return def, ok
}

func (t Table) Names(kind Kind) []string {
	names := make([]string, 0, len(t.definitions))
	for name, def := range t.definitions {
		if kind != "" && def.Kind != kind {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
