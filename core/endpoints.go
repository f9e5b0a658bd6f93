package core

import (
	"net/http"
	"sort"
	"strings"
)

const (
	EndpointInitialize = "initialize"

	initializationPathSuffix = "/initialize"
)

// DefaultEndpointPaths mirrors the OSCU endpoint table. Stock endpoints are
// nested paths on the remote side.
func DefaultEndpointPaths() map[string]string {
	return map[string]string{
		EndpointInitialize: "/initialize",

		"branchInsuranceInfo":    "/branchInsuranceInfo",
		"branchUserAccount":      "/branchUserAccount",
		"branchSendCustomerInfo": "/branchSendCustomerInfo",

		"selectCodeList":     "/selectCodeList",
		"selectItemClass":    "/selectItemClass",
		"branchList":         "/branchList",
		"customerPinInfo":    "/customerPinInfo",
		"selectTaxpayerInfo": "/selectTaxpayerInfo",
		"selectNoticeList":   "/selectNoticeList",
		"selectCustomerList": "/selectCustomerList",

		"importedItemInfo":          "/importedItemInfo",
		"importedItemConvertedInfo": "/importedItemConvertedInfo",

		"itemInfo":            "/itemInfo",
		"saveItem":            "/saveItem",
		"saveItemComposition": "/saveItemComposition",

		"getPurchaseTransactionInfo":  "/getPurchaseTransactionInfo",
		"sendPurchaseTransactionInfo": "/sendPurchaseTransactionInfo",

		"sendSalesTransaction":    "/sendSalesTransaction",
		"selectSalesTransactions": "/selectSalesTransactions",
		"selectInvoiceDetail":     "/selectInvoiceDetail",

		"insertStockIO":        "/insert/stockIO",
		"saveStockMaster":      "/save/stockMaster",
		"selectStockMoveLists": "/selectStockMoveLists",
	}
}

// EndpointTable resolves logical endpoint keys to paths. The client never
// builds paths itself.
type EndpointTable struct {
	paths map[string]string
}

func NewEndpointTable(paths map[string]string) EndpointTable {
	copied := make(map[string]string, len(paths))
	for key, path := range paths {
		key = strings.TrimSpace(key)
		path = strings.TrimSpace(path)
		if key == "" || path == "" {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		copied[key] = path
	}
	return EndpointTable{paths: copied}
}

func (t EndpointTable) Resolve(key string, method string) (EndpointDescriptor, error) {
	trimmed := strings.TrimSpace(key)
	if strings.HasPrefix(trimmed, "/") {
		return EndpointDescriptor{}, NewConfigurationError(
			TextCodeEndpointNotConfigured,
			"endpoint key expected, path given ["+trimmed+"]",
			map[string]any{"endpoint_key": trimmed},
		)
	}
	path, ok := t.paths[trimmed]
	if !ok || trimmed == "" {
		return EndpointDescriptor{}, NewConfigurationError(
			TextCodeEndpointNotConfigured,
			"endpoint ["+trimmed+"] not configured",
			map[string]any{"endpoint_key": trimmed},
		)
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodPost
	}
	return EndpointDescriptor{Key: trimmed, Path: path, Method: method}, nil
}

func (t EndpointTable) Keys() []string {
	keys := make([]string, 0, len(t.paths))
	for key := range t.paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (t EndpointTable) Paths() map[string]string {
	out := make(map[string]string, len(t.paths))
	for key, path := range t.paths {
		out[key] = path
	}
	return out
}

// IsInitializationPath reports whether path targets the device initialization
// endpoint, which must not carry business identifier headers.
func IsInitializationPath(path string) bool {
	path = strings.TrimRight(strings.TrimSpace(path), "/")
	return strings.HasSuffix(path, initializationPathSuffix) || path == strings.TrimPrefix(initializationPathSuffix, "/")
}
