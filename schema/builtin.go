package schema

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	Initialization          = "initialization"
	BranchInsurance         = "branchInsurance"
	BranchUserAccount       = "branchUserAccount"
	CustomerInfo            = "customerInfo"
	CodeList                = "codeList"
	ItemClass               = "itemClass"
	BranchList              = "branchList"
	CustomerPin             = "customerPin"
	TaxpayerInfo            = "taxpayerInfo"
	NoticeList              = "noticeList"
	CustomerList            = "customerList"
	ImportedItemInfo        = "importedItemInfo"
	ImportedItemConversion  = "importedItemConversion"
	ItemInfo                = "itemInfo"
	Item                    = "item"
	ItemComposition         = "itemComposition"
	PurchaseTransactionInfo = "purchaseTransactionInfo"
	PurchaseTransaction     = "purchaseTransaction"
	SalesTransaction        = "salesTransaction"
	SelectSalesTransactions = "selectSalesTransactions"
	InvoiceDetail           = "invoiceDetail"
	StockIO                 = "stockIO"
	StockMaster             = "stockMaster"
	StockMoveList           = "stockMoveList"
)

var (
	dateTimePattern = regexp.MustCompile(`^\d{14}$`)
	datePattern     = regexp.MustCompile(`^\d{8}$`)

	dateTimeRule = validation.Match(dateTimePattern).Error("must be formatted as yyyyMMddHHmmss")
	dateRule     = validation.Match(datePattern).Error("must be formatted as yyyyMMdd")
	flagRule     = validation.In("Y", "N").Error("must be Y or N")
)

// Builtin returns the OSCU payload schemas keyed by the names above.
func Builtin() []Schema {
	return []Schema{
		New(Initialization,
			String("tin"),
			String("bhfId"),
			String("dvcSrlNo"),
		),
		New(BranchInsurance, withAudit(
			String("isrccCd"),
			String("isrccNm"),
			Number("isrcRt"),
			String("useYn").With(flagRule),
		)...),
		New(BranchUserAccount, withAudit(
			String("userId"),
			String("userNm"),
			String("pwd"),
			optionalString("adrs"),
			optionalString("cntc"),
			optionalString("authCd"),
			optionalString("remark"),
			String("useYn").With(flagRule),
		)...),
		New(CustomerInfo, withAudit(
			String("custNo"),
			String("custTin"),
			String("custNm"),
			optionalString("adrs"),
			optionalString("telNo"),
			optionalString("email"),
			optionalString("faxNo"),
			String("useYn").With(flagRule),
			optionalString("remark"),
		)...),
		lastRequest(CodeList),
		lastRequest(ItemClass),
		lastRequest(BranchList),
		New(CustomerPin, String("custmTin")),
		lastRequest(TaxpayerInfo),
		lastRequest(NoticeList),
		New(CustomerList, String("custmTin")),
		lastRequest(ImportedItemInfo),
		New(ImportedItemConversion,
			String("taskCd"),
			String("dclDe").With(dateRule),
			Integer("itemSeq"),
			String("hsCd"),
			String("itemClsCd"),
			String("itemCd"),
			String("imptItemSttsCd"),
			optionalString("remark"),
			String("modrNm"),
			String("modrId"),
		),
		lastRequest(ItemInfo),
		New(Item, withAudit(
			String("itemCd"),
			String("itemClsCd"),
			String("itemTyCd"),
			String("itemNm"),
			optionalString("itemStdNm"),
			String("orgnNatCd"),
			String("pkgUnitCd"),
			String("qtyUnitCd"),
			String("taxTyCd"),
			optionalString("btchNo"),
			optionalString("bcd"),
			Number("dftPrc"),
			Number("grpPrcL1").Optional().OrNull(),
			Number("grpPrcL2").Optional().OrNull(),
			Number("grpPrcL3").Optional().OrNull(),
			Number("grpPrcL4").Optional().OrNull(),
			Number("grpPrcL5").Optional().OrNull(),
			optionalString("addInfo"),
			Number("sftyQty").Optional().OrNull(),
			String("isrcAplcbYn").With(flagRule),
			String("useYn").With(flagRule),
		)...),
		New(ItemComposition,
			String("itemCd"),
			String("cpstItemCd"),
			Number("cpstQty"),
			String("regrId"),
			String("regrNm"),
		),
		lastRequest(PurchaseTransactionInfo),
		New(PurchaseTransaction, purchaseTransactionFields()...),
		New(SalesTransaction, salesTransactionFields()...),
		lastRequest(SelectSalesTransactions),
		New(InvoiceDetail, Integer("invcNo")),
		New(StockIO, stockIOFields()...),
		New(StockMaster, withAudit(
			String("itemCd"),
			Number("rsdQty"),
		)...),
		lastRequest(StockMoveList),
	}
}

func lastRequest(name string) Schema {
	return New(name,
		optionalString("tin"),
		optionalString("bhfId"),
		String("lastReqDt").With(dateTimeRule),
	)
}

func optionalString(name string) Field {
	return String(name).Optional().OrNull()
}

func withAudit(fields ...Field) []Field {
	return append(fields,
		String("regrId"),
		String("regrNm"),
		String("modrId"),
		String("modrNm"),
	)
}

// taxBreakdown lists the per category (A to E) taxable amount, rate and tax
// amount fields shared by sales and purchase documents.
func taxBreakdown() []Field {
	var fields []Field
	for _, prefix := range []string{"taxblAmt", "taxRt", "taxAmt"} {
		for _, category := range []string{"A", "B", "C", "D", "E"} {
			fields = append(fields, Number(prefix+category))
		}
	}
	return append(fields,
		Number("totTaxblAmt"),
		Number("totTaxAmt"),
		Number("totAmt"),
	)
}

func salesTransactionFields() []Field {
	fields := []Field{
		Integer("invcNo"),
		Integer("orgInvcNo"),
		optionalString("custTin"),
		optionalString("custNm"),
		String("salesTyCd"),
		String("rcptTyCd"),
		String("pmtTyCd"),
		String("salesSttsCd"),
		String("cfmDt").With(dateTimeRule),
		String("salesDt").With(dateRule),
		optionalString("stockRlsDt"),
		optionalString("cnclReqDt"),
		optionalString("cnclDt"),
		optionalString("rfdDt"),
		optionalString("rfdRsnCd"),
		Integer("totItemCnt"),
	}
	fields = append(fields, taxBreakdown()...)
	fields = append(fields,
		String("prchrAcptcYn").With(flagRule),
		optionalString("remark"),
	)
	fields = withAudit(fields...)
	return append(fields,
		Object("receipt",
			optionalString("custTin"),
			optionalString("custMblNo"),
			Integer("rptNo"),
			String("rcptPbctDt").With(dateTimeRule),
			optionalString("trdeNm"),
			optionalString("adrs"),
			optionalString("topMsg"),
			optionalString("btmMsg"),
			String("prchrAcptcYn").With(flagRule),
		),
		Array("itemList", Element(TypeObject,
			Integer("itemSeq"),
			String("itemCd"),
			String("itemClsCd"),
			String("itemNm"),
			String("barCd").OrNull(),
			String("pkgUnitCd"),
			Number("pkg"),
			String("qtyUnitCd"),
			Number("qty"),
			Number("prc"),
			Number("splyAmt"),
			Number("dcRt"),
			Number("dcAmt"),
			optionalString("isrccCd"),
			optionalString("isrccNm"),
			Number("isrcRt").Optional().OrNull(),
			Number("isrcAmt").Optional().OrNull(),
			String("taxTyCd"),
			Number("taxblAmt"),
			Number("taxAmt"),
			Number("totAmt"),
		)).With(validation.Required.Error("must contain at least one item")),
	)
}

func purchaseTransactionFields() []Field {
	fields := []Field{
		Integer("invcNo"),
		Integer("orgInvcNo"),
		optionalString("spplrTin"),
		optionalString("spplrBhfId"),
		optionalString("spplrNm"),
		Integer("spplrInvcNo").Optional().OrNull(),
		String("regTyCd"),
		String("pchsTyCd"),
		String("rcptTyCd"),
		String("pmtTyCd"),
		String("pchsSttsCd"),
		String("cfmDt").With(dateTimeRule),
		String("pchsDt").With(dateRule),
		optionalString("wrhsDt"),
		optionalString("cnclReqDt"),
		optionalString("cnclDt"),
		optionalString("rfdDt"),
		Integer("totItemCnt"),
	}
	fields = append(fields, taxBreakdown()...)
	fields = append(fields, optionalString("remark"))
	fields = withAudit(fields...)
	return append(fields,
		Array("itemList", Element(TypeObject,
			Integer("itemSeq"),
			String("itemCd"),
			String("itemClsCd"),
			String("itemNm"),
			optionalString("bcd"),
			optionalString("spplrItemClsCd"),
			optionalString("spplrItemCd"),
			optionalString("spplrItemNm"),
			String("pkgUnitCd"),
			Number("pkg"),
			String("qtyUnitCd"),
			Number("qty"),
			Number("prc"),
			Number("splyAmt"),
			Number("dcRt"),
			Number("dcAmt"),
			String("taxTyCd"),
			Number("taxblAmt"),
			Number("taxAmt"),
			Number("totAmt"),
			optionalString("itemExprDt"),
		)).With(validation.Required.Error("must contain at least one item")),
	)
}

func stockIOFields() []Field {
	fields := []Field{
		Integer("sarNo"),
		Integer("orgSarNo"),
		String("regTyCd"),
		optionalString("custTin"),
		optionalString("custNm"),
		optionalString("custBhfId"),
		String("sarTyCd"),
		String("ocrnDt").With(dateRule),
		Integer("totItemCnt"),
		Number("totTaxblAmt"),
		Number("totTaxAmt"),
		Number("totAmt"),
		optionalString("remark"),
	}
	fields = withAudit(fields...)
	return append(fields,
		Array("itemList", Element(TypeObject,
			Integer("itemSeq"),
			String("itemCd"),
			String("itemClsCd"),
			String("itemNm"),
			optionalString("bcd"),
			String("pkgUnitCd"),
			Number("pkg"),
			String("qtyUnitCd"),
			Number("qty"),
			optionalString("itemExprDt"),
			Number("prc"),
			Number("splyAmt"),
			Number("totDcAmt"),
			Number("taxblAmt"),
			String("taxTyCd"),
			Number("taxAmt"),
			Number("totAmt"),
		)),
	)
}
