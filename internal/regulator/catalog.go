package regulator

// CatalogEntry is the operator-facing text for one rejection code.
type CatalogEntry struct {
	EN string
	AR string
}

// catalog maps regulator rejection codes to bilingual messages. Codes not
// listed here fall back to the regulator's raw detail string.
var catalog = map[string]CatalogEntry{
	"BR-KSA-01": {
		EN: "Invoice hash does not match the computed document hash",
		AR: "قيمة تجزئة الفاتورة لا تطابق التجزئة المحسوبة للمستند",
	},
	"BR-KSA-02": {
		EN: "Previous invoice hash does not match the registered chain",
		AR: "قيمة تجزئة الفاتورة السابقة لا تطابق السلسلة المسجلة",
	},
	"BR-KSA-09": {
		EN: "Invoice type code is not permitted for this operation",
		AR: "رمز نوع الفاتورة غير مسموح به لهذه العملية",
	},
	"BR-KSA-26": {
		EN: "Invoice counter value is out of sequence",
		AR: "قيمة عداد الفواتير خارج التسلسل",
	},
	"BR-KSA-60": {
		EN: "Digital signature could not be validated",
		AR: "تعذر التحقق من صحة التوقيع الرقمي",
	},
	"BR-KSA-84": {
		EN: "Certificate is not registered for this taxpayer",
		AR: "الشهادة غير مسجلة لهذا المكلف",
	},
	"CERT-EXPIRED": {
		EN: "Signing certificate has expired",
		AR: "انتهت صلاحية شهادة التوقيع",
	},
	"OTP-INVALID": {
		EN: "The one-time password is invalid or has expired",
		AR: "كلمة المرور لمرة واحدة غير صالحة أو منتهية الصلاحية",
	},
}

// Lookup returns the bilingual catalog text for a rejection code. The second
// return reports whether the code is known.
func Lookup(code string) (CatalogEntry, bool) {
	entry, ok := catalog[code]
	return entry, ok
}
