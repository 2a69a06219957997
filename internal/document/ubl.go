package document

import "encoding/xml"

// UBL 2.1 invoice shapes. Only the subset of elements the regulator's schema
// requires; attribute namespaces follow the OASIS UBL layout.

type ublInvoice struct {
	XMLName         xml.Name `xml:"Invoice"`
	Xmlns           string   `xml:"xmlns,attr"`
	Cbc             string   `xml:"xmlns:cbc,attr"`
	Cac             string   `xml:"xmlns:cac,attr"`
	ProfileID       string   `xml:"cbc:ProfileID"`
	ID              string   `xml:"cbc:ID"`
	UUID            string   `xml:"cbc:UUID"`
	IssueDate       string   `xml:"cbc:IssueDate"`
	InvoiceTypeCode string   `xml:"cbc:InvoiceTypeCode"`
	Note            string   `xml:"cbc:Note,omitempty"`
	CurrencyCode    string   `xml:"cbc:DocumentCurrencyCode"`

	AdditionalRefs []ublDocumentReference `xml:"cac:AdditionalDocumentReference"`

	Supplier ublPartyWrapper `xml:"cac:AccountingSupplierParty"`
	Customer ublPartyWrapper `xml:"cac:AccountingCustomerParty"`

	TaxTotal      ublTaxTotal      `xml:"cac:TaxTotal"`
	MonetaryTotal ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`
	Lines         []ublInvoiceLine `xml:"cac:InvoiceLine"`
}

// ublDocumentReference carries chain metadata: PIH (previous invoice hash)
// and ICV (invoice counter value).
type ublDocumentReference struct {
	ID       string     `xml:"cbc:ID"`
	UUID     string     `xml:"cbc:UUID,omitempty"`
	Embedded *ublBinary `xml:"cac:Attachment>cbc:EmbeddedDocumentBinaryObject,omitempty"`
}

type ublBinary struct {
	MimeCode string `xml:"mimeCode,attr"`
	Value    string `xml:",chardata"`
}

type ublPartyWrapper struct {
	Party ublParty `xml:"cac:Party"`
}

type ublParty struct {
	Name      ublName      `xml:"cac:PartyName"`
	Address   ublAddress   `xml:"cac:PostalAddress"`
	TaxScheme ublTaxScheme `xml:"cac:PartyTaxScheme"`
}

type ublName struct {
	Name string `xml:"cbc:Name"`
}

type ublAddress struct {
	StreetName string     `xml:"cbc:StreetName"`
	PostalZone string     `xml:"cbc:PostalZone"`
	Country    ublCountry `xml:"cac:Country"`
}

type ublCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type ublTaxScheme struct {
	CompanyID string     `xml:"cbc:CompanyID"`
	TaxScheme ublTaxInfo `xml:"cac:TaxScheme"`
}

type ublTaxInfo struct {
	ID string `xml:"cbc:ID"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount `xml:"cbc:TaxAmount"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublInvoiceLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item                ublItem     `xml:"cac:Item"`
	Price               ublPrice    `xml:"cac:Price"`
}

type ublQuantity struct {
	UnitCode string  `xml:"unitCode,attr"`
	Value    float64 `xml:",chardata"`
}

type ublAmount struct {
	Currency string  `xml:"currencyID,attr"`
	Value    float64 `xml:",chardata"`
}

type ublItem struct {
	Description string         `xml:"cbc:Description"`
	TaxCategory ublTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type ublTaxCategory struct {
	ID        string     `xml:"cbc:ID"`
	Percent   float64    `xml:"cbc:Percent"`
	TaxScheme ublTaxInfo `xml:"cac:TaxScheme"`
}

type ublPrice struct {
	PriceAmount ublAmount `xml:"cbc:PriceAmount"`
}

// invoiceTypeCode maps the domain invoice type to the UBL type code list.
func invoiceTypeCode(t string) string {
	switch t {
	case "STANDARD":
		return "388"
	case "SIMPLIFIED":
		return "388"
	case "DEBIT_NOTE":
		return "383"
	case "CREDIT_NOTE":
		return "381"
	default:
		return ""
	}
}
