// Package policy decides, per environment and invoice type, whether an
// invoice may be cleared and whether it must be reported. It is a pure
// lookup with no side effects so the matrix stays independently auditable.
package policy

import (
	id "fatoora/pkg/domain"
)

// Operation is the regulator interaction being gated.
type Operation string

const (
	OperationClearance Operation = "CLEARANCE"
	OperationReporting Operation = "REPORTING"
)

// Decision is the outcome of one matrix lookup.
type Decision struct {
	Allowed bool
	Reason  string
}

type outcome struct {
	clearance bool
	reporting bool
	reason    string
}

// The matrix. Sandbox allows everything so integrations can exercise both
// paths. Production splits by document class: standard tax invoices and debit
// notes go through clearance, simplified invoices are report-only.
var productionMatrix = map[id.InvoiceType]outcome{
	id.InvoiceTypeStandard:   {clearance: true, reporting: false, reason: "standard invoices are cleared, not reported"},
	id.InvoiceTypeSimplified: {clearance: false, reporting: true, reason: "simplified invoices are reported, not cleared"},
	id.InvoiceTypeDebitNote:  {clearance: true, reporting: false, reason: "debit notes follow the clearance path"},
	id.InvoiceTypeCreditNote: {clearance: true, reporting: false, reason: "credit notes follow the clearance path"},
}

// Evaluate looks up the decision for one (environment, type, operation)
// triple. Unknown or ambiguous production types are hard-denied for both
// operations.
func Evaluate(env id.Environment, invoiceType id.InvoiceType, op Operation) Decision {
	if env == id.EnvironmentSandbox {
		return Decision{Allowed: true, Reason: "sandbox allows all operations"}
	}

	out, known := productionMatrix[invoiceType]
	if !known {
		return Decision{Allowed: false, Reason: "ambiguous invoice type is rejected in production"}
	}

	switch op {
	case OperationClearance:
		return Decision{Allowed: out.clearance, Reason: out.reason}
	case OperationReporting:
		return Decision{Allowed: out.reporting, Reason: out.reason}
	default:
		return Decision{Allowed: false, Reason: "unknown operation"}
	}
}
