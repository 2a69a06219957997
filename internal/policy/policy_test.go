package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "fatoora/pkg/domain"
)

// TestEvaluateMatrix exercises every cell of the policy matrix exhaustively.
func TestEvaluateMatrix(t *testing.T) {
	tests := []struct {
		name          string
		env           id.Environment
		invoiceType   id.InvoiceType
		wantClearance bool
		wantReporting bool
	}{
		{"sandbox standard", id.EnvironmentSandbox, id.InvoiceTypeStandard, true, true},
		{"sandbox simplified", id.EnvironmentSandbox, id.InvoiceTypeSimplified, true, true},
		{"sandbox debit note", id.EnvironmentSandbox, id.InvoiceTypeDebitNote, true, true},
		{"sandbox credit note", id.EnvironmentSandbox, id.InvoiceTypeCreditNote, true, true},
		{"sandbox unknown type", id.EnvironmentSandbox, id.InvoiceType("MIXED"), true, true},
		{"production standard", id.EnvironmentProduction, id.InvoiceTypeStandard, true, false},
		{"production simplified", id.EnvironmentProduction, id.InvoiceTypeSimplified, false, true},
		{"production debit note", id.EnvironmentProduction, id.InvoiceTypeDebitNote, true, false},
		{"production credit note", id.EnvironmentProduction, id.InvoiceTypeCreditNote, true, false},
		{"production ambiguous type", id.EnvironmentProduction, id.InvoiceType("MIXED"), false, false},
		{"production empty type", id.EnvironmentProduction, id.InvoiceType(""), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearance := Evaluate(tt.env, tt.invoiceType, OperationClearance)
			reporting := Evaluate(tt.env, tt.invoiceType, OperationReporting)

			assert.Equal(t, tt.wantClearance, clearance.Allowed, "clearance decision")
			assert.Equal(t, tt.wantReporting, reporting.Allowed, "reporting decision")
			assert.NotEmpty(t, clearance.Reason)
			assert.NotEmpty(t, reporting.Reason)
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	first := Evaluate(id.EnvironmentProduction, id.InvoiceTypeSimplified, OperationClearance)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Evaluate(id.EnvironmentProduction, id.InvoiceTypeSimplified, OperationClearance))
	}
}

func TestEvaluateUnknownOperation(t *testing.T) {
	d := Evaluate(id.EnvironmentProduction, id.InvoiceTypeStandard, Operation("AUDIT"))
	assert.False(t, d.Allowed)
}
