// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"time"
)

// Known document types. The prefix table tolerates unknown values by
// falling back to the invoice prefix.
const (
	TypeInvoice         = "INVOICE"
	TypeProformaInvoice = "PROFORMA INVOICE"
	TypeQuotation       = "QUOTATION"
)

// KnownTypes returns the document types that get counter rows seeded at setup.
func KnownTypes() []string {
	return []string{TypeInvoice, TypeProformaInvoice, TypeQuotation}
}

// Prefix selects the number prefix for a document type.
func Prefix(documentType string) string {
	switch documentType {
	case TypeProformaInvoice:
		return "PINV"
	case TypeQuotation:
		return "QI"
	default:
		return "INV"
	}
}

// Format renders a document number from its parts.
// Pattern: {prefix}-MQ{month:02}{year:02}{counter:04}.
// Counters past 9999 widen the string instead of overflowing.
//
// Pure and deterministic; the caller supplies the period.
func Format(documentType string, counter int64, month time.Month, year int) string {
	return fmt.Sprintf("%s-MQ%02d%02d%04d", Prefix(documentType), int(month), year%100, counter)
}
