// Package invoice provides the invoice record model and business logic.
// Records are immutable after insert: they are created by the save
// operation, read by id or listed, and deleted individually.
package invoice

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
)

// Record is a stored invoice row. The summary columns duplicate fields
// inside InvoiceData as of insert time; no later reconciliation happens.
type Record struct {
	ID           int64           `db:"id" json:"id"`
	DocumentType string          `db:"document_type" json:"documentType"`
	InvoiceNo    string          `db:"invoice_no" json:"invoiceNumber"`
	ClientName   string          `db:"client_name" json:"billTo"`
	ClientEmail  string          `db:"client_email" json:"billToEmail"`
	Total        decimal.Decimal `db:"total" json:"total"`
	InvoiceData  []byte          `db:"invoice_data" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// Summary is the listing view of a record, without the full payload.
// CreatedAt is rendered as a plain string for the API.
type Summary struct {
	ID           int64           `json:"id"`
	DocumentType string          `json:"documentType"`
	InvoiceNo    string          `json:"invoiceNumber"`
	ClientName   string          `json:"billTo"`
	ClientEmail  string          `json:"billToEmail"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    string          `json:"created_at"`
}

// Payload is a submitted invoice document: a free-form JSON object that
// must carry at least the summary fields. Everything else is stored opaquely.
type Payload map[string]any

// SummaryFields are the validated summary values extracted from a payload.
type SummaryFields struct {
	DocumentType string
	ClientName   string
	ClientEmail  string
	Total        decimal.Decimal
}

// Validate extracts and validates the required summary fields.
// Runs before any number is allocated, so a rejected payload
// consumes nothing.
func (p Payload) Validate() (SummaryFields, error) {
	var fields SummaryFields

	documentType, err := p.stringField("documentType")
	if err != nil {
		return fields, err
	}
	clientName, err := p.stringField("billTo")
	if err != nil {
		return fields, err
	}
	clientEmail, err := p.stringField("billToEmail")
	if err != nil {
		return fields, err
	}
	total, err := p.totalField()
	if err != nil {
		return fields, err
	}

	fields.DocumentType = documentType
	fields.ClientName = clientName
	fields.ClientEmail = clientEmail
	fields.Total = total
	return fields, nil
}

func (p Payload) stringField(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", apperror.NewValidation("missing required field").WithDetail("field", name)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", apperror.NewValidation("field must be a non-empty string").WithDetail("field", name)
	}
	return s, nil
}

// totalField accepts both a JSON number and a numeric string.
func (p Payload) totalField() (decimal.Decimal, error) {
	v, ok := p["total"]
	if !ok {
		return decimal.Decimal{}, apperror.NewValidation("missing required field").WithDetail("field", "total")
	}

	var (
		total decimal.Decimal
		err   error
	)
	switch t := v.(type) {
	case string:
		total, err = decimal.NewFromString(strings.TrimSpace(t))
	case float64:
		total = decimal.NewFromFloat(t)
	case json.Number:
		total, err = decimal.NewFromString(t.String())
	default:
		return decimal.Decimal{}, apperror.NewValidation("total must be a number").WithDetail("field", "total")
	}
	if err != nil {
		return decimal.Decimal{}, apperror.NewValidation("total must be a number").
			WithDetail("field", "total").
			WithDetail("value", v)
	}
	if total.IsNegative() {
		return decimal.Decimal{}, apperror.NewValidation("total must not be negative").
			WithDetail("field", "total").
			WithDetail("value", total.String())
	}
	return total, nil
}
