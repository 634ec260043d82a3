// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// SaveInvoiceResponse is returned after a successful save.
type SaveInvoiceResponse struct {
	Status        string `json:"status"`
	InvoiceNumber string `json:"invoiceNumber"`
}

// ErrorResponse is the error body shape for all failed requests.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	Message string `json:"message"`
}
