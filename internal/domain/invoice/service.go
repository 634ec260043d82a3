package invoice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	"github.com/mohit-ihs-314/invoice-backend/internal/core/numerator"
	"github.com/mohit-ihs-314/invoice-backend/internal/core/tx"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

// Service provides business logic for invoice records: it composes the
// numbering service with the repository.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new invoice service.
// txManager may be nil in tests; operations then run without an explicit
// transaction scope.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
	}
}

// Save validates the payload, allocates the next document number for its
// type, injects the number into the payload and persists the record.
// Returns the allocated number.
//
// Ordering matters: validation precedes allocation, so a rejected payload
// consumes no number. The insert after allocation runs in its own
// transaction; if it fails the counter stays advanced and the caller's
// retry gets a fresh number (gap, never collision).
func (s *Service) Save(ctx context.Context, payload Payload) (string, error) {
	fields, err := payload.Validate()
	if err != nil {
		return "", err
	}

	invoiceNo, err := s.numerator.NextNumber(ctx, fields.DocumentType)
	if err != nil {
		return "", err
	}

	payload["invoiceNumber"] = invoiceNo
	data, err := json.Marshal(payload)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("marshal payload: %w", err))
	}

	rec := &Record{
		DocumentType: fields.DocumentType,
		InvoiceNo:    invoiceNo,
		ClientName:   fields.ClientName,
		ClientEmail:  fields.ClientEmail,
		Total:        fields.Total,
		InvoiceData:  data,
	}

	err = s.inTransaction(ctx, func(ctx context.Context) error {
		id, err := s.repo.Insert(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		// The number is already committed and will not be reused.
		logger.Warn(ctx, "invoice number allocated but save failed",
			"invoice_no", invoiceNo,
			"document_type", fields.DocumentType,
			"error", err,
		)
		return "", err
	}

	logger.Info(ctx, "invoice saved",
		"id", rec.ID,
		"invoice_no", invoiceNo,
		"document_type", fields.DocumentType,
	)
	return invoiceNo, nil
}

// Get returns the full payload for a record id.
func (s *Service) Get(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.repo.Get(ctx, id)
}

// List returns summary views of all records, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

// Delete removes a record by id. Idempotent: a missing id still succeeds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txManager == nil {
		return fn(ctx)
	}
	return s.txManager.RunInTransaction(ctx, fn)
}
