// Package invoice_repo implements invoice.Repository over PostgreSQL.
package invoice_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	"github.com/mohit-ihs-314/invoice-backend/internal/domain/invoice"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/storage/postgres"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

const invoiceTable = "invoices"

// createdAtLayout matches the plain timestamp string the API exposes.
const createdAtLayout = "2006-01-02 15:04:05"

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
}

// Ensure compile-time interface compliance.
var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{txManager: txManager}
}

// Builder returns a statement builder with PostgreSQL placeholders.
func (r *InvoiceRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert stores the record and returns the assigned id.
// created_at is set by the table default at write time.
func (r *InvoiceRepo) Insert(ctx context.Context, rec *invoice.Record) (int64, error) {
	q := r.Builder().
		Insert(invoiceTable).
		Columns("document_type", "invoice_no", "client_name", "client_email", "total", "invoice_data").
		Values(rec.DocumentType, rec.InvoiceNo, rec.ClientName, rec.ClientEmail, rec.Total, rec.InvoiceData).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, postgres.StoreError("insert invoice", err)
	}

	return id, nil
}

// Get returns the full stored payload for an id.
func (r *InvoiceRepo) Get(ctx context.Context, id int64) (json.RawMessage, error) {
	q := r.Builder().
		Select("invoice_data").
		From(invoiceTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var data []byte
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &data, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", id)
		}
		return nil, postgres.StoreError("get invoice", err)
	}

	return data, nil
}

// summaryRow is the scan target for listing; created_at stays a timestamp
// here and is rendered to a string in the summary view.
type summaryRow struct {
	ID           int64           `db:"id"`
	DocumentType string          `db:"document_type"`
	InvoiceNo    string          `db:"invoice_no"`
	ClientName   string          `db:"client_name"`
	ClientEmail  string          `db:"client_email"`
	Total        decimal.Decimal `db:"total"`
	CreatedAt    time.Time       `db:"created_at"`
}

// List returns summary views of all invoices, newest first.
func (r *InvoiceRepo) List(ctx context.Context) ([]invoice.Summary, error) {
	q := r.Builder().
		Select("id", "document_type", "invoice_no", "client_name", "client_email", "total", "created_at").
		From(invoiceTable).
		OrderBy("id DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []summaryRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, postgres.StoreError("list invoices", err)
	}

	summaries := make([]invoice.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, invoice.Summary{
			ID:           row.ID,
			DocumentType: row.DocumentType,
			InvoiceNo:    row.InvoiceNo,
			ClientName:   row.ClientName,
			ClientEmail:  row.ClientEmail,
			Total:        row.Total,
			CreatedAt:    row.CreatedAt.Format(createdAtLayout),
		})
	}

	return summaries, nil
}

// Delete removes an invoice by id. Deleting an id that does not exist
// is reported as success.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	q := r.Builder().
		Delete(invoiceTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.StoreError("delete invoice", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Debug(ctx, "delete of missing invoice", "id", id)
	}

	return nil
}
