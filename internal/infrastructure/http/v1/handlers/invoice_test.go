package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	"github.com/mohit-ihs-314/invoice-backend/internal/domain/invoice"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/middleware"
)

// stubService is a scriptable InvoiceService.
type stubService struct {
	saveFn   func(ctx context.Context, payload invoice.Payload) (string, error)
	getFn    func(ctx context.Context, id int64) (json.RawMessage, error)
	listFn   func(ctx context.Context) ([]invoice.Summary, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubService) Save(ctx context.Context, payload invoice.Payload) (string, error) {
	return s.saveFn(ctx, payload)
}

func (s *stubService) Get(ctx context.Context, id int64) (json.RawMessage, error) {
	return s.getFn(ctx, id)
}

func (s *stubService) List(ctx context.Context) ([]invoice.Summary, error) {
	return s.listFn(ctx)
}

func (s *stubService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func setupRouter(svc InvoiceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	handler := NewInvoiceHandler(NewBaseHandler(), svc)
	handler.RegisterRoutes(router.Group(""))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSaveInvoice_Success(t *testing.T) {
	svc := &stubService{
		saveFn: func(_ context.Context, payload invoice.Payload) (string, error) {
			assert.Equal(t, "QUOTATION", payload["documentType"])
			return "QI-MQ03260007", nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/save-invoice",
		`{"documentType":"QUOTATION","billTo":"Acme","billToEmail":"a@b.c","total":12.5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","invoiceNumber":"QI-MQ03260007"}`, w.Body.String())
}

func TestSaveInvoice_ValidationError(t *testing.T) {
	svc := &stubService{
		saveFn: func(_ context.Context, _ invoice.Payload) (string, error) {
			return "", apperror.NewValidation("total must be a number")
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/save-invoice",
		`{"documentType":"INVOICE","billTo":"Acme","billToEmail":"a@b.c","total":"abc"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"total must be a number"}`, w.Body.String())
}

func TestSaveInvoice_MalformedBody(t *testing.T) {
	svc := &stubService{
		saveFn: func(_ context.Context, _ invoice.Payload) (string, error) {
			t.Fatal("service must not be called for malformed JSON")
			return "", nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/save-invoice", `{not json`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
}

func TestSaveInvoice_TransientStoreError(t *testing.T) {
	svc := &stubService{
		saveFn: func(_ context.Context, _ invoice.Payload) (string, error) {
			return "", apperror.NewTransientStore(context.DeadlineExceeded)
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/save-invoice",
		`{"documentType":"INVOICE","billTo":"Acme","billToEmail":"a@b.c","total":1}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetInvoice_Found(t *testing.T) {
	payload := `{"documentType":"INVOICE","billTo":"Acme","invoiceNumber":"INV-MQ01250001"}`
	svc := &stubService{
		getFn: func(_ context.Context, id int64) (json.RawMessage, error) {
			assert.Equal(t, int64(7), id)
			return json.RawMessage(payload), nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/get-invoice/7", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, payload, w.Body.String())
}

func TestGetInvoice_NotFound(t *testing.T) {
	svc := &stubService{
		getFn: func(_ context.Context, id int64) (json.RawMessage, error) {
			return nil, apperror.NewNotFound("invoice", id)
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/get-invoice/42", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Invoice not found"}`, w.Body.String())
}

func TestGetInvoice_BadID(t *testing.T) {
	svc := &stubService{
		getFn: func(_ context.Context, _ int64) (json.RawMessage, error) {
			t.Fatal("service must not be called for a non-numeric id")
			return nil, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/get-invoice/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListInvoices(t *testing.T) {
	svc := &stubService{
		listFn: func(_ context.Context) ([]invoice.Summary, error) {
			return []invoice.Summary{
				{ID: 3, DocumentType: "INVOICE", InvoiceNo: "INV-MQ01250003", Total: decimal.RequireFromString("30")},
				{ID: 2, DocumentType: "INVOICE", InvoiceNo: "INV-MQ01250002", Total: decimal.RequireFromString("20")},
				{ID: 1, DocumentType: "INVOICE", InvoiceNo: "INV-MQ01250001", Total: decimal.RequireFromString("10")},
			}, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, float64(3), items[0]["id"])
	assert.Equal(t, float64(1), items[2]["id"])
	assert.Equal(t, "INV-MQ01250003", items[0]["invoiceNumber"])
}

func TestListInvoices_EmptyIsArray(t *testing.T) {
	svc := &stubService{
		listFn: func(_ context.Context) ([]invoice.Summary, error) {
			return nil, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestDeleteInvoice(t *testing.T) {
	deleted := []int64{}
	svc := &stubService{
		deleteFn: func(_ context.Context, id int64) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(t, router, http.MethodDelete, "/delete-invoice/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted"}`, w.Body.String())
	assert.Equal(t, []int64{5}, deleted)

	// Deleting again still reports success.
	w = doRequest(t, router, http.MethodDelete, "/delete-invoice/5", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
