package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billfold/internal/domain/money"
	"billfold/internal/domain/payment"
)

// MockStore implements payment.Store for testing
type MockStore struct {
	CreateFunc           func(ctx context.Context, params payment.CreateParams) (*payment.Transaction, error)
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*payment.Transaction, error)
	ListByPaymentFunc    func(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error)
	UpdateSettlementFunc func(ctx context.Context, id uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error)
}

func (m *MockStore) Create(ctx context.Context, params payment.CreateParams) (*payment.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, payment.ErrNotFound
}

func (m *MockStore) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*payment.Transaction, error) {
	if m.ListByPaymentFunc != nil {
		return m.ListByPaymentFunc(ctx, paymentID)
	}
	return []*payment.Transaction{}, nil
}

func (m *MockStore) UpdateSettlement(ctx context.Context, id uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error) {
	if m.UpdateSettlementFunc != nil {
		return m.UpdateSettlementFunc(ctx, id, update)
	}
	return nil, payment.ErrNotFound
}

func sampleTransaction(paymentID uuid.UUID) *payment.Transaction {
	return &payment.Transaction{
		ID:            uuid.New(),
		ExternalKey:   "ext-1",
		PaymentID:     paymentID,
		Type:          payment.TypePurchase,
		EffectiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:        payment.StatusPending,
		Amount:        money.New(decimal.RequireFromString("49.90"), "USD"),
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleCreateTransaction(t *testing.T) {
	paymentID := uuid.New()

	tests := []struct {
		name           string
		body           CreateTransactionRequest
		store          *MockStore
		expectedStatus int
	}{
		{
			name: "Created",
			body: CreateTransactionRequest{Type: "PURCHASE", Amount: "49.90", Currency: "usd"},
			store: &MockStore{
				CreateFunc: func(ctx context.Context, params payment.CreateParams) (*payment.Transaction, error) {
					if params.PaymentID != paymentID {
						t.Errorf("expected payment id %s, got %s", paymentID, params.PaymentID)
					}
					if params.Amount.Currency != "USD" {
						t.Errorf("expected currency normalized to USD, got %s", params.Amount.Currency)
					}
					return sampleTransaction(paymentID), nil
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "InvalidType",
			body:           CreateTransactionRequest{Type: "SETTLE", Amount: "10.00", Currency: "USD"},
			store:          &MockStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "InvalidAmount",
			body:           CreateTransactionRequest{Type: "PURCHASE", Amount: "ten", Currency: "USD"},
			store:          &MockStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "DuplicateExternalKey",
			body: CreateTransactionRequest{Type: "PURCHASE", Amount: "10.00", Currency: "USD", ExternalKey: "ext-1"},
			store: &MockStore{
				CreateFunc: func(ctx context.Context, params payment.CreateParams) (*payment.Transaction, error) {
					return nil, payment.ErrDuplicateKey
				},
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(tt.store)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/payments/"+paymentID.String()+"/transactions", bytes.NewReader(body))
			req.SetPathValue("id", paymentID.String())
			rec := httptest.NewRecorder()

			handler.HandlePaymentTransactions(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleListTransactions(t *testing.T) {
	paymentID := uuid.New()
	store := &MockStore{
		ListByPaymentFunc: func(ctx context.Context, id uuid.UUID) ([]*payment.Transaction, error) {
			return []*payment.Transaction{sampleTransaction(id)}, nil
		},
	}
	handler := NewTransactionHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/"+paymentID.String()+"/transactions", nil)
	req.SetPathValue("id", paymentID.String())
	rec := httptest.NewRecorder()

	handler.HandlePaymentTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var listed []*payment.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(listed))
	}
	if listed[0].Amount.Amount.String() != "49.9" && listed[0].Amount.Amount.String() != "49.90" {
		t.Errorf("unexpected amount: %s", listed[0].Amount.Amount)
	}
}

func TestHandleGetTransactionNotFound(t *testing.T) {
	handler := NewTransactionHandler(&MockStore{})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.HandleGetTransaction(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleSettlement(t *testing.T) {
	id := uuid.New()
	marker := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	amount := "49.90"
	currency := "USD"
	gatewayCode := "card_declined"

	tests := []struct {
		name           string
		body           SettlementRequest
		store          *MockStore
		expectedStatus int
	}{
		{
			name: "Success",
			body: SettlementRequest{
				Status:            "SUCCESS",
				ProcessedAmount:   &amount,
				ProcessedCurrency: &currency,
				ExpectedUpdatedAt: marker.Format(time.RFC3339Nano),
			},
			store: &MockStore{
				UpdateSettlementFunc: func(ctx context.Context, txID uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error) {
					if !update.ExpectedUpdatedAt.Equal(marker) {
						t.Errorf("expected marker %v, got %v", marker, update.ExpectedUpdatedAt)
					}
					tx := sampleTransaction(uuid.New())
					tx.Status = payment.StatusSuccess
					return tx, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "SuccessWithoutProcessedAmount",
			body: SettlementRequest{
				Status:            "SUCCESS",
				ExpectedUpdatedAt: marker.Format(time.RFC3339Nano),
			},
			store:          &MockStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "ProcessedAmountWithoutCurrency",
			body: SettlementRequest{
				Status:            "SUCCESS",
				ProcessedAmount:   &amount,
				ExpectedUpdatedAt: marker.Format(time.RFC3339Nano),
			},
			store:          &MockStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "ConcurrentModification",
			body: SettlementRequest{
				Status:            "FAILED",
				GatewayErrorCode:  &gatewayCode,
				ExpectedUpdatedAt: marker.Format(time.RFC3339Nano),
			},
			store: &MockStore{
				UpdateSettlementFunc: func(ctx context.Context, txID uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error) {
					return nil, payment.ErrConcurrentModification
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "InvalidTransition",
			body: SettlementRequest{
				Status:            "PENDING",
				ExpectedUpdatedAt: marker.Format(time.RFC3339Nano),
			},
			store: &MockStore{
				UpdateSettlementFunc: func(ctx context.Context, txID uuid.UUID, update payment.SettlementUpdate) (*payment.Transaction, error) {
					return nil, payment.ErrInvalidTransition
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(tt.store)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPut, "/api/transactions/"+id.String()+"/settlement", bytes.NewReader(body))
			req.SetPathValue("id", id.String())
			rec := httptest.NewRecorder()

			handler.HandleSettlement(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
