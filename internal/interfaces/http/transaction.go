package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/money"
	"billfold/internal/domain/payment"
)

type TransactionHandler struct {
	store payment.Store
}

func NewTransactionHandler(store payment.Store) *TransactionHandler {
	return &TransactionHandler{store: store}
}

type CreateTransactionRequest struct {
	ExternalKey   string `json:"externalKey,omitempty"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	EffectiveDate string `json:"effectiveDate,omitempty"`
}

type SettlementRequest struct {
	Status            string  `json:"status"`
	ProcessedAmount   *string `json:"processedAmount,omitempty"`
	ProcessedCurrency *string `json:"processedCurrency,omitempty"`
	GatewayErrorCode  *string `json:"gatewayErrorCode,omitempty"`
	GatewayErrorMsg   *string `json:"gatewayErrorMsg,omitempty"`
	ExpectedUpdatedAt string  `json:"expectedUpdatedAt"`
}

// writeTransactionError maps payment store errors to HTTP responses.
func writeTransactionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		http.Error(w, "Transaction not found", http.StatusNotFound)
	case errors.Is(err, payment.ErrDuplicateKey):
		http.Error(w, "External key already in use", http.StatusConflict)
	case errors.Is(err, payment.ErrConcurrentModification):
		http.Error(w, "Transaction was modified concurrently", http.StatusConflict)
	case errors.Is(err, payment.ErrInvalidTransition):
		http.Error(w, "Invalid status transition", http.StatusUnprocessableEntity)
	default:
		log.Printf("Transaction operation failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandlePaymentTransactions creates a transaction attempt on POST and lists
// a payment's attempts on GET.
func (h *TransactionHandler) HandlePaymentTransactions(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listTransactions(w, r, paymentID)
	case http.MethodPost:
		h.createTransaction(w, r, paymentID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) listTransactions(w http.ResponseWriter, r *http.Request, paymentID uuid.UUID) {
	transactions, err := h.store.ListByPayment(r.Context(), paymentID)
	if err != nil {
		log.Printf("Error listing transactions for payment %s: %v", paymentID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

func (h *TransactionHandler) createTransaction(w http.ResponseWriter, r *http.Request, paymentID uuid.UUID) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := money.FromString(req.Amount, req.Currency)
	if err != nil {
		http.Error(w, "Invalid amount or currency", http.StatusBadRequest)
		return
	}

	effectiveDate := time.Now().UTC()
	if req.EffectiveDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.EffectiveDate)
		if err != nil {
			http.Error(w, "Invalid effectiveDate (use RFC3339)", http.StatusBadRequest)
			return
		}
		effectiveDate = parsed
	}

	params := payment.CreateParams{
		ExternalKey:   req.ExternalKey,
		PaymentID:     paymentID,
		Type:          payment.TransactionType(req.Type),
		EffectiveDate: effectiveDate,
		Amount:        amount,
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.store.Create(r.Context(), params)
	if err != nil {
		writeTransactionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleGetTransaction returns a single transaction attempt.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	tx, err := h.store.GetByID(r.Context(), transactionID)
	if err != nil {
		writeTransactionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// HandleSettlement applies a gateway settlement outcome to a transaction.
func (h *TransactionHandler) HandleSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	var req SettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expectedUpdatedAt, err := time.Parse(time.RFC3339Nano, req.ExpectedUpdatedAt)
	if err != nil {
		http.Error(w, "Invalid expectedUpdatedAt (use RFC3339)", http.StatusBadRequest)
		return
	}

	var processed *money.Money
	if req.ProcessedAmount != nil || req.ProcessedCurrency != nil {
		if req.ProcessedAmount == nil || req.ProcessedCurrency == nil {
			http.Error(w, "processedAmount and processedCurrency must be set together", http.StatusBadRequest)
			return
		}
		m, err := money.FromString(*req.ProcessedAmount, *req.ProcessedCurrency)
		if err != nil {
			http.Error(w, "Invalid processed amount or currency", http.StatusBadRequest)
			return
		}
		processed = &m
	}

	update := payment.SettlementUpdate{
		Status:            payment.TransactionStatus(req.Status),
		Processed:         processed,
		GatewayErrorCode:  req.GatewayErrorCode,
		GatewayErrorMsg:   req.GatewayErrorMsg,
		ExpectedUpdatedAt: expectedUpdatedAt,
	}
	if err := update.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.store.UpdateSettlement(r.Context(), transactionID, update)
	if err != nil {
		writeTransactionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}
