package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/invoice"
	"billfold/internal/domain/money"
	"billfold/internal/domain/tag"
)

type InvoiceHandler struct {
	svc *invoice.Service
}

func NewInvoiceHandler(svc *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

type GenerateInvoiceRequest struct {
	TargetDate string `json:"targetDate"`
	DryRun     bool   `json:"dryRun,omitempty"`
}

type CreateCreditRequest struct {
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	EffectiveDate string  `json:"effectiveDate"`
	InvoiceID     *string `json:"invoiceId,omitempty"`
}

type RecordPaymentRequest struct {
	PaymentID   string `json:"paymentId"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PaymentDate string `json:"paymentDate,omitempty"`
	Success     bool   `json:"success"`
}

type apiErrorResponse struct {
	Code       string     `json:"code"`
	AccountID  *uuid.UUID `json:"accountId,omitempty"`
	InvoiceID  *uuid.UUID `json:"invoiceId,omitempty"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
}

// writeInvoiceError maps invoice domain errors to HTTP responses. Coded
// errors carry a JSON body so callers can distinguish NOTHING_TO_DO from a
// hard failure.
func writeInvoiceError(w http.ResponseWriter, err error) {
	var apiErr *invoice.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusNotFound
		if apiErr.Code == invoice.CodeNothingToDo {
			status = http.StatusUnprocessableEntity
		}

		resp := apiErrorResponse{Code: string(apiErr.Code)}
		if apiErr.AccountID != uuid.Nil {
			resp.AccountID = &apiErr.AccountID
		}
		if apiErr.InvoiceID != uuid.Nil {
			resp.InvoiceID = &apiErr.InvoiceID
		}
		if !apiErr.TargetDate.IsZero() {
			resp.TargetDate = &apiErr.TargetDate
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
		return
	}

	switch {
	case errors.Is(err, invoice.ErrNonPositiveCredit):
		http.Error(w, "Credit amount must be positive", http.StatusBadRequest)
	case errors.Is(err, invoice.ErrCreditNotFound):
		http.Error(w, "Credit not found", http.StatusNotFound)
	case errors.Is(err, tag.ErrInvoiceNotFound):
		http.Error(w, "Invoice not found", http.StatusNotFound)
	default:
		log.Printf("Invoice operation failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleAccountInvoices lists an account's invoices on GET and triggers
// invoice generation on POST.
func (h *InvoiceHandler) HandleAccountInvoices(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listInvoices(w, r, accountID)
	case http.MethodPost:
		h.generateInvoice(w, r, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *InvoiceHandler) listInvoices(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var from *time.Time
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			http.Error(w, "Invalid from date (use RFC3339)", http.StatusBadRequest)
			return
		}
		from = &parsed
	}

	invoices, err := h.svc.InvoicesByAccount(r.Context(), accountID, from)
	if err != nil {
		log.Printf("Error listing invoices for account %s: %v", accountID, err)
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoices)
}

func (h *InvoiceHandler) generateInvoice(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var req GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	targetDate := time.Now().UTC()
	if req.TargetDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.TargetDate)
		if err != nil {
			http.Error(w, "Invalid targetDate (use RFC3339)", http.StatusBadRequest)
			return
		}
		targetDate = parsed
	}

	inv, err := h.svc.TriggerInvoiceGeneration(r.Context(), accountID, targetDate, req.DryRun)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inv)
}

// HandleUnpaidInvoices returns the account's unpaid invoices up to a date.
func (h *InvoiceHandler) HandleUnpaidInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	upTo := time.Now().UTC()
	if upToStr := r.URL.Query().Get("upTo"); upToStr != "" {
		parsed, err := time.Parse(time.RFC3339, upToStr)
		if err != nil {
			http.Error(w, "Invalid upTo date (use RFC3339)", http.StatusBadRequest)
			return
		}
		upTo = parsed
	}

	invoices, err := h.svc.UnpaidInvoicesByAccount(r.Context(), accountID, upTo)
	if err != nil {
		log.Printf("Error listing unpaid invoices for account %s: %v", accountID, err)
		http.Error(w, "Failed to list unpaid invoices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoices)
}

// HandleAccountBalance returns the account's aggregate invoice balance.
func (h *InvoiceHandler) HandleAccountBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	balance, err := h.svc.AccountBalance(r.Context(), accountID)
	if err != nil {
		log.Printf("Error computing balance for account %s: %v", accountID, err)
		http.Error(w, "Failed to compute balance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"balance": balance.String()})
}

// HandleCreateCredit inserts an account credit, optionally bound to a
// specific invoice.
func (h *InvoiceHandler) HandleCreateCredit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	var req CreateCreditRequest
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

	var credit *invoice.Item
	if req.InvoiceID != nil {
		invoiceID, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
			return
		}
		credit, err = h.svc.InsertCreditForInvoice(r.Context(), accountID, invoiceID, amount, effectiveDate)
		if err != nil {
			writeInvoiceError(w, err)
			return
		}
	} else {
		credit, err = h.svc.InsertCredit(r.Context(), accountID, amount, effectiveDate)
		if err != nil {
			writeInvoiceError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(credit)
}

// HandleInvoicePayments records a payment attempt against an invoice.
// Attempts are append-only; failed attempts are recorded too.
func (h *InvoiceHandler) HandleInvoicePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invoiceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		http.Error(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}

	amount, err := money.FromString(req.Amount, req.Currency)
	if err != nil {
		http.Error(w, "Invalid amount or currency", http.StatusBadRequest)
		return
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaymentDate)
		if err != nil {
			http.Error(w, "Invalid paymentDate (use RFC3339)", http.StatusBadRequest)
			return
		}
		paymentDate = parsed
	}

	p := &invoice.Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		PaymentID:   paymentID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Success:     req.Success,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.svc.NotifyOfPaymentAttempt(r.Context(), p); err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// HandleCreditByID returns a single credit item.
func (h *InvoiceHandler) HandleCreditByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	creditID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid credit ID", http.StatusBadRequest)
		return
	}

	credit, err := h.svc.CreditByID(r.Context(), creditID)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(credit)
}

// HandleInvoiceByID returns a single invoice.
func (h *InvoiceHandler) HandleInvoiceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invoiceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	inv, err := h.svc.Invoice(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inv)
}

// HandleInvoiceHTML renders an invoice as HTML.
func (h *InvoiceHandler) HandleInvoiceHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invoiceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	html, err := h.svc.InvoiceAsHTML(r.Context(), invoiceID)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// HandleWrittenOff sets (PUT) or clears (DELETE) the written-off marker on
// an invoice. Both directions are idempotent.
func (h *InvoiceHandler) HandleWrittenOff(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		err = h.svc.TagAsWrittenOff(r.Context(), invoiceID)
	case http.MethodDelete:
		err = h.svc.TagAsNotWrittenOff(r.Context(), invoiceID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
