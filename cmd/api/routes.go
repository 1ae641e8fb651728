package main

import (
	"log"
	"net/http"

	httphandlers "billfold/internal/interfaces/http"
	"billfold/internal/shared/config"
	"billfold/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Invoice routes
	mux.HandleFunc("/api/accounts/{id}/invoices", deps.InvoiceHandler.HandleAccountInvoices)
	mux.HandleFunc("/api/accounts/{id}/invoices/unpaid", deps.InvoiceHandler.HandleUnpaidInvoices)
	mux.HandleFunc("/api/accounts/{id}/balance", deps.InvoiceHandler.HandleAccountBalance)
	mux.HandleFunc("/api/accounts/{id}/credits", deps.InvoiceHandler.HandleCreateCredit)
	mux.HandleFunc("/api/credits/{id}", deps.InvoiceHandler.HandleCreditByID)
	mux.HandleFunc("/api/invoices/{id}", deps.InvoiceHandler.HandleInvoiceByID)
	mux.HandleFunc("/api/invoices/{id}/html", deps.InvoiceHandler.HandleInvoiceHTML)
	mux.HandleFunc("/api/invoices/{id}/payments", deps.InvoiceHandler.HandleInvoicePayments)
	mux.HandleFunc("/api/invoices/{id}/written-off", deps.InvoiceHandler.HandleWrittenOff)

	// Payment transaction routes
	mux.HandleFunc("/api/payments/{id}/transactions", deps.TransactionHandler.HandlePaymentTransactions)
	mux.HandleFunc("/api/transactions/{id}", deps.TransactionHandler.HandleGetTransaction)
	mux.HandleFunc("/api/transactions/{id}/settlement", deps.TransactionHandler.HandleSettlement)

	// Apply global middleware
	handler := middleware.Logging(middleware.Tracing(middleware.CORS(cfg.Server.AllowedHosts)(mux)))
	handler = middleware.Telemetry(handler)

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
