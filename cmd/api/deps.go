package main

import (
	"log"

	"billfold/internal/domain/invoice"
	"billfold/internal/infrastructure/postgres"
	httphandlers "billfold/internal/interfaces/http"
	"billfold/internal/render"
	"billfold/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	InvoiceHandler     *httphandlers.InvoiceHandler
	TransactionHandler *httphandlers.TransactionHandler

	// Invoice facade (for scheduler jobs)
	InvoiceService *invoice.Service

	// Repositories (for scheduler job provider)
	InvoiceRepo *postgres.InvoiceRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	transactionRepo := postgres.NewPaymentTransactionRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	accountDirectory := postgres.NewAccountRepository(db)
	tagService := postgres.NewTagRepository(db)

	// Initialize invoice generation
	chargeSource := postgres.NewSubscriptionChargeSource(db)
	dispatcher := invoice.NewGenerationDispatcher(invoiceRepo, chargeSource)

	renderer := render.NewHTMLRenderer()
	invoiceService := invoice.NewService(invoiceRepo, dispatcher, accountDirectory, renderer, tagService)

	// Initialize handlers
	invoiceHandler := httphandlers.NewInvoiceHandler(invoiceService)
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo)

	return &Dependencies{
		DB:                 db,
		InvoiceHandler:     invoiceHandler,
		TransactionHandler: transactionHandler,
		InvoiceService:     invoiceService,
		InvoiceRepo:        invoiceRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
