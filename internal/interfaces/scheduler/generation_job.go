package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"billfold/internal/domain/invoice"
)

// GenerationJob runs invoice generation for one account. A "nothing to do"
// outcome is a normal completion, not a failure.
type GenerationJob struct {
	accountID uuid.UUID
	svc       *invoice.Service
}

func NewGenerationJob(accountID uuid.UUID, svc *invoice.Service) *GenerationJob {
	return &GenerationJob{accountID: accountID, svc: svc}
}

func (j *GenerationJob) Execute(ctx context.Context) error {
	inv, err := j.svc.TriggerInvoiceGeneration(ctx, j.accountID, time.Now().UTC(), false)
	if err != nil {
		if invoice.IsCode(err, invoice.CodeNothingToDo) {
			log.Printf("No invoice due for account %s", j.accountID)
			return nil
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	log.Printf("Generated invoice %s for account %s (%d items)",
		inv.ID, j.accountID, len(inv.Items))
	return nil
}

func (j *GenerationJob) AccountID() string {
	return j.accountID.String()
}

func (j *GenerationJob) Description() string {
	return fmt.Sprintf("Invoice generation for account %s", j.accountID)
}
