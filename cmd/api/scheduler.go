package main

import (
	"context"

	"billfold/internal/interfaces/scheduler"
	"billfold/internal/shared/config"
)

// NewScheduler builds the generation scheduler: one job per billable account,
// fetched at trigger time so newly created accounts are picked up without a
// restart.
func NewScheduler(deps *Dependencies, cfg *config.Config) (*scheduler.Scheduler, error) {
	jobProvider := func(ctx context.Context) ([]scheduler.Job, error) {
		accountIDs, err := deps.InvoiceRepo.ListBillableAccounts(ctx)
		if err != nil {
			return nil, err
		}

		jobs := make([]scheduler.Job, 0, len(accountIDs))
		for _, accountID := range accountIDs {
			jobs = append(jobs, scheduler.NewGenerationJob(accountID, deps.InvoiceService))
		}
		return jobs, nil
	}

	return scheduler.New(scheduler.Config{
		ScheduleTimes: cfg.Scheduler.ScheduleTimes,
		WorkerCount:   cfg.Scheduler.WorkerCount,
		JobDelay:      cfg.Scheduler.JobDelay,
		QueueSize:     cfg.Scheduler.QueueSize,
		RunOnStartup:  cfg.Scheduler.RunOnStartup,
		JobProvider:   jobProvider,
	})
}
