// Package worker runs the scheduled jobs of the budget worker process.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/services"
)

// MovementsPublisher delivers monthly movement summaries.
type MovementsPublisher interface {
	PublishMonthlyMovements(ctx context.Context, msg *amqp.MonthlyMovementsMessage) error
}

// MovementsWorker publishes, for every budget, the payments leaving one
// account in the current month.
type MovementsWorker struct {
	svc       *services.BudgetService
	publisher MovementsPublisher
	account   string
	schedule  string
	now       func() time.Time
	cron      *cron.Cron
}

func NewMovementsWorker(svc *services.BudgetService, publisher MovementsPublisher, account, schedule string) *MovementsWorker {
	return &MovementsWorker{
		svc:       svc,
		publisher: publisher,
		account:   account,
		schedule:  schedule,
		now:       time.Now,
	}
}

// RunOnce publishes the movements of month for every budget holding the
// account. Budgets without the account are skipped. It returns how many
// messages were published.
func (w *MovementsWorker) RunOnce(ctx context.Context, month int) (int, error) {
	if month < 1 || month > core.MonthsPerCycle {
		return 0, fmt.Errorf("%w: month %d", core.ErrInvalidMonth, month)
	}

	// budgets may have been edited by the API or the CLI since the last run
	if err := w.svc.Reload(ctx); err != nil {
		return 0, fmt.Errorf("reload budgets: %w", err)
	}

	var errs []error
	published := 0
	for _, info := range w.svc.List(ctx) {
		moves, err := w.svc.Movements(ctx, info.ID, w.account, []int{month})
		if errors.Is(err, core.ErrAccountNotFound) {
			slog.DebugContext(ctx, "Budget has no movements account, skipping",
				"budget_id", info.ID, "account", w.account)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("budget %s: %w", info.ID, err))
			continue
		}

		msg := buildMessage(info, w.account, month, moves[month], w.now())
		if err := w.publisher.PublishMonthlyMovements(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish monthly movements",
				"budget_id", info.ID, "month", month, "error", err)
			errs = append(errs, fmt.Errorf("publish budget %s: %w", info.ID, err))
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Monthly movements run finished",
		"month", month, "account", w.account, "published", published, "failed", len(errs))
	return published, errors.Join(errs...)
}

func buildMessage(info services.BudgetInfo, account string, month int, entries []core.EntryAttrs, now time.Time) *amqp.MonthlyMovementsMessage {
	msg := &amqp.MonthlyMovementsMessage{
		BudgetID:   info.ID,
		BudgetName: info.Name,
		Account:    account,
		Month:      month,
		Movements:  make([]amqp.Movement, 0, len(entries)),
		Timestamp:  now,
	}
	for _, e := range entries {
		msg.Movements = append(msg.Movements, amqp.Movement{
			EntryID:       e.ID,
			Name:          e.Name,
			Amount:        e.PaymentSize,
			Fee:           e.PaymentFee,
			PaymentMethod: e.PaymentMethod,
			Period:        e.PaymentPeriod,
		})
		msg.Total += e.PaymentSize + e.PaymentFee
	}
	return msg
}

// Start runs RunOnce for the current month on the cron schedule until Stop.
func (w *MovementsWorker) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		month := int(w.now().Month())
		slog.InfoContext(ctx, "Executing monthly movements job", "month", month)
		if _, err := w.RunOnce(ctx, month); err != nil {
			slog.ErrorContext(ctx, "Monthly movements job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", w.schedule, err)
	}

	w.cron = c
	c.Start()
	slog.InfoContext(ctx, "Movements worker scheduled", "schedule", w.schedule, "account", w.account)
	return nil
}

// Stop prevents new runs and waits for a running one to finish.
func (w *MovementsWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
