package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
)

// Notifier turns budget events from the queue into log records. It is the
// consuming side of the worker.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Handle satisfies amqp.Handler.
func (n *Notifier) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case amqp.RoutingBudgetSaved:
		msg, err := amqp.BudgetSavedMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
		}
		n.logger.InfoContext(ctx, "Budget saved",
			"budget_id", msg.BudgetID, "name", msg.Name, "at", msg.Timestamp)
	case amqp.RoutingMonthlyMovements:
		msg, err := amqp.MonthlyMovementsMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
		}
		n.logger.InfoContext(ctx, "Payments due",
			"budget_id", msg.BudgetID,
			"budget_name", msg.BudgetName,
			"account", msg.Account,
			"month", msg.Month,
			"count", len(msg.Movements),
			"total", fmt.Sprintf("%.2f", msg.Total))
		for _, m := range msg.Movements {
			n.logger.DebugContext(ctx, "Payment due",
				"budget_id", msg.BudgetID, "name", m.Name, "amount", m.Amount, "method", m.PaymentMethod)
		}
	default:
		return fmt.Errorf("%w: unknown routing key %q", amqp.ErrDiscard, routingKey)
	}
	return nil
}

// LocalPublisher hands movement messages straight to a Notifier. The worker
// uses it when no broker is configured.
type LocalPublisher struct {
	notifier *Notifier
}

func NewLocalPublisher(n *Notifier) *LocalPublisher {
	return &LocalPublisher{notifier: n}
}

func (p *LocalPublisher) PublishMonthlyMovements(ctx context.Context, msg *amqp.MonthlyMovementsMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.notifier.Handle(ctx, amqp.RoutingMonthlyMovements, body)
}
