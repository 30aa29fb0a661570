package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/storage"
)

type recordingPublisher struct {
	msgs []*amqp.MonthlyMovementsMessage
	err  error
}

func (p *recordingPublisher) PublishMonthlyMovements(ctx context.Context, msg *amqp.MonthlyMovementsMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func openService(t *testing.T, dir string) *services.BudgetService {
	t.Helper()
	p, err := storage.NewDirectoryPersister(dir)
	require.NoError(t, err)
	repo, err := storage.NewRepository(context.Background(), p)
	require.NoError(t, err)
	return services.NewBudgetService(repo, nil, cache.NewLRUCache[services.Projection](8, time.Minute))
}

func newService(t *testing.T) *services.BudgetService {
	t.Helper()
	return seedService(t, openService(t, t.TempDir()))
}

func seedService(t *testing.T, svc *services.BudgetService) *services.BudgetService {
	t.Helper()
	ctx := context.Background()

	withAccount := core.NewBudget("Family")
	withAccount.AddAccount(core.NewAccount("Budget", "", core.AccountBudget))
	g := core.NewEntryGroup("Bills")
	g.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Rent", PaymentSize: 6000, PaymentFee: 5, Account: "Budget"}))
	g.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Insurance", PaymentSize: 1200, PaymentPeriod: 12, FirstPaymentMonth: 3, Account: "Budget"}))
	withAccount.AddExpenseGroup(g)

	for _, b := range []*core.Budget{withAccount, core.NewBudget("Empty")} {
		info, err := svc.Create(ctx, b.Name())
		require.NoError(t, err)
		_, err = svc.Replace(ctx, info.ID, codec.ToDocument(b))
		require.NoError(t, err)
	}
	return svc
}

func TestRunOncePublishesPerBudget(t *testing.T) {
	svc := newService(t)
	pub := &recordingPublisher{}
	w := NewMovementsWorker(svc, pub, "Budget", "0 9 1 * *")
	w.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	n, err := w.RunOnce(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "budgets without the account are skipped")

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "Family", msg.BudgetName)
	assert.Equal(t, 3, msg.Month)
	require.Len(t, msg.Movements, 2)
	assert.Equal(t, "Rent", msg.Movements[0].Name)
	assert.Equal(t, 7205.0, msg.Total)

	pub.msgs = nil
	_, err = w.RunOnce(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, pub.msgs[0].Movements, 1)
}

func TestRunOnceErrors(t *testing.T) {
	svc := newService(t)
	w := NewMovementsWorker(svc, &recordingPublisher{err: errors.New("down")}, "Budget", "@monthly")

	n, err := w.RunOnce(context.Background(), 1)
	assert.Error(t, err)
	assert.Zero(t, n)

	_, err = w.RunOnce(context.Background(), 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	w := NewMovementsWorker(newService(t), &recordingPublisher{}, "Budget", "whenever")
	assert.Error(t, w.Start(context.Background()))

	ok := NewMovementsWorker(newService(t), &recordingPublisher{}, "Budget", "0 9 1 * *")
	require.NoError(t, ok.Start(context.Background()))
	ok.Stop()
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	body, err := amqp.NewBudgetSavedMessage("b1", "Family").ToJSON()
	require.NoError(t, err)
	require.NoError(t, n.Handle(ctx, amqp.RoutingBudgetSaved, body))
	assert.Contains(t, buf.String(), "budget_id=b1")

	moves := &amqp.MonthlyMovementsMessage{BudgetID: "b1", Month: 2, Total: 10}
	body, err = moves.ToJSON()
	require.NoError(t, err)
	require.NoError(t, n.Handle(ctx, amqp.RoutingMonthlyMovements, body))
	assert.Contains(t, buf.String(), "Payments due")

	assert.ErrorIs(t, n.Handle(ctx, amqp.RoutingBudgetSaved, []byte("{}")), amqp.ErrDiscard)
	assert.ErrorIs(t, n.Handle(ctx, "other", body), amqp.ErrDiscard)
}

func TestRunOnceWithLocalPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLocalPublisher(NewNotifier(slog.New(slog.NewTextHandler(&buf, nil))))
	w := NewMovementsWorker(newService(t), pub, "Budget", "0 9 1 * *")

	n, err := w.RunOnce(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "budget_name=Family")
}

func TestRunOnceSeesBudgetsWrittenElsewhere(t *testing.T) {
	dir := t.TempDir()
	svc := openService(t, dir)
	pub := &recordingPublisher{}
	w := NewMovementsWorker(svc, pub, "Budget", "0 9 1 * *")

	n, err := w.RunOnce(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the API or the CLI writing to the same directory
	seedService(t, openService(t, dir))

	n, err = w.RunOnce(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "Family", pub.msgs[0].BudgetName)
}
