package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/cache"
	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/storage"
)

type fakePublisher struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (p *fakePublisher) PublishBudgetSaved(ctx context.Context, id, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, id)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func newTestService(t *testing.T, pub EventPublisher) (*BudgetService, *cache.LRUCache[Projection]) {
	t.Helper()
	ctx := context.Background()
	persister, err := storage.NewDirectoryPersister(t.TempDir())
	require.NoError(t, err)
	repo, err := storage.NewRepository(ctx, persister)
	require.NoError(t, err)

	projections := cache.NewLRUCache[Projection](16, time.Minute)
	svc := NewBudgetService(repo, pub, projections)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, projections
}

func createReconciled(t *testing.T, svc *BudgetService) string {
	t.Helper()
	ctx := context.Background()
	info, err := svc.Create(ctx, "Family")
	require.NoError(t, err)
	d := codec.ToDocument(reconciliationBudget())
	d.Name = "Family"
	_, err = svc.Replace(ctx, info.ID, d)
	require.NoError(t, err)
	return info.ID
}

func TestBudgetServiceCreatePublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)
	ctx := context.Background()

	info, err := svc.Create(ctx, "Family")
	require.NoError(t, err)
	assert.Equal(t, []string{info.ID}, pub.saved)

	_, err = svc.Create(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	list := svc.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Family", list[0].Name)
}

func TestBudgetServicePublishFailureIsNotReturned(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, pub)

	_, err := svc.Create(context.Background(), "Family")
	assert.NoError(t, err)
}

func TestBudgetServiceNilPublisher(t *testing.T) {
	svc, _ := newTestService(t, nil)
	id := createReconciled(t, svc)
	assert.NoError(t, svc.Save(context.Background(), id))
}

func TestBudgetServiceBalances(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	bal, err := svc.Balances(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": -200, "B": 200}, bal.Transfers)

	sums, err := svc.Summaries(ctx, id)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, 400.0, sums[0].After)

	_, err = svc.Balances(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrBudgetNotFound)
}

func TestBudgetServiceProjectionCache(t *testing.T) {
	svc, projections := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	first, err := svc.Projection(ctx, id, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, projections.Size())

	_, err = svc.Projection(ctx, id, "A")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), projections.Stats().Hits)

	// any edit in the budget drops its cached projections
	var entryID string
	require.NoError(t, svc.View(ctx, id, func(b *core.Budget) error {
		entryID = b.AllExpenses()[0].ID()
		return nil
	}))
	_, err = svc.UpdateEntry(ctx, id, entryID, map[string]any{core.FieldPaymentSize: "500"})
	require.NoError(t, err)
	assert.Equal(t, 0, projections.Size())

	second, err := svc.Projection(ctx, id, "A")
	require.NoError(t, err)
	assert.Equal(t, first.Expenses[0]+100, second.Expenses[0])

	_, err = svc.Projection(ctx, id, "Nowhere")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestBudgetServiceUpdateEntryIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	var entryID string
	require.NoError(t, svc.View(ctx, id, func(b *core.Budget) error {
		entryID = b.AllExpenses()[0].ID()
		return nil
	}))

	_, err := svc.UpdateEntry(ctx, id, entryID, map[string]any{
		core.FieldName:          "Food",
		core.FieldPaymentPeriod: "often",
	})
	assert.ErrorIs(t, err, core.ErrInvalidField)

	d, err := svc.Document(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", d.Expenses[0].Entries[0].Name)

	attrs, err := svc.UpdateEntry(ctx, id, entryID, map[string]any{core.FieldName: "Food"})
	require.NoError(t, err)
	assert.Equal(t, "Food", attrs.Name)

	_, err = svc.UpdateEntry(ctx, id, "nope", map[string]any{core.FieldName: "x"})
	assert.ErrorIs(t, err, core.ErrEntryNotFound)
}

func TestBudgetServiceCopyAndDelete(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	cp, err := svc.Copy(ctx, id, "Family 2025")
	require.NoError(t, err)
	assert.NotEqual(t, id, cp.ID)
	assert.Equal(t, 400.0, cp.TotalMonthly)

	require.NoError(t, svc.Delete(ctx, cp.ID, true))
	assert.ErrorIs(t, svc.Delete(ctx, cp.ID, false), storage.ErrBudgetNotFound)
	assert.Len(t, svc.List(ctx), 1)
}

func TestBudgetServiceMovements(t *testing.T) {
	svc, _ := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	moves, err := svc.Movements(ctx, id, "A", []int{6})
	require.NoError(t, err)
	require.Len(t, moves[6], 1)
	assert.Equal(t, "Groceries", moves[6][0].Name)

	_, err = svc.Movements(ctx, id, "Z", nil)
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestBudgetServiceUpdateDropsProjectionsOnAccountEdit(t *testing.T) {
	svc, projections := newTestService(t, &fakePublisher{})
	ctx := context.Background()
	id := createReconciled(t, svc)

	_, err := svc.Projection(ctx, id, "A")
	require.NoError(t, err)
	require.Equal(t, 1, projections.Size())

	require.NoError(t, svc.Update(ctx, id, func(b *core.Budget) error {
		acc, ok := b.AccountByName("A")
		require.True(t, ok)
		acc.SetName("Main")
		return nil
	}))
	assert.Equal(t, 0, projections.Size())

	_, err = svc.Projection(ctx, id, "A")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestBudgetServiceImportSavesOnce(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)
	ctx := context.Background()

	d := codec.ToDocument(reconciliationBudget())
	d.Name = "Imported"
	info, err := svc.Import(ctx, d)
	require.NoError(t, err)

	assert.NotEqual(t, d.ID, info.ID)
	assert.Equal(t, 400.0, info.TotalMonthly)
	assert.Equal(t, []string{info.ID}, pub.saved)

	_, err = svc.Import(ctx, codec.Document{})
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestBudgetServiceReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := func() *BudgetService {
		p, err := storage.NewDirectoryPersister(dir)
		require.NoError(t, err)
		repo, err := storage.NewRepository(ctx, p)
		require.NoError(t, err)
		return NewBudgetService(repo, nil, cache.NewLRUCache[Projection](16, time.Minute))
	}
	reader, writer := open(), open()

	info, err := writer.Create(ctx, "Family")
	require.NoError(t, err)
	assert.Empty(t, reader.List(ctx))

	require.NoError(t, reader.Reload(ctx))
	require.Len(t, reader.List(ctx), 1)

	// edits made after the reload are picked up by the next one
	d := codec.ToDocument(reconciliationBudget())
	d.Name = "Family"
	_, err = writer.Replace(ctx, info.ID, d)
	require.NoError(t, err)
	require.NoError(t, reader.Reload(ctx))

	got, err := reader.Projection(ctx, info.ID, "A")
	require.NoError(t, err)
	want, err := writer.Projection(ctx, info.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
