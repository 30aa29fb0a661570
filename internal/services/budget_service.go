package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budget/internal/cache"
	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/storage"
)

// EventPublisher announces persisted budgets to other processes.
type EventPublisher interface {
	PublishBudgetSaved(ctx context.Context, id, name string) error
	Close() error
}

// BudgetInfo is the list view of a budget.
type BudgetInfo struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	TotalMonthly       float64 `json:"total_monthly"`
	TotalMonthlyIncome float64 `json:"total_monthly_income"`
}

// BudgetService orchestrates budget operations across the repository, the
// projection cache and the event publisher. All access to budgets goes
// through its lock.
type BudgetService struct {
	mu          sync.Mutex
	repo        *storage.Repository
	publisher   EventPublisher
	projections cache.Cache[Projection]
	watched     map[*core.Budget]bool
}

// NewBudgetService wires the service. publisher and projections may be nil.
func NewBudgetService(repo *storage.Repository, publisher EventPublisher, projections cache.Cache[Projection]) *BudgetService {
	return &BudgetService{
		repo:        repo,
		publisher:   publisher,
		projections: projections,
		watched:     make(map[*core.Budget]bool),
	}
}

func (s *BudgetService) List(ctx context.Context) []BudgetInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	budgets := s.repo.Budgets()
	out := make([]BudgetInfo, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetInfo{
			ID:                 b.ID(),
			Name:               b.Name(),
			TotalMonthly:       b.TotalMonthly(),
			TotalMonthlyIncome: b.TotalMonthlyIncome(),
		})
	}
	return out
}

// Document returns a snapshot of the budget's persisted form.
func (s *BudgetService) Document(ctx context.Context, id string) (codec.Document, error) {
	var d codec.Document
	err := s.View(ctx, id, func(b *core.Budget) error {
		d = codec.ToDocument(b)
		return nil
	})
	return d, err
}

// View runs fn with the budget while holding the lock. fn must not keep b.
func (s *BudgetService) View(ctx context.Context, id string, fn func(b *core.Budget) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.budget(id)
	if err != nil {
		return err
	}
	return fn(b)
}

func (s *BudgetService) Create(ctx context.Context, name string) (BudgetInfo, error) {
	if name == "" {
		return BudgetInfo{}, core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.repo.CreateBudget(ctx, name)
	if err != nil {
		return BudgetInfo{}, fmt.Errorf("create budget: %w", err)
	}
	s.watch(b)
	s.publishSaved(ctx, b)
	return BudgetInfo{ID: b.ID(), Name: b.Name()}, nil
}

func (s *BudgetService) Copy(ctx context.Context, id, name string) (BudgetInfo, error) {
	if name == "" {
		return BudgetInfo{}, core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.CopyBudget(ctx, id, name)
	if err != nil {
		return BudgetInfo{}, fmt.Errorf("copy budget: %w", err)
	}
	s.watch(c)
	s.publishSaved(ctx, c)
	return BudgetInfo{
		ID:                 c.ID(),
		Name:               c.Name(),
		TotalMonthly:       c.TotalMonthly(),
		TotalMonthlyIncome: c.TotalMonthlyIncome(),
	}, nil
}

// Delete forgets the budget. With purge the persisted copy is removed too.
func (s *BudgetService) Delete(ctx context.Context, id string, purge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.repo.GetBudget(id)
	if err != nil {
		return err
	}
	if purge {
		err = s.repo.PurgeBudget(ctx, id)
	} else {
		err = s.repo.DeleteBudget(id)
	}
	if err != nil {
		return err
	}
	delete(s.watched, b)
	s.invalidate(id)
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id, "purge", purge)
	return nil
}

// Save persists the in-memory state of the budget and announces it.
func (s *BudgetService) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.budget(id)
	if err != nil {
		return err
	}
	return s.save(ctx, b)
}

// Update applies fn under the lock and saves the budget when fn succeeds.
func (s *BudgetService) Update(ctx context.Context, id string, fn func(b *core.Budget) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.budget(id)
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	// account edits do not cascade to the budget
	s.invalidate(id)
	return s.save(ctx, b)
}

// Replace swaps the budget for the one described by d, keeping id.
func (s *BudgetService) Replace(ctx context.Context, id string, d codec.Document) (BudgetInfo, error) {
	if d.Name == "" {
		return BudgetInfo{}, core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.repo.GetBudget(id)
	if err != nil {
		return BudgetInfo{}, err
	}
	d.ID = id
	b := codec.FromDocument(d)
	delete(s.watched, old)
	s.invalidate(id)
	if err := s.save(ctx, b); err != nil {
		return BudgetInfo{}, err
	}
	return BudgetInfo{
		ID:                 b.ID(),
		Name:               b.Name(),
		TotalMonthly:       b.TotalMonthly(),
		TotalMonthlyIncome: b.TotalMonthlyIncome(),
	}, nil
}

// Import stores d as a new budget under a fresh id, saving and announcing it
// once.
func (s *BudgetService) Import(ctx context.Context, d codec.Document) (BudgetInfo, error) {
	if d.Name == "" {
		return BudgetInfo{}, core.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = core.NewID()
	b := codec.FromDocument(d)
	if err := s.save(ctx, b); err != nil {
		return BudgetInfo{}, fmt.Errorf("import budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget imported", "budget_id", b.ID(), "name", b.Name())
	return BudgetInfo{
		ID:                 b.ID(),
		Name:               b.Name(),
		TotalMonthly:       b.TotalMonthly(),
		TotalMonthlyIncome: b.TotalMonthlyIncome(),
	}, nil
}

// Reload rereads every budget from storage so changes made by other
// processes become visible. Cached projections are dropped.
func (s *BudgetService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Reload(ctx); err != nil {
		return err
	}
	s.watched = make(map[*core.Budget]bool)
	if s.projections != nil {
		s.projections.DeletePrefix("")
	}
	return nil
}

// UpdateEntry sets fields on one entry. Either every field is applied or,
// on the first conversion error, none is.
func (s *BudgetService) UpdateEntry(ctx context.Context, id, entryID string, fields map[string]any) (core.EntryAttrs, error) {
	var attrs core.EntryAttrs
	err := s.Update(ctx, id, func(b *core.Budget) error {
		e, ok := b.Entry(entryID)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrEntryNotFound, entryID)
		}

		scratch := core.NewEntry(e.Attrs())
		for field, value := range fields {
			if err := scratch.Set(field, value); err != nil {
				return err
			}
		}
		for field, value := range fields {
			if err := e.Set(field, value); err != nil {
				return err
			}
		}
		if err := e.Validate(); err != nil {
			slog.WarnContext(ctx, "Entry saved with irregular payment period",
				"budget_id", id, "entry_id", entryID, "error", err)
		}
		attrs = e.Attrs()
		return nil
	})
	return attrs, err
}

func (s *BudgetService) Balances(ctx context.Context, id string) (Balances, error) {
	var bal Balances
	err := s.View(ctx, id, func(b *core.Budget) error {
		bal = CalculateBalances(b)
		return nil
	})
	return bal, err
}

func (s *BudgetService) Summaries(ctx context.Context, id string) ([]AccountSummary, error) {
	var sums []AccountSummary
	err := s.View(ctx, id, func(b *core.Budget) error {
		sums = AccountSummaries(b)
		return nil
	})
	return sums, err
}

// Projection returns the saldo projection of account, served from cache
// until the budget changes.
func (s *BudgetService) Projection(ctx context.Context, id, account string) (Projection, error) {
	key := projectionKey(id, account)
	if s.projections != nil {
		if p, ok := s.projections.Get(key); ok {
			return p, nil
		}
	}

	var p Projection
	err := s.View(ctx, id, func(b *core.Budget) error {
		var err error
		if p, err = ProjectAccount(b, account); err != nil {
			return err
		}
		// edits invalidate under the same lock
		if s.projections != nil {
			s.projections.Set(key, p)
		}
		return nil
	})
	if err != nil {
		return Projection{}, err
	}
	return p, nil
}

// Movements returns the payments charged to account per month.
func (s *BudgetService) Movements(ctx context.Context, id, account string, months []int) (map[int][]core.EntryAttrs, error) {
	out := map[int][]core.EntryAttrs{}
	err := s.View(ctx, id, func(b *core.Budget) error {
		if !b.HasAccountName(account) {
			return fmt.Errorf("%w: %q", core.ErrAccountNotFound, account)
		}
		for month, entries := range MonthlyMovements(b, account, months) {
			for _, e := range entries {
				out[month] = append(out[month], e.Attrs())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// budget looks up id and makes sure cached projections follow its changes.
func (s *BudgetService) budget(id string) (*core.Budget, error) {
	b, err := s.repo.GetBudget(id)
	if err != nil {
		return nil, err
	}
	s.watch(b)
	return b, nil
}

func (s *BudgetService) watch(b *core.Budget) {
	if s.watched[b] {
		return
	}
	s.watched[b] = true
	id := b.ID()
	b.RegisterOnUpdate(func(core.Event) { s.invalidate(id) })
}

func (s *BudgetService) invalidate(id string) {
	if s.projections == nil {
		return
	}
	if n := s.projections.DeletePrefix(id + "/"); n > 0 {
		slog.Debug("Projections invalidated", "budget_id", id, "count", n)
	}
}

func (s *BudgetService) save(ctx context.Context, b *core.Budget) error {
	if err := s.repo.SaveBudget(ctx, b); err != nil {
		return err
	}
	s.watch(b)
	s.publishSaved(ctx, b)
	return nil
}

func (s *BudgetService) publishSaved(ctx context.Context, b *core.Budget) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping budget saved message")
		return
	}
	if err := s.publisher.PublishBudgetSaved(ctx, b.ID(), b.Name()); err != nil {
		// the budget is persisted; consumers catch up on the next save
		slog.ErrorContext(ctx, "Failed to publish budget saved message",
			"budget_id", b.ID(), "error", err)
	}
}

func projectionKey(id, account string) string {
	return id + "/" + account
}

// Close releases the repository and the publisher.
func (s *BudgetService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %w", errors.Join(errs...))
	}
	return nil
}
