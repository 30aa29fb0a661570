// Package storage keeps the set of known budgets in memory and persists them
// through a pluggable Persister.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"budget/internal/core"
)

var (
	// ErrBudgetNotFound is returned for an id the repository does not hold.
	ErrBudgetNotFound = errors.New("budget not found")
	// ErrInvalidBudgetID is returned for ids that cannot name a stored document.
	ErrInvalidBudgetID = errors.New("invalid budget id")
)

// Persister stores budget documents somewhere durable.
type Persister interface {
	// LoadAll returns every stored budget. Unreadable documents are skipped.
	LoadAll(ctx context.Context) ([]*core.Budget, error)
	// Store writes b, replacing any previous version with the same id.
	Store(ctx context.Context, b *core.Budget) error
	// Remove deletes the stored copy of id. Removing a missing id is not an error.
	Remove(ctx context.Context, id string) error
	// Location describes where id is stored. It performs no I/O.
	Location(id string) string
	Close() error
}

// Repository is the id to Budget map backing every surface. It is not safe
// for concurrent use; callers serialise access.
type Repository struct {
	persister Persister
	budgets   map[string]*core.Budget
}

// NewRepository loads every budget from p.
func NewRepository(ctx context.Context, p Persister) (*Repository, error) {
	r := &Repository{persister: p}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload replaces the in-memory budgets with what the persister holds now,
// picking up changes written by other processes. Budgets forgotten with
// DeleteBudget but still persisted come back.
func (r *Repository) Reload(ctx context.Context) error {
	loaded, err := r.persister.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}

	budgets := make(map[string]*core.Budget, len(loaded))
	for _, b := range loaded {
		if _, dup := budgets[b.ID()]; dup {
			slog.WarnContext(ctx, "Duplicate budget id, keeping the first",
				"budget_id", b.ID(), "name", b.Name())
			continue
		}
		budgets[b.ID()] = b
	}
	r.budgets = budgets

	slog.InfoContext(ctx, "Budgets loaded", "count", len(r.budgets))
	return nil
}

// Budgets returns every budget ordered by name, then id.
func (r *Repository) Budgets() []*core.Budget {
	out := make([]*core.Budget, 0, len(r.budgets))
	for _, b := range r.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// GetBudget returns the budget with id or ErrBudgetNotFound.
func (r *Repository) GetBudget(id string) (*core.Budget, error) {
	b, ok := r.budgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	return b, nil
}

// SaveBudget persists b and makes it known to the repository.
func (r *Repository) SaveBudget(ctx context.Context, b *core.Budget) error {
	if err := r.persister.Store(ctx, b); err != nil {
		return fmt.Errorf("save budget %s: %w", b.ID(), err)
	}
	r.budgets[b.ID()] = b
	return nil
}

// CreateBudget creates an empty budget and persists it immediately.
func (r *Repository) CreateBudget(ctx context.Context, name string) (*core.Budget, error) {
	b := core.NewBudget(name)
	if err := r.SaveBudget(ctx, b); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Budget created", "budget_id", b.ID(), "name", name)
	return b, nil
}

// CopyBudget deep-clones id under a new id and name and persists the copy.
// Child ids are preserved.
func (r *Repository) CopyBudget(ctx context.Context, id, newName string) (*core.Budget, error) {
	src, err := r.GetBudget(id)
	if err != nil {
		return nil, err
	}
	c := src.Clone(newName)
	if err := r.SaveBudget(ctx, c); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Budget copied", "source_id", id, "budget_id", c.ID(), "name", newName)
	return c, nil
}

// DeleteBudget forgets id. The persisted copy is left in place; see
// PurgeBudget.
func (r *Repository) DeleteBudget(id string) error {
	if _, ok := r.budgets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	delete(r.budgets, id)
	return nil
}

// PurgeBudget forgets id and removes its persisted copy.
func (r *Repository) PurgeBudget(ctx context.Context, id string) error {
	if err := r.DeleteBudget(id); err != nil {
		return err
	}
	if err := r.persister.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove budget %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Budget purged", "budget_id", id)
	return nil
}

// GetBudgetPath returns where id is, or would be, stored.
func (r *Repository) GetBudgetPath(id string) string {
	return r.persister.Location(id)
}

func (r *Repository) Close() error {
	if r.persister != nil {
		return r.persister.Close()
	}
	return nil
}
