package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"budget/internal/codec"
	"budget/internal/core"
)

const documentExt = ".json"

// DirectoryPersister stores one {id}.json document per budget in a directory.
type DirectoryPersister struct {
	dir string
}

// NewDirectoryPersister creates dir if needed.
func NewDirectoryPersister(dir string) (*DirectoryPersister, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create budget directory: %w", err)
	}
	return &DirectoryPersister{dir: dir}, nil
}

func (p *DirectoryPersister) Dir() string { return p.dir }

func (p *DirectoryPersister) LoadAll(ctx context.Context) ([]*core.Budget, error) {
	paths, err := filepath.Glob(filepath.Join(p.dir, "*"+documentExt))
	if err != nil {
		return nil, fmt.Errorf("list budget files: %w", err)
	}

	results := make([]*core.Budget, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := loadDocument(ctx, path)
			if err != nil {
				slog.WarnContext(ctx, "Skipping unreadable budget file", "path", path, "error", err)
				return nil
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.Budget, 0, len(results))
	for _, b := range results {
		if b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// loadDocument decodes the file at path. The file name is the budget id:
// documents written before budgets carried an id, or whose id disagrees with
// their file name, take the file stem.
func loadDocument(ctx context.Context, path string) (*core.Budget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(path), documentExt)
	if d.ID != stem {
		if d.ID != "" {
			slog.WarnContext(ctx, "Budget id differs from file name, using the file name",
				"path", path, "document_id", d.ID)
		}
		d.ID = stem
	}
	return codec.FromDocument(d), nil
}

// checkID rejects ids that would resolve outside the budget directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return fmt.Errorf("%w: %q", ErrInvalidBudgetID, id)
	}
	return nil
}

// Store writes the document to a temporary file and renames it over the
// previous version.
func (p *DirectoryPersister) Store(ctx context.Context, b *core.Budget) error {
	if err := checkID(b.ID()); err != nil {
		return err
	}
	data, err := codec.Marshal(b)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(p.dir, ".budget-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Location(b.ID())); err != nil {
		return fmt.Errorf("replace budget file: %w", err)
	}

	slog.DebugContext(ctx, "Budget written", "budget_id", b.ID(), "path", p.Location(b.ID()))
	return nil
}

func (p *DirectoryPersister) Remove(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := os.Remove(p.Location(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (p *DirectoryPersister) Location(id string) string {
	return filepath.Join(p.dir, id+documentExt)
}

func (p *DirectoryPersister) Close() error { return nil }
