package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/codec"
	"budget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLitePersister keeps each budget document as a row of the budgets table.
type SQLitePersister struct {
	db   *sql.DB
	path string
}

func NewSQLitePersister(dbPath string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLitePersister{db: db, path: dbPath}, nil
}

func (p *SQLitePersister) LoadAll(ctx context.Context) ([]*core.Budget, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, document FROM budgets ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []*core.Budget
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		d, err := codec.Decode([]byte(document))
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable budget row", "budget_id", id, "error", err)
			continue
		}
		d.ID = id
		out = append(out, codec.FromDocument(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (p *SQLitePersister) Store(ctx context.Context, b *core.Budget) error {
	data, err := codec.Marshal(b)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO budgets (id, name, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		b.ID(), b.Name(), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.DebugContext(ctx, "Budget saved to SQLite", "budget_id", b.ID(), "bytes", len(data))
	return nil
}

func (p *SQLitePersister) Remove(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (p *SQLitePersister) Location(id string) string {
	return p.path + "#" + id
}

func (p *SQLitePersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
