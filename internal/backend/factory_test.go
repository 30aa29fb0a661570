package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "memory"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         config.BackendSQLite,
		SQLiteDBPath:        "x.db",
		ProjectionCacheSize: 8,
		ProjectionCacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, 8, cfg.ProjectionCacheSize)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: DirectoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
	assert.NoError(t, Config{Type: DirectoryBackend, BudgetDir: "d"}.Validate())
	assert.Len(t, GetBackendTypes(), 2)
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []Config{
		{Type: DirectoryBackend, BudgetDir: filepath.Join(dir, "budgets"), ProjectionCacheSize: 4, ProjectionCacheTTL: time.Minute},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "budget.db"), ProjectionCacheSize: 4, ProjectionCacheTTL: time.Minute},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer res.Cleanup()

			assert.Nil(t, res.Publisher)
			info, err := res.Service.Create(ctx, "Household")
			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
			assert.Len(t, res.Service.List(ctx), 1)
		})
	}
}
