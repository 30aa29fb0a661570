package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "fallback", s.Get(KeyLastBudget, "fallback"))
	assert.NoFileExists(t, path)

	require.NoError(t, s.Set(KeyLastBudget, "b-1"))
	require.NoError(t, s.Set(KeyLastAccount, "Budget"))
	assert.FileExists(t, path)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "b-1", String(reopened, KeyLastBudget, ""))
	assert.Equal(t, "Budget", String(reopened, KeyLastAccount, ""))
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	var s Store = NewMemoryStore()
	assert.Nil(t, s.Get(KeyBudgetDir, nil))

	require.NoError(t, s.Set(KeyBudgetDir, "/tmp/budgets"))
	assert.Equal(t, "/tmp/budgets", String(s, KeyBudgetDir, "x"))

	require.NoError(t, s.Set(KeyLastBudget, 42))
	assert.Equal(t, "x", String(s, KeyLastBudget, "x"), "non-string values fall back")
}
