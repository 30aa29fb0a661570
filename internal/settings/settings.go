// Package settings stores application preferences such as the budget
// directory and the last viewed budget and account.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Known keys.
const (
	KeyBudgetDir   = "budget_dir"
	KeyLastBudget  = "last_budget"
	KeyLastAccount = "last_account"
)

// Store is a small key-value store for preferences.
type Store interface {
	// Get returns the value of key, or def when it is not set.
	Get(key string, def any) any
	Set(key string, value any) error
}

// String returns the string value of key, or def.
func String(s Store, key, def string) string {
	if v, ok := s.Get(key, def).(string); ok {
		return v
	}
	return def
}

// FileStore keeps settings in a JSON file. Values may be overridden with
// BUDGET_-prefixed environment variables.
type FileStore struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// OpenFileStore reads path if it exists. The file is created on first Set.
func OpenFileStore(path string) (*FileStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("BUDGET")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
		slog.Debug("No settings file yet", "component", "settings", "path", path)
	}

	return &FileStore{path: path, v: v}, nil
}

func (s *FileStore) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.v.IsSet(key) {
		return def
	}
	return s.v.Get(key)
}

func (s *FileStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *FileStore) Path() string { return s.path }

// MemoryStore keeps settings for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]any)}
}

func (s *MemoryStore) Get(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *MemoryStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
