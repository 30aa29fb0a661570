// Package cache holds the in-process caches used for derived budget
// figures and the janitor that expires them.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically expires entries of the registered caches.
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep expires entries in every registered cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps every interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", "component", "cache", "count", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop started by StartCleanup. It must only be
// called after StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
