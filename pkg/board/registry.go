package board

import (
	"context"
	"sync"
	"time"

	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/store"
)

// Registry hands out one Board per user and evicts boards that have been
// idle for longer than the TTL.
type Registry struct {
	leads    store.LeadStore
	tasks    store.TaskStore
	notifier notify.Notifier
	log      logger.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry

	ttl           time.Duration
	cleanupPeriod time.Duration
}

type registryEntry struct {
	board    *Board
	lastUsed time.Time
}

// NewRegistry creates a registry. Boards untouched for ttl are dropped and
// rebuilt from the store on next access.
func NewRegistry(leads store.LeadStore, tasks store.TaskStore, notifier notify.Notifier, log logger.Logger, ttl, cleanupPeriod time.Duration) *Registry {
	r := &Registry{
		leads:         leads,
		tasks:         tasks,
		notifier:      notifier,
		log:           log,
		entries:       make(map[string]*registryEntry),
		ttl:           ttl,
		cleanupPeriod: cleanupPeriod,
	}
	go r.cleanupExpired()
	return r
}

// Get returns the user's board, loading it from the store on first access.
func (r *Registry) Get(ctx context.Context, userID string) (*Board, error) {
	r.mu.Lock()
	entry, ok := r.entries[userID]
	if ok {
		entry.lastUsed = time.Now()
		r.mu.Unlock()
		return entry.board, nil
	}
	r.mu.Unlock()

	b := NewBoard(userID, r.leads, r.tasks, r.notifier, r.log)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have loaded the board meanwhile; keep the first
	if entry, ok := r.entries[userID]; ok {
		entry.lastUsed = time.Now()
		return entry.board, nil
	}
	r.entries[userID] = &registryEntry{board: b, lastUsed: time.Now()}
	return b, nil
}

// Evict drops the user's board so the next access reloads from the store.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// Count returns the number of resident boards.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) cleanupExpired() {
	ticker := time.NewTicker(r.cleanupPeriod)
	defer ticker.Stop()
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for userID, entry := range r.entries {
			if now.Sub(entry.lastUsed) > r.ttl {
				delete(r.entries, userID)
			}
		}
		r.mu.Unlock()
	}
}
