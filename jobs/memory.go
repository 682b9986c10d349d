package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/use-agent/shopsnap/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process ledger. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*models.Job
	now   func() time.Time
}

// NewMemoryStore creates an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*models.Job),
		now:   time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, id string) (*models.Job, error) {
	job := newJob(id, m.now())

	m.mu.Lock()
	m.store[id] = job
	m.mu.Unlock()

	cp := *job
	return &cp, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	job, ok := m.store[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*models.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	cp := *job
	fn(&cp)
	cp.ID = id
	m.store[id] = &cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.store, id)
	m.mu.Unlock()
	return nil
}

// ListExpired returns IDs of jobs created before cutoff.
func (m *MemoryStore) ListExpired(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, job := range m.store {
		if job.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
