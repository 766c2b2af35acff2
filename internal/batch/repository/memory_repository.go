package repository

import (
	"context"
	"sync"
	"time"

	"github.com/amankumarsingh77/media-resolver/internal/batch"
	"github.com/amankumarsingh77/media-resolver/internal/models"
)

type memoryEntry struct {
	progress models.BatchProgress
	expires  time.Time
}

// memoryRepo keeps progress in process when Redis is disabled.
type memoryRepo struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRepo(ttl time.Duration) batch.ProgressRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryRepo{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (r *memoryRepo) Save(_ context.Context, progress models.BatchProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, e := range r.entries {
		if now.After(e.expires) {
			delete(r.entries, id)
		}
	}
	r.entries[progress.ID] = memoryEntry{progress: progress, expires: now.Add(r.ttl)}
	return nil
}

func (r *memoryRepo) Get(_ context.Context, batchID string) (*models.BatchProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[batchID]
	if !ok || r.now().After(e.expires) {
		return nil, nil
	}
	p := e.progress
	return &p, nil
}
