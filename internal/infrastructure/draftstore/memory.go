// Package draftstore keeps receipts that are still being built. Drafts are
// short-lived: each save pushes the expiry out by the store's TTL.
package draftstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

// DefaultTTL is how long an untouched draft survives.
const DefaultTTL = 24 * time.Hour

type draftKey struct {
	owner uuid.UUID
	id    uuid.UUID
}

type draftEntry struct {
	draft     entity.Draft
	expiresAt time.Time
}

// MemoryStore is an in-process draft store. Drafts do not survive a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	drafts      map[draftKey]*draftEntry
	ttl         time.Duration
	cleanupTick time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

var _ domainRepo.DraftRepository = (*MemoryStore)(nil)

// NewMemoryStore creates a memory store and starts its expiry sweeper.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		drafts:      make(map[draftKey]*draftEntry),
		ttl:         ttl,
		cleanupTick: sweepInterval(ttl),
		done:        make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	tick := ttl / 4
	if tick > 5*time.Minute {
		tick = 5 * time.Minute
	}
	if tick < time.Second {
		tick = time.Second
	}
	return tick
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.drafts[draftKey{ownerID, id}]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return cloneDraft(&entry.draft), nil
}

func (s *MemoryStore) Save(ctx context.Context, draft *entity.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	draft.UpdatedAt = now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draftKey{draft.OwnerID, draft.ID}] = &draftEntry{
		draft:     *cloneDraft(draft),
		expiresAt: now.Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey{ownerID, id})
	return nil
}

func (s *MemoryStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.drafts {
		if key.owner == ownerID {
			delete(s.drafts, key)
		}
	}
	return nil
}

// Len is the number of stored drafts, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// cleanupLoop periodically removes expired drafts
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.drafts {
		if now.After(entry.expiresAt) {
			delete(s.drafts, key)
		}
	}
}

func cloneDraft(d *entity.Draft) *entity.Draft {
	out := *d
	out.Lines = append([]entity.LineItem(nil), d.Lines...)
	return &out
}
