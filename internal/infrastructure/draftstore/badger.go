package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

// BadgerStore persists drafts in a badger key-value store so they survive a
// restart. Badger expires entries on its own through the write TTL.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

var _ domainRepo.DraftRepository = (*BadgerStore)(nil)

// OpenBadgerStore opens a badger database in dir. An empty dir keeps the
// data in memory only.
func OpenBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	return NewBadgerStore(db, ttl), nil
}

// NewBadgerStore wraps an open badger database.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BadgerStore{db: db, ttl: ttl}
}

func ownerPrefix(ownerID uuid.UUID) []byte {
	return []byte("draft:" + ownerID.String() + ":")
}

func draftKeyBytes(ownerID, id uuid.UUID) []byte {
	return append(ownerPrefix(ownerID), id.String()...)
}

func (s *BadgerStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Draft, error) {
	var draft *entity.Draft
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(draftKeyBytes(ownerID, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			draft = &entity.Draft{}
			return json.Unmarshal(val, draft)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	return draft, nil
}

func (s *BadgerStore) Save(ctx context.Context, draft *entity.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	draft.UpdatedAt = time.Now().UnixMilli()
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(draftKeyBytes(draft.OwnerID, draft.ID), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(draftKeyBytes(ownerID, id))
	})
}

func (s *BadgerStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	prefix := ownerPrefix(ownerID)

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		log.Printf("Error closing draft store: %v", err)
		return err
	}
	return nil
}
