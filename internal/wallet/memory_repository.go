package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/demo-credit/demo_credit/internal/storage"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Wallet
	byOwner map[string]string
}

// NewMemoryRepository constructs an in-memory wallet store for tests and
// development mode. Exclusive-lock semantics come from the memory transaction
// manager, which serializes units of work.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]Wallet),
		byOwner: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, uow storage.UnitOfWork, w Wallet) error {
	mem, err := storage.AsMemory(uow)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOwner[w.UserID]; exists {
		return storage.ErrDuplicate
	}
	// Mirror the database column defaults.
	if w.CreatedAt.IsZero() {
		now := time.Now().UTC()
		w.CreatedAt = now
		w.UpdatedAt = now
	}
	if mem != nil {
		id, owner := w.ID, w.UserID
		mem.OnRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.byID, id)
			delete(r.byOwner, owner)
		})
	}
	r.byID[w.ID] = w
	r.byOwner[w.UserID] = w.ID
	return nil
}

func (r *memoryRepository) GetByUserID(_ context.Context, userID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupOwner(userID)
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupID(id)
}

func (r *memoryRepository) GetByUserIDForUpdate(_ context.Context, uow storage.UnitOfWork, userID string) (Wallet, error) {
	if _, err := storage.AsMemory(uow); err != nil {
		return Wallet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupOwner(userID)
}

func (r *memoryRepository) GetByIDForUpdate(_ context.Context, uow storage.UnitOfWork, id string) (Wallet, error) {
	if _, err := storage.AsMemory(uow); err != nil {
		return Wallet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupID(id)
}

func (r *memoryRepository) UpdateBalance(_ context.Context, uow storage.UnitOfWork, id string, balance decimal.Decimal) error {
	mem, err := storage.AsMemory(uow)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if mem != nil {
		prev := w
		mem.OnRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.byID[prev.ID] = prev
		})
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	r.byID[id] = w
	return nil
}

func (r *memoryRepository) lookupOwner(userID string) (Wallet, error) {
	id, ok := r.byOwner[userID]
	if !ok {
		return Wallet{}, storage.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) lookupID(id string) (Wallet, error) {
	w, ok := r.byID[id]
	if !ok {
		return Wallet{}, storage.ErrNotFound
	}
	return w, nil
}
