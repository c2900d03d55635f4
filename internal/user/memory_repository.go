package user

import (
	"context"
	"sync"
	"time"

	"github.com/demo-credit/demo_credit/internal/storage"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryRepository builds an in-memory user store for tests and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, uow storage.UnitOfWork, u User) error {
	mem, err := storage.AsMemory(uow)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[u.Email]; exists {
		return storage.ErrDuplicate
	}
	// Mirror the database column defaults.
	if u.CreatedAt.IsZero() {
		now := time.Now().UTC()
		u.CreatedAt = now
		u.UpdatedAt = now
	}
	if mem != nil {
		id, email := u.ID, u.Email
		mem.OnRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.byID, id)
			delete(r.byEmail, email)
		})
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, storage.ErrNotFound
	}
	return r.byID[id], nil
}
