package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryManager serializes units of work behind a single mutex. It is the
// in-memory analogue of row-level locking: conflicting units cannot
// interleave, and a rolled-back unit restores every value it changed.
type MemoryManager struct {
	mu sync.Mutex
}

// NewMemoryManager constructs an in-memory transaction manager for tests and
// development mode.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

// Begin acquires the manager lock for the lifetime of the unit of work.
func (m *MemoryManager) Begin(_ context.Context) (UnitOfWork, error) {
	m.mu.Lock()
	return &MemoryUnitOfWork{release: m.mu.Unlock}, nil
}

// MemoryUnitOfWork collects undo functions from repositories so Rollback can
// restore the state preceding the unit.
type MemoryUnitOfWork struct {
	undo    []func()
	done    bool
	release func()
}

// OnRollback registers fn to run, in reverse registration order, if the unit
// rolls back. Repositories call it before each write.
func (u *MemoryUnitOfWork) OnRollback(fn func()) {
	u.undo = append(u.undo, fn)
}

func (u *MemoryUnitOfWork) Commit(_ context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already completed")
	}
	u.done = true
	u.undo = nil
	u.release()
	return nil
}

func (u *MemoryUnitOfWork) Rollback(_ context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
	u.release()
	return nil
}

// AsMemory extracts the in-memory unit of work, failing for other backends.
// A nil uow yields a nil unit, meaning the write is standalone.
func AsMemory(uow UnitOfWork) (*MemoryUnitOfWork, error) {
	if uow == nil {
		return nil, nil
	}
	m, ok := uow.(*MemoryUnitOfWork)
	if !ok {
		return nil, fmt.Errorf("unit of work is not memory-backed: %T", uow)
	}
	return m, nil
}
