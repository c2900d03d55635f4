// Package storage defines the unit-of-work contract shared by all
// repositories. Writes issued through one unit of work either all commit or
// all roll back; row locks taken inside a unit are held until it completes.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is the sentinel returned by point reads that match no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation, e.g. a second
	// wallet for the same owner or a reused transaction reference.
	ErrDuplicate = errors.New("duplicate record")
)

// UnitOfWork is an open atomic scope. Exactly one of Commit or Rollback ends
// it; Rollback after a successful Commit is a no-op so callers may defer it.
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager begins units of work against a particular backend.
type TxManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
