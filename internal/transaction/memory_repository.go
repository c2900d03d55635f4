package transaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/demo-credit/demo_credit/internal/storage"
)

type memoryEntry struct {
	tx  Transaction
	seq int64
}

type memoryRepository struct {
	mu          sync.RWMutex
	entries     []memoryEntry
	byReference map[string]int
	seq         int64
}

// NewMemoryRepository constructs an in-memory transaction log for tests and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byReference: make(map[string]int)}
}

func (r *memoryRepository) Append(_ context.Context, uow storage.UnitOfWork, tx Transaction) (Transaction, error) {
	mem, err := storage.AsMemory(uow)
	if err != nil {
		return Transaction{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byReference[tx.Reference]; exists {
		return Transaction{}, storage.ErrDuplicate
	}

	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.seq++
	r.entries = append(r.entries, memoryEntry{tx: tx, seq: r.seq})
	r.byReference[tx.Reference] = len(r.entries) - 1

	if mem != nil {
		ref := tx.Reference
		mem.OnRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			idx, ok := r.byReference[ref]
			if !ok {
				return
			}
			r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
			delete(r.byReference, ref)
			for i := idx; i < len(r.entries); i++ {
				r.byReference[r.entries[i].tx.Reference] = i
			}
		})
	}
	return tx, nil
}

func (r *memoryRepository) ListByWallet(_ context.Context, walletID string, page, pageSize int) ([]Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matching []memoryEntry
	for _, e := range r.entries {
		if e.tx.WalletID == walletID {
			matching = append(matching, e)
		}
	}
	// Newest first; the insertion sequence breaks creation-time ties.
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].tx.CreatedAt.Equal(matching[j].tx.CreatedAt) {
			return matching[i].seq > matching[j].seq
		}
		return matching[i].tx.CreatedAt.After(matching[j].tx.CreatedAt)
	})

	total := int64(len(matching))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(matching) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matching) {
		end = len(matching)
	}

	out := make([]Transaction, 0, end-start)
	for _, e := range matching[start:end] {
		out = append(out, e.tx)
	}
	return out, total, nil
}

func (r *memoryRepository) FindByReference(_ context.Context, reference string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byReference[reference]
	if !ok {
		return Transaction{}, storage.ErrNotFound
	}
	return r.entries[idx].tx, nil
}
