package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the single balance-bearing account owned by one user. Its balance
// is only ever mutated by the ledger engine, under a row-level exclusive lock.
type Wallet struct {
	ID        string
	UserID    string
	Balance   decimal.Decimal
	Currency  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
