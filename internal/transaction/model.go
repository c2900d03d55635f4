package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type distinguishes credits from debits against a wallet.
type Type string

// Category names the business operation that produced a ledger entry.
type Category string

// Status tracks settlement state. The ledger engine only ever writes SUCCESS;
// PENDING and FAILED are reserved for asynchronous settlement.
type Status string

const (
	TypeCredit Type = "CREDIT"
	TypeDebit  Type = "DEBIT"

	CategoryFunding    Category = "FUNDING"
	CategoryTransfer   Category = "TRANSFER"
	CategoryWithdrawal Category = "WITHDRAWAL"

	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Transaction is one immutable ledger entry. BalanceBefore and BalanceAfter
// snapshot the owning wallet around the mutation; for transfers,
// CounterpartWalletID points at the other wallet of the same movement.
type Transaction struct {
	ID                  string
	Reference           string
	WalletID            string
	CounterpartWalletID *string
	Type                Type
	Category            Category
	Amount              decimal.Decimal
	BalanceBefore       decimal.Decimal
	BalanceAfter        decimal.Decimal
	Description         *string
	Status              Status
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
