// Package ledger implements the engine that mutates wallet balances. Every
// operation is one unit of work: it locks the affected wallet rows, validates,
// writes the new balances and appends the matching transaction entries, or
// leaves no trace at all.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/metrics"
	"github.com/demo-credit/demo_credit/internal/notification"
	"github.com/demo-credit/demo_credit/internal/storage"
	"github.com/demo-credit/demo_credit/internal/transaction"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

// counterpartReferenceSuffix marks the credit leg of a transfer, derived from
// the caller-supplied reference of the debit leg.
const counterpartReferenceSuffix = "-CREDIT"

// AccountDirectory resolves a recipient-facing identifier to a wallet owner.
// It returns storage.ErrNotFound for unknown identifiers.
type AccountDirectory interface {
	ResolveByEmail(ctx context.Context, email string) (string, error)
}

// Engine orchestrates fund, withdraw and transfer operations atomically.
type Engine struct {
	txm       storage.TxManager
	wallets   wallet.Repository
	txlog     transaction.Repository
	directory AccountDirectory
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewEngine constructs the ledger engine. The notifier is optional.
func NewEngine(
	txm storage.TxManager,
	wallets wallet.Repository,
	txlog transaction.Repository,
	directory AccountDirectory,
	notifier notification.Notifier,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		txm:       txm,
		wallets:   wallets,
		txlog:     txlog,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

// OperationInput carries the caller-validated parameters of a balance
// mutation. Amount is assumed positive; the HTTP layer enforces that.
type OperationInput struct {
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// Result pairs the ledger entry written for the caller with the caller's
// updated wallet.
type Result struct {
	Transaction transaction.Transaction
	Wallet      wallet.Wallet
}

// History is one page of a wallet's transaction log.
type History struct {
	Transactions []transaction.Transaction
	Total        int64
	Page         int
	PageSize     int
}

// Fund credits the caller's own wallet.
func (e *Engine) Fund(ctx context.Context, userID string, in OperationInput) (Result, error) {
	start := time.Now()
	res, err := e.creditOwnWallet(ctx, userID, in)
	metrics.RecordLedgerOperation(string(transaction.CategoryFunding), outcome(err), time.Since(start).Seconds())
	return res, err
}

func (e *Engine) creditOwnWallet(ctx context.Context, userID string, in OperationInput) (Result, error) {
	uow, err := e.txm.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	w, err := e.wallets.GetByUserIDForUpdate(ctx, uow, userID)
	if err != nil {
		return Result{}, walletError(err)
	}

	before := w.Balance
	after := before.Add(in.Amount)
	if err := e.wallets.UpdateBalance(ctx, uow, w.ID, after); err != nil {
		return Result{}, err
	}

	tx, err := e.txlog.Append(ctx, uow, transaction.Transaction{
		ID:            uuid.NewString(),
		Reference:     in.Reference,
		WalletID:      w.ID,
		Type:          transaction.TypeCredit,
		Category:      transaction.CategoryFunding,
		Amount:        in.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   optional(in.Description),
		Status:        transaction.StatusSuccess,
	})
	if err != nil {
		return Result{}, appendError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return Result{}, err
	}

	e.logger.Info("wallet funded",
		slog.String("wallet_id", w.ID),
		slog.String("reference", in.Reference),
		slog.String("amount", in.Amount.StringFixed(2)),
	)

	w.Balance = after
	return Result{Transaction: tx, Wallet: w}, nil
}

// Withdraw debits the caller's own wallet, rejecting overdrafts before any
// write happens.
func (e *Engine) Withdraw(ctx context.Context, userID string, in OperationInput) (Result, error) {
	start := time.Now()
	res, err := e.withdraw(ctx, userID, in)
	metrics.RecordLedgerOperation(string(transaction.CategoryWithdrawal), outcome(err), time.Since(start).Seconds())
	return res, err
}

func (e *Engine) withdraw(ctx context.Context, userID string, in OperationInput) (Result, error) {
	uow, err := e.txm.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	w, err := e.wallets.GetByUserIDForUpdate(ctx, uow, userID)
	if err != nil {
		return Result{}, walletError(err)
	}

	before := w.Balance
	if before.LessThan(in.Amount) {
		return Result{}, apperrors.UnprocessableEntity("Insufficient wallet balance.")
	}

	after := before.Sub(in.Amount)
	if err := e.wallets.UpdateBalance(ctx, uow, w.ID, after); err != nil {
		return Result{}, err
	}

	tx, err := e.txlog.Append(ctx, uow, transaction.Transaction{
		ID:            uuid.NewString(),
		Reference:     in.Reference,
		WalletID:      w.ID,
		Type:          transaction.TypeDebit,
		Category:      transaction.CategoryWithdrawal,
		Amount:        in.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   optional(in.Description),
		Status:        transaction.StatusSuccess,
	})
	if err != nil {
		return Result{}, appendError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return Result{}, err
	}

	e.logger.Info("wallet debited",
		slog.String("wallet_id", w.ID),
		slog.String("reference", in.Reference),
		slog.String("amount", in.Amount.StringFixed(2)),
	)

	w.Balance = after
	return Result{Transaction: tx, Wallet: w}, nil
}

// Transfer moves funds from the caller's wallet to the wallet of the account
// resolved from recipientEmail. The recipient is resolved and self-transfer
// rejected before any lock is taken. Lock order is sender first, then
// recipient.
func (e *Engine) Transfer(ctx context.Context, userID, recipientEmail string, in OperationInput) (Result, error) {
	start := time.Now()
	res, err := e.transfer(ctx, userID, recipientEmail, in)
	metrics.RecordLedgerOperation(string(transaction.CategoryTransfer), outcome(err), time.Since(start).Seconds())
	return res, err
}

func (e *Engine) transfer(ctx context.Context, userID, recipientEmail string, in OperationInput) (Result, error) {
	recipientID, err := e.directory.ResolveByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.NotFound("Recipient not found.")
		}
		return Result{}, err
	}
	if recipientID == userID {
		return Result{}, apperrors.BadRequest("You cannot transfer funds to your own wallet.")
	}

	uow, err := e.txm.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	sender, err := e.wallets.GetByUserIDForUpdate(ctx, uow, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.NotFound("Sender wallet not found.")
		}
		return Result{}, err
	}
	recipient, err := e.wallets.GetByUserIDForUpdate(ctx, uow, recipientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, apperrors.NotFound("Recipient wallet not found.")
		}
		return Result{}, err
	}

	senderBefore := sender.Balance
	if senderBefore.LessThan(in.Amount) {
		return Result{}, apperrors.UnprocessableEntity("Insufficient wallet balance.")
	}
	senderAfter := senderBefore.Sub(in.Amount)
	recipientBefore := recipient.Balance
	recipientAfter := recipientBefore.Add(in.Amount)

	if err := e.wallets.UpdateBalance(ctx, uow, sender.ID, senderAfter); err != nil {
		return Result{}, err
	}
	if err := e.wallets.UpdateBalance(ctx, uow, recipient.ID, recipientAfter); err != nil {
		return Result{}, err
	}

	debit, err := e.txlog.Append(ctx, uow, transaction.Transaction{
		ID:                  uuid.NewString(),
		Reference:           in.Reference,
		WalletID:            sender.ID,
		CounterpartWalletID: &recipient.ID,
		Type:                transaction.TypeDebit,
		Category:            transaction.CategoryTransfer,
		Amount:              in.Amount,
		BalanceBefore:       senderBefore,
		BalanceAfter:        senderAfter,
		Description:         optional(in.Description),
		Status:              transaction.StatusSuccess,
	})
	if err != nil {
		return Result{}, appendError(err)
	}

	_, err = e.txlog.Append(ctx, uow, transaction.Transaction{
		ID:                  uuid.NewString(),
		Reference:           in.Reference + counterpartReferenceSuffix,
		WalletID:            recipient.ID,
		CounterpartWalletID: &sender.ID,
		Type:                transaction.TypeCredit,
		Category:            transaction.CategoryTransfer,
		Amount:              in.Amount,
		BalanceBefore:       recipientBefore,
		BalanceAfter:        recipientAfter,
		Description:         optional(in.Description),
		Status:              transaction.StatusSuccess,
	})
	if err != nil {
		return Result{}, appendError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return Result{}, err
	}

	e.logger.Info("transfer completed",
		slog.String("sender_wallet_id", sender.ID),
		slog.String("recipient_wallet_id", recipient.ID),
		slog.String("reference", in.Reference),
		slog.String("amount", in.Amount.StringFixed(2)),
	)

	if e.notifier != nil {
		_ = e.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: recipientID,
			Body:        fmt.Sprintf("You received %s %s", recipient.Currency, in.Amount.StringFixed(2)),
		})
	}

	sender.Balance = senderAfter
	return Result{Transaction: debit, Wallet: sender}, nil
}

// GetBalance returns the caller's wallet without locking.
func (e *Engine) GetBalance(ctx context.Context, userID string) (wallet.Wallet, error) {
	w, err := e.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return wallet.Wallet{}, walletError(err)
	}
	return w, nil
}

// GetTransactionHistory returns one page of the caller's ledger entries,
// newest first, plus the total count.
func (e *Engine) GetTransactionHistory(ctx context.Context, userID string, page, pageSize int) (History, error) {
	w, err := e.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return History{}, walletError(err)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	transactions, total, err := e.txlog.ListByWallet(ctx, w.ID, page, pageSize)
	if err != nil {
		return History{}, err
	}
	return History{Transactions: transactions, Total: total, Page: page, PageSize: pageSize}, nil
}

func walletError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("Wallet not found.")
	}
	return err
}

func appendError(err error) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return apperrors.Conflict("A transaction with this reference already exists.")
	}
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
