package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/logging"
	"github.com/demo-credit/demo_credit/internal/storage"
	"github.com/demo-credit/demo_credit/internal/transaction"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

type stubDirectory struct {
	byEmail map[string]string
}

func (d *stubDirectory) ResolveByEmail(_ context.Context, email string) (string, error) {
	id, ok := d.byEmail[email]
	if !ok {
		return "", storage.ErrNotFound
	}
	return id, nil
}

type fixture struct {
	engine    *Engine
	wallets   wallet.Repository
	txlog     transaction.Repository
	directory *stubDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		wallets:   wallet.NewMemoryRepository(),
		txlog:     transaction.NewMemoryRepository(),
		directory: &stubDirectory{byEmail: make(map[string]string)},
	}
	f.engine = NewEngine(storage.NewMemoryManager(), f.wallets, f.txlog, f.directory, nil, logging.Discard())
	return f
}

func (f *fixture) seedWallet(t *testing.T, email, balance string) (userID, walletID string) {
	t.Helper()
	userID = uuid.NewString()
	walletID = uuid.NewString()
	err := f.wallets.Create(context.Background(), nil, wallet.Wallet{
		ID:       walletID,
		UserID:   userID,
		Balance:  decimal.RequireFromString(balance),
		Currency: "NGN",
		IsActive: true,
	})
	require.NoError(t, err)
	f.directory.byEmail[email] = userID
	return userID, walletID
}

func TestEngineFundWithdrawTransferFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceID, aliceWallet := f.seedWallet(t, "alice@example.com", "5000.00")
	_, bobWallet := f.seedWallet(t, "bob@example.com", "1000.00")

	res, err := f.engine.Fund(ctx, aliceID, OperationInput{
		Amount:    decimal.RequireFromString("2000.00"),
		Reference: "REF-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "7000", res.Wallet.Balance.String())
	assert.Equal(t, transaction.TypeCredit, res.Transaction.Type)
	assert.Equal(t, transaction.CategoryFunding, res.Transaction.Category)
	assert.Equal(t, "5000", res.Transaction.BalanceBefore.String())
	assert.Equal(t, "7000", res.Transaction.BalanceAfter.String())

	res, err = f.engine.Withdraw(ctx, aliceID, OperationInput{
		Amount:    decimal.RequireFromString("1000.00"),
		Reference: "WDR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "6000", res.Wallet.Balance.String())
	assert.Equal(t, transaction.TypeDebit, res.Transaction.Type)
	assert.Equal(t, transaction.CategoryWithdrawal, res.Transaction.Category)

	res, err = f.engine.Transfer(ctx, aliceID, "bob@example.com", OperationInput{
		Amount:    decimal.RequireFromString("1500.00"),
		Reference: "TRF-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "4500", res.Wallet.Balance.String())
	require.NotNil(t, res.Transaction.CounterpartWalletID)
	assert.Equal(t, bobWallet, *res.Transaction.CounterpartWalletID)

	recipient, err := f.wallets.GetByID(ctx, bobWallet)
	require.NoError(t, err)
	assert.Equal(t, "2500", recipient.Balance.String())

	credit, err := f.txlog.FindByReference(ctx, "TRF-001-CREDIT")
	require.NoError(t, err)
	assert.Equal(t, transaction.TypeCredit, credit.Type)
	assert.Equal(t, bobWallet, credit.WalletID)
	require.NotNil(t, credit.CounterpartWalletID)
	assert.Equal(t, aliceWallet, *credit.CounterpartWalletID)
	assert.Equal(t, transaction.StatusSuccess, credit.Status)
}

func TestEngineConcurrentFundsNoLostUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "crowd@example.com", "0.00")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := f.engine.Fund(ctx, userID, OperationInput{
				Amount:    decimal.RequireFromString("10.00"),
				Reference: uuid.NewString(),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	w, err := f.engine.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "500", w.Balance.String())
}

func TestEngineWithdrawInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "thin@example.com", "100.00")

	_, err := f.engine.Withdraw(ctx, userID, OperationInput{
		Amount:    decimal.RequireFromString("100.01"),
		Reference: "WDR-OVER",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Status)

	w, err := f.engine.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "100", w.Balance.String())

	history, err := f.engine.GetTransactionHistory(ctx, userID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, history.Total)
}

func TestEngineTransferToSelfRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "solo@example.com", "500.00")

	_, err := f.engine.Transfer(ctx, userID, "solo@example.com", OperationInput{
		Amount:    decimal.RequireFromString("50.00"),
		Reference: "TRF-SELF",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)

	w, err := f.engine.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "500", w.Balance.String())
}

func TestEngineTransferUnknownRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "lonely@example.com", "500.00")

	_, err := f.engine.Transfer(ctx, userID, "nobody@example.com", OperationInput{
		Amount:    decimal.RequireFromString("50.00"),
		Reference: "TRF-GHOST",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "Recipient not found.", appErr.Message)
}

func TestEngineDuplicateReferenceRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "repeat@example.com", "1000.00")

	_, err := f.engine.Fund(ctx, userID, OperationInput{
		Amount:    decimal.RequireFromString("100.00"),
		Reference: "REF-DUP",
	})
	require.NoError(t, err)

	_, err = f.engine.Fund(ctx, userID, OperationInput{
		Amount:    decimal.RequireFromString("100.00"),
		Reference: "REF-DUP",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)

	w, err := f.engine.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "1100", w.Balance.String())

	history, err := f.engine.GetTransactionHistory(ctx, userID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, history.Total)
}

func TestEngineTransferDuplicateReferenceLeavesBothWalletsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceID, _ := f.seedWallet(t, "a@example.com", "1000.00")
	_, bobWallet := f.seedWallet(t, "b@example.com", "0.00")

	_, err := f.engine.Fund(ctx, aliceID, OperationInput{
		Amount:    decimal.RequireFromString("5.00"),
		Reference: "SHARED-REF",
	})
	require.NoError(t, err)

	_, err = f.engine.Transfer(ctx, aliceID, "b@example.com", OperationInput{
		Amount:    decimal.RequireFromString("200.00"),
		Reference: "SHARED-REF",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)

	sender, err := f.engine.GetBalance(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "1005", sender.Balance.String())

	recipient, err := f.wallets.GetByID(ctx, bobWallet)
	require.NoError(t, err)
	assert.Equal(t, "0", recipient.Balance.String())
}

func TestEngineEveryEntryBalancesWithSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceID, aliceWallet := f.seedWallet(t, "x@example.com", "300.00")
	f.seedWallet(t, "y@example.com", "0.00")

	ops := []func() error{
		func() error {
			_, err := f.engine.Fund(ctx, aliceID, OperationInput{Amount: decimal.RequireFromString("120.50"), Reference: uuid.NewString()})
			return err
		},
		func() error {
			_, err := f.engine.Withdraw(ctx, aliceID, OperationInput{Amount: decimal.RequireFromString("20.25"), Reference: uuid.NewString()})
			return err
		},
		func() error {
			_, err := f.engine.Transfer(ctx, aliceID, "y@example.com", OperationInput{Amount: decimal.RequireFromString("100.00"), Reference: uuid.NewString()})
			return err
		},
	}
	for _, op := range ops {
		require.NoError(t, op())
	}

	entries, _, err := f.txlog.ListByWallet(ctx, aliceWallet, 1, 50)
	require.NoError(t, err)
	for _, e := range entries {
		diff := e.BalanceAfter.Sub(e.BalanceBefore)
		if e.Type == transaction.TypeDebit {
			diff = diff.Neg()
		}
		assert.True(t, diff.Equal(e.Amount), "entry %s: before=%s after=%s amount=%s", e.Reference, e.BalanceBefore, e.BalanceAfter, e.Amount)
	}
}

func TestEngineHistoryPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	userID, _ := f.seedWallet(t, "pager@example.com", "0.00")
	for i := 0; i < 5; i++ {
		_, err := f.engine.Fund(ctx, userID, OperationInput{
			Amount:    decimal.RequireFromString("1.00"),
			Reference: uuid.NewString(),
		})
		require.NoError(t, err)
	}

	page1, err := f.engine.GetTransactionHistory(ctx, userID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page1.Total)
	assert.Len(t, page1.Transactions, 2)

	page3, err := f.engine.GetTransactionHistory(ctx, userID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Transactions, 1)
}
