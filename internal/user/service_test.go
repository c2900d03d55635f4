package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/karma"
	"github.com/demo-credit/demo_credit/internal/logging"
	"github.com/demo-credit/demo_credit/internal/storage"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

func newTestService(checker karma.Checker) (*Service, Repository, wallet.Repository) {
	users := NewMemoryRepository()
	wallets := wallet.NewMemoryRepository()
	svc := NewService(storage.NewMemoryManager(), users, wallets, checker, "test-secret", time.Hour, logging.Discard())
	return svc, users, wallets
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc, _, wallets := newTestService(karma.AllowAll())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		FirstName:   "Ada",
		LastName:    "Obi",
		Email:       "ada@example.com",
		PhoneNumber: "+2348012345678",
		Password:    "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected an access token on registration")
	}
	if res.Wallet.Currency != "NGN" || !res.Wallet.IsActive {
		t.Fatalf("unexpected wallet: %+v", res.Wallet)
	}

	w, err := wallets.GetByUserID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("wallet not provisioned: %v", err)
	}
	if !w.Balance.IsZero() {
		t.Fatalf("expected zero opening balance, got %s", w.Balance)
	}

	login, err := svc.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Fatalf("expected user %s, got %s", res.User.ID, login.User.ID)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong password"); err == nil {
		t.Fatal("expected login to fail with wrong password")
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(karma.AllowAll())
	ctx := context.Background()

	in := RegisterInput{
		FirstName:   "Ada",
		LastName:    "Obi",
		Email:       "ada@example.com",
		PhoneNumber: "+2348012345678",
		Password:    "correct horse",
	}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, in)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Status != 409 {
		t.Fatalf("expected 409 conflict, got %v", err)
	}
}

func TestServiceRegisterBlacklistedIdentity(t *testing.T) {
	checker := &karma.Static{Blacklisted: map[string]bool{"fraud@example.com": true}}
	svc, users, _ := newTestService(checker)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		FirstName:   "Sly",
		LastName:    "Fox",
		Email:       "fraud@example.com",
		PhoneNumber: "+2348099999999",
		Password:    "irrelevant",
	})
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an app error, got %v", err)
	}
	if appErr.Status != 403 || appErr.Code != "USER_BLACKLISTED" {
		t.Fatalf("expected 403 USER_BLACKLISTED, got %d %s", appErr.Status, appErr.Code)
	}

	if _, err := users.FindByEmail(ctx, "fraud@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("blacklisted user must not be persisted, got %v", err)
	}
}

func TestServiceProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(karma.AllowAll())

	_, err := svc.Profile(context.Background(), "no-such-user")
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}
