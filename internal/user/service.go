package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/demo-credit/demo_credit/internal/apperrors"
	"github.com/demo-credit/demo_credit/internal/auth"
	"github.com/demo-credit/demo_credit/internal/karma"
	"github.com/demo-credit/demo_credit/internal/metrics"
	"github.com/demo-credit/demo_credit/internal/storage"
	"github.com/demo-credit/demo_credit/internal/wallet"
)

// Service manages account lifecycle: registration with the Karma blacklist
// gate, atomic user+wallet provisioning, and credential verification.
type Service struct {
	txm      storage.TxManager
	users    Repository
	wallets  wallet.Repository
	karma    karma.Checker
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService creates a user service.
func NewService(
	txm storage.TxManager,
	users Repository,
	wallets wallet.Repository,
	checker karma.Checker,
	secret string,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		txm:      txm,
		users:    users,
		wallets:  wallets,
		karma:    checker,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries validated registration data.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	User   User
	Wallet wallet.Wallet
	Token  string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User  User
	Token string
}

// Register creates a user and their wallet in one unit of work. The identity
// is first checked against the Karma blacklist; a hit rejects the
// registration outright.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return RegisterResult{}, apperrors.Conflict("An account with this email address already exists.")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return RegisterResult{}, err
	}

	blacklisted, err := s.karma.IsBlacklisted(ctx, in.Email)
	if err != nil {
		return RegisterResult{}, err
	}
	if blacklisted {
		metrics.BlacklistRejectionsTotal.Inc()
		s.logger.Warn("registration rejected by karma blacklist", slog.String("email", in.Email))
		return RegisterResult{}, apperrors.Forbidden(
			"Account creation not allowed. This identity is on the Karma blacklist.",
			"USER_BLACKLISTED",
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResult{}, err
	}

	u := User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
	}
	w := wallet.Wallet{
		ID:       uuid.NewString(),
		UserID:   u.ID,
		Currency: "NGN",
		IsActive: true,
	}

	uow, err := s.txm.Begin(ctx)
	if err != nil {
		return RegisterResult{}, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if err := s.users.Create(ctx, uow, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return RegisterResult{}, apperrors.Conflict("An account with this email address already exists.")
		}
		return RegisterResult{}, err
	}
	if err := s.wallets.Create(ctx, uow, w); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return RegisterResult{}, apperrors.Conflict("This account already has a wallet.")
		}
		return RegisterResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return RegisterResult{}, err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.logger.Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("wallet_id", w.ID),
	)

	token, err := s.sign(u.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{User: u, Wallet: w, Token: token}, nil
}

// Login verifies credentials and issues a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, apperrors.Unauthorized("Invalid email or password.")
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return LoginResult{}, apperrors.Unauthorized("Invalid email or password.")
	}

	token, err := s.sign(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Token: token}, nil
}

// Profile fetches the account of an authenticated caller.
func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperrors.NotFound("User not found.")
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) sign(userID string) (string, error) {
	now := time.Now()
	return auth.SignHS256(map[string]any{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}, s.secret)
}
