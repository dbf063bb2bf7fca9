// Package seeder guarantees that one administrator account exists for a
// given email and that its password is set to a known value.
package seeder

import (
	"context"
	"errors"
	"strings"
	"time"

	"adminseed/internal/auth"
	"adminseed/internal/models"
	"adminseed/internal/storage"

	"github.com/rs/zerolog"
)

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeReset
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeReset:
		return "reset"
	default:
		return "failed"
	}
}

// maxAttempts bounds the retry taken when a concurrent run creates or
// removes the account between lookup and write.
const maxAttempts = 2

type Request struct {
	Email    string
	FullName string
	Password string
}

type Result struct {
	Outcome Outcome
	// Email is the normalized email the run looked up.
	Email    string
	Account  *models.Account
	Attempts int
}

// Transactor is the part of storage.Storage the seeder needs.
type Transactor interface {
	Transaction(ctx context.Context, fn func(storage.Directory) error) error
}

// ErrVerificationFailed means the hash read back before commit did not
// match the requested password.
var ErrVerificationFailed = errors.New("stored hash does not match the password")

type Seeder struct {
	store  Transactor
	hasher auth.Hasher
	verify func(hash, plaintext string) bool
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*Seeder)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Seeder) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Seeder) {
		s.now = now
	}
}

// WithVerification re-reads the account inside the transaction and checks
// the stored hash with verify before committing.
func WithVerification(verify func(hash, plaintext string) bool) Option {
	return func(s *Seeder) {
		s.verify = verify
	}
}

func New(store Transactor, hasher auth.Hasher, opts ...Option) *Seeder {
	s := &Seeder{
		store:  store,
		hasher: hasher,
		now: func() time.Time {
			return time.Now().UTC()
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed creates the administrator account for req.Email, or resets its
// password when it already exists. Lookup and write share one transaction;
// on any error the store is left as it was.
func (s *Seeder) Seed(ctx context.Context, req Request) (Result, error) {
	email := models.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	result := Result{Outcome: OutcomeFailed, Email: email}
	logger := s.logger.With().Str("email", email).Logger()

	if err := validate(email, fullName, req.Password); err != nil {
		return result, &Error{Reason: ReasonInvalidInput, Op: "validate request", Err: err}
	}

	// Hash outside the transaction; bcrypt is slow on purpose.
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return result, &Error{Reason: ReasonHashing, Op: "hash password", Err: err}
	}

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt

		outcome, account, err := s.apply(ctx, email, fullName, req.Password, hash)
		if err == nil {
			result.Outcome = outcome
			result.Account = account
			logger.Info().
				Str("outcome", outcome.String()).
				Uint("account_id", account.ID).
				Int("attempts", attempt).
				Msg("Administrator account seeded")
			return result, nil
		}

		retryable := storage.IsUniqueViolation(err) || errors.Is(err, storage.ErrNotFound)
		if !retryable || attempt >= maxAttempts {
			seedErr := classify("write account", err)
			logger.Error().Err(err).Str("reason", string(seedErr.Reason)).Msg("Seeding failed, transaction rolled back")
			return result, seedErr
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("Account changed concurrently, retrying")
	}
}

func (s *Seeder) apply(ctx context.Context, email, fullName, password, hash string) (Outcome, *models.Account, error) {
	var (
		outcome Outcome
		account *models.Account
	)

	err := s.store.Transaction(ctx, func(dir storage.Directory) error {
		now := s.now()

		existing, err := dir.FindAccountByEmail(ctx, email)
		switch {
		case err == nil:
			if err := dir.UpdateAccountPassword(ctx, existing.ID, hash, now); err != nil {
				return err
			}
			existing.PasswordHash = hash
			existing.PasswordResetAt = &now
			outcome, account = OutcomeReset, existing
			return s.verifyStored(ctx, dir, email, password)

		case errors.Is(err, storage.ErrNotFound):
			created := &models.Account{
				Email:        email,
				FullName:     fullName,
				PasswordHash: hash,
				Role:         models.RoleAdmin,
				IsActive:     true,
				CreatedAt:    now,
			}
			if err := dir.CreateAccount(ctx, created); err != nil {
				return err
			}
			outcome, account = OutcomeCreated, created
			return s.verifyStored(ctx, dir, email, password)

		default:
			return err
		}
	})
	if err != nil {
		return OutcomeFailed, nil, err
	}
	return outcome, account, nil
}

func (s *Seeder) verifyStored(ctx context.Context, dir storage.Directory, email, password string) error {
	if s.verify == nil {
		return nil
	}
	stored, err := dir.FindAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !s.verify(stored.PasswordHash, password) {
		return ErrVerificationFailed
	}
	return nil
}

func validate(email, fullName, password string) error {
	switch {
	case email == "":
		return errors.New("email must not be empty")
	case !strings.Contains(email, "@"):
		return errors.New("email must contain '@'")
	case fullName == "":
		return errors.New("full name must not be empty")
	case password == "":
		return errors.New("password must not be empty")
	}
	return nil
}
