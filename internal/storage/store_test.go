package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"adminseed/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), &Config{
		Driver: DriverSQLite,
		Path:   memoryPath,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return store
}

func newAccount(email string) *models.Account {
	return &models.Account{
		Email:        email,
		FullName:     "System Administrator",
		PasswordHash: "hash",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "adminseed.db")

	store, err := Open(context.Background(), &Config{Driver: DriverSQLite, Path: path, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if store.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", store.Driver(), DriverSQLite)
	}
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &Config{Driver: "oracle", Logger: zerolog.Nop()})
	if err == nil {
		t.Fatal("Open() expected error for unknown driver")
	}
}

func TestOpenSQLiteWithoutPath(t *testing.T) {
	_, err := Open(context.Background(), &Config{Driver: DriverSQLite, Logger: zerolog.Nop()})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Open() error = %v, want ErrUnavailable", err)
	}
	if !IsConnectionError(err) {
		t.Error("IsConnectionError() = false for an unavailable store")
	}
}

func TestCreateAndFindAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	account := newAccount("admin@example.com")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.ID == 0 {
		t.Fatal("expected primary key to be assigned")
	}
	if account.PublicID == "" {
		t.Error("expected public id to be assigned")
	}
	if account.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	found, err := store.FindAccountByEmail(ctx, "  ADMIN@example.com")
	if err != nil {
		t.Fatalf("FindAccountByEmail() error = %v", err)
	}
	if found.ID != account.ID {
		t.Errorf("found id = %d, want %d", found.ID, account.ID)
	}

	if _, err := store.FindAccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindAccountByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestCreateAccountKeepsInactiveFlag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	account := newAccount("disabled@example.com")
	account.IsActive = false
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	found, err := store.FindAccountByEmail(ctx, "disabled@example.com")
	if err != nil {
		t.Fatalf("FindAccountByEmail() error = %v", err)
	}
	if found.IsActive {
		t.Error("IsActive = true, want the explicit false to be stored")
	}
}

func TestFindAccountByEmailMatchesLegacyMixedCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateAccount(ctx, newAccount("Admin@Inphora.net")); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := store.FindAccountByEmail(ctx, "admin@inphora.net"); err != nil {
		t.Fatalf("FindAccountByEmail() error = %v", err)
	}
	count, err := store.CountAccounts(ctx, "ADMIN@INPHORA.NET")
	if err != nil {
		t.Fatalf("CountAccounts() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountAccounts() = %d, want 1", count)
	}
}

func TestDuplicateEmailIsUniqueViolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateAccount(ctx, newAccount("admin@example.com")); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	err := store.CreateAccount(ctx, newAccount("admin@example.com"))
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
	if !IsConstraintViolation(err) {
		t.Errorf("IsConstraintViolation(%v) = false", err)
	}
	if IsConnectionError(err) {
		t.Errorf("IsConnectionError(%v) = true", err)
	}
}

func TestUpdateAccountPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	account := newAccount("admin@example.com")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	resetAt := time.Now().UTC()
	if err := store.UpdateAccountPassword(ctx, account.ID, "new-hash", resetAt); err != nil {
		t.Fatalf("UpdateAccountPassword() error = %v", err)
	}

	found, err := store.FindAccountByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("FindAccountByEmail() error = %v", err)
	}
	if found.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "new-hash")
	}
	if found.PasswordResetAt == nil {
		t.Error("expected password_reset_at to be set")
	}
	if !found.CreatedAt.Equal(account.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", account.CreatedAt, found.CreatedAt)
	}

	if err := store.UpdateAccountPassword(ctx, 9999, "x", resetAt); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAccountPassword() on missing id error = %v, want ErrNotFound", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(dir Directory) error {
		if err := dir.CreateAccount(ctx, newAccount("admin@example.com")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, want %v", err, boom)
	}

	count, err := store.CountAccounts(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("CountAccounts() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountAccounts() = %d after rollback, want 0", count)
	}
}

func TestTransactionCommits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Transaction(ctx, func(dir Directory) error {
		return dir.CreateAccount(ctx, newAccount("admin@example.com"))
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	count, _ := store.CountAccounts(ctx, "admin@example.com")
	if count != 1 {
		t.Errorf("CountAccounts() = %d, want 1", count)
	}
}

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantTimeout time.Duration
	}{
		{
			name: "plain",
			cfg: Config{Host: "db", Port: 5432, User: "seed", DBName: "app", SSLMode: "disable",
				ConnectTimeout: 5 * time.Second},
			wantTimeout: 5 * time.Second,
		},
		{
			name: "password with spaces and quotes",
			cfg: Config{Host: "db", Port: 5433, User: "seed", Password: `p w'd "x"=\`, DBName: "app",
				SSLMode: "disable", ConnectTimeout: 5 * time.Second},
			wantTimeout: 5 * time.Second,
		},
		{
			name: "sub-second timeout rounds up",
			cfg: Config{Host: "db", Port: 5432, User: "seed", DBName: "app", SSLMode: "disable",
				ConnectTimeout: 500 * time.Millisecond},
			wantTimeout: time.Second,
		},
		{
			name: "fractional timeout rounds up",
			cfg: Config{Host: "db", Port: 5432, User: "seed", DBName: "app", SSLMode: "disable",
				ConnectTimeout: 2500 * time.Millisecond},
			wantTimeout: 3 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := pgconn.ParseConfig(postgresDSN(&tt.cfg))
			if err != nil {
				t.Fatalf("ParseConfig(postgresDSN()) error = %v", err)
			}
			if parsed.Host != tt.cfg.Host || parsed.Port != uint16(tt.cfg.Port) {
				t.Errorf("host = %s:%d, want %s:%d", parsed.Host, parsed.Port, tt.cfg.Host, tt.cfg.Port)
			}
			if parsed.User != tt.cfg.User {
				t.Errorf("user = %q, want %q", parsed.User, tt.cfg.User)
			}
			if parsed.Password != tt.cfg.Password {
				t.Errorf("password = %q, want %q", parsed.Password, tt.cfg.Password)
			}
			if parsed.Database != tt.cfg.DBName {
				t.Errorf("database = %q, want %q", parsed.Database, tt.cfg.DBName)
			}
			if parsed.ConnectTimeout != tt.wantTimeout {
				t.Errorf("connect timeout = %v, want %v", parsed.ConnectTimeout, tt.wantTimeout)
			}
		})
	}
}
