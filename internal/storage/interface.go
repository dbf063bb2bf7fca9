package storage

import (
	"context"
	"time"

	"adminseed/internal/models"
)

// Directory is the account lookup and write surface used inside a transaction.
type Directory interface {
	// FindAccountByEmail matches case-insensitively and returns ErrNotFound when absent.
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccountPassword(ctx context.Context, id uint, passwordHash string, resetAt time.Time) error
	CountAccounts(ctx context.Context, email string) (int64, error)
}

type Storage interface {
	Directory

	// Transaction runs fn in a single database transaction. The transaction
	// commits when fn returns nil and rolls back on error or panic.
	Transaction(ctx context.Context, fn func(Directory) error) error

	AutoMigrate() error
	Ping(ctx context.Context) error
	Close() error
}
