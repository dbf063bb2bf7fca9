package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminseed/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Path is the SQLite database file. ":memory:" opens a private in-memory database.
	Path string

	ConnectTimeout time.Duration
	ConnectRetries int
	LogQueries     bool
	Logger         zerolog.Logger
}

// Store implements Storage on top of gorm for both PostgreSQL and SQLite.
type Store struct {
	db     *gorm.DB
	driver string
}

var _ Storage = (*Store)(nil)

// Open connects to the configured database, retrying with exponential
// backoff up to cfg.ConnectRetries extra times.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	var (
		store *Store
		err   error
	)
	attempts := cfg.ConnectRetries + 1
	for i := 0; i < attempts; i++ {
		store, err = open(ctx, cfg)
		if err == nil {
			return store, nil
		}

		if i < attempts-1 {
			wait := time.Duration(1<<uint(i)) * time.Second
			cfg.Logger.Warn().Err(err).
				Int("attempt", i+1).
				Int("max_attempts", attempts).
				Dur("retry_in", wait).
				Msg("Database connection failed")

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return nil, err
}

func open(ctx context.Context, cfg *Config) (*Store, error) {
	// The first connection is made by the ping below, bounded by ctx.
	gormCfg := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	if cfg.LogQueries {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = openPostgres(cfg, gormCfg)
	case DriverSQLite:
		db, err = openSQLite(cfg, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	store := &Store{db: db, driver: cfg.Driver}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: ping failed: %v", ErrUnavailable, err)
	}

	return store, nil
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&models.Account{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Transaction(ctx context.Context, fn func(Directory) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, driver: s.driver})
	})
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", models.NormalizeEmail(email)).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	return s.db.WithContext(ctx).Create(account).Error
}

// UpdateAccountPassword writes only the password columns; created_at and the
// identifying fields are never part of the statement.
func (s *Store) UpdateAccountPassword(ctx context.Context, id uint, passwordHash string, resetAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hashed_password":   passwordHash,
			"password_reset_at": resetAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountAccounts(ctx context.Context, email string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("LOWER(email) = ?", models.NormalizeEmail(email)).
		Count(&count).Error
	return count, err
}
