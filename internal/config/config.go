package config

import (
	"fmt"
	"strings"
	"time"

	"adminseed/internal/storage"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const DefaultConnectTimeout = 5 * time.Second

// Config holds everything a seeding run needs.
type Config struct {
	App      AppConfig
	Admin    AdminConfig
	Hash     HashConfig
	Database storage.Config
	Log      LogConfig
	Metrics  MetricsConfig

	// AutoMigrate creates or updates the users table before seeding.
	AutoMigrate bool
}

type AppConfig struct {
	Name string
}

// AdminConfig describes the account to create or reset. An empty Password
// means one is generated for the run.
type AdminConfig struct {
	Email    string
	Name     string
	Password string
}

type HashConfig struct {
	Cost int
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Textfile string
}

// SetDefaults registers defaults for keys that are not bound to a flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Admin Seeder")
	v.SetDefault("admin.name", "System Administrator")
	v.SetDefault("hash.cost", bcrypt.DefaultCost)
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "adminseed")
	v.SetDefault("db.name", "adminseed")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "./data/adminseed.db")
	v.SetDefault("db.connect_timeout", DefaultConnectTimeout)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration for a seeding run from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := read(v)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutAdmin is Load for commands that never touch an account.
func LoadWithoutAdmin(v *viper.Viper) (*Config, error) {
	cfg := read(v)
	if err := validateCommon(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func read(v *viper.Viper) *Config {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
		},
		Admin: AdminConfig{
			Email:    strings.TrimSpace(v.GetString("admin.email")),
			Name:     strings.TrimSpace(v.GetString("admin.name")),
			Password: v.GetString("admin.password"),
		},
		Hash: HashConfig{
			Cost: v.GetInt("hash.cost"),
		},
		Database: storage.Config{
			Driver:         strings.ToLower(v.GetString("db.driver")),
			Host:           v.GetString("db.host"),
			Port:           v.GetInt("db.port"),
			User:           v.GetString("db.user"),
			Password:       v.GetString("db.password"),
			DBName:         v.GetString("db.name"),
			SSLMode:        v.GetString("db.sslmode"),
			Path:           v.GetString("db.path"),
			ConnectTimeout: v.GetDuration("db.connect_timeout"),
			ConnectRetries: v.GetInt("db.connect_retries"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
		AutoMigrate: v.GetBool("db.auto_migrate"),
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = storage.DriverSQLite
		if cfg.Database.Host != "" {
			cfg.Database.Driver = storage.DriverPostgres
		}
	}
	cfg.Database.LogQueries = cfg.Log.Level == "debug" || cfg.Log.Level == "trace"
	return cfg
}

func validateConfig(cfg *Config) error {
	if cfg.Admin.Email == "" {
		return fmt.Errorf("admin email must be set (--email or ADMINSEED_ADMIN_EMAIL)")
	}
	if !strings.Contains(cfg.Admin.Email, "@") {
		return fmt.Errorf("admin email %q is not an email address", cfg.Admin.Email)
	}
	if cfg.Admin.Name == "" {
		return fmt.Errorf("admin name must not be empty")
	}
	if cfg.Hash.Cost < bcrypt.MinCost || cfg.Hash.Cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return validateCommon(cfg)
}

func validateCommon(cfg *Config) error {
	if err := validateDatabase(&cfg.Database); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}

func validateDatabase(db *storage.Config) error {
	switch db.Driver {
	case storage.DriverSQLite:
		if db.Path == "" {
			return fmt.Errorf("db path must be set for sqlite")
		}
	case storage.DriverPostgres:
		if db.Host == "" {
			return fmt.Errorf("db host must be set for postgres")
		}
		if db.Port <= 0 {
			return fmt.Errorf("db port must be greater than 0")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", db.Driver)
	}
	if db.ConnectTimeout <= 0 {
		return fmt.Errorf("db connect timeout must be greater than 0")
	}
	if db.ConnectRetries < 0 {
		return fmt.Errorf("db connect retries must not be negative")
	}
	return nil
}
