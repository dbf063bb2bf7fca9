package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"adminseed/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

// errReported marks failures that were already printed for the operator.
var errReported = errors.New("failure already reported")

var rootCmd = &cobra.Command{
	Use:   "adminseed",
	Short: "Create or reset the administrator account of an application database",
	Long: `adminseed makes sure exactly one administrator account exists for the
configured email address:
- creates it with role "admin" when it is missing
- resets its password when it already exists
- works against SQLite or PostgreSQL, one transaction per run

Run without a subcommand to seed.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSeed,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./adminseed.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")

	// Account flags
	rootCmd.PersistentFlags().String("app-name", "Admin Seeder", "Product name shown in the summary")
	rootCmd.PersistentFlags().String("email", "", "Administrator email (lookup key, stored lowercased)")
	rootCmd.PersistentFlags().String("name", "System Administrator", "Administrator display name")
	rootCmd.PersistentFlags().String("password", "", "Administrator password (generated if empty)")
	rootCmd.PersistentFlags().Int("bcrypt-cost", 10, "bcrypt cost factor")

	// Database flags (PostgreSQL if db-host is set, SQLite otherwise)
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres (default depends on db-host)")
	rootCmd.PersistentFlags().String("db-host", "", "PostgreSQL host (if empty, uses SQLite)")
	rootCmd.PersistentFlags().Int("db-port", 5432, "PostgreSQL port")
	rootCmd.PersistentFlags().String("db-user", "adminseed", "PostgreSQL user")
	rootCmd.PersistentFlags().String("db-password", "", "PostgreSQL password")
	rootCmd.PersistentFlags().String("db-name", "adminseed", "PostgreSQL database name")
	rootCmd.PersistentFlags().String("db-sslmode", "disable", "PostgreSQL SSL mode")
	rootCmd.PersistentFlags().String("db-path", "./data/adminseed.db", "SQLite database file")
	rootCmd.PersistentFlags().Duration("db-connect-timeout", config.DefaultConnectTimeout, "Database connect/ping timeout")
	rootCmd.PersistentFlags().Int("db-connect-retries", 0, "Extra connection attempts with exponential backoff")
	rootCmd.PersistentFlags().Bool("migrate", true, "Create or update the users table before seeding")

	// Output flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console or json)")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	bindFlags(map[string]string{
		"app.name":           "app-name",
		"admin.email":        "email",
		"admin.name":         "name",
		"admin.password":     "password",
		"hash.cost":          "bcrypt-cost",
		"db.driver":          "db-driver",
		"db.host":            "db-host",
		"db.port":            "db-port",
		"db.user":            "db-user",
		"db.password":        "db-password",
		"db.name":            "db-name",
		"db.sslmode":         "db-sslmode",
		"db.path":            "db-path",
		"db.connect_timeout": "db-connect-timeout",
		"db.connect_retries": "db-connect-retries",
		"db.auto_migrate":    "migrate",
		"log.level":          "log-level",
		"log.format":         "log-format",
		"metrics.textfile":   "metrics-textfile",
	})
}

func bindFlags(keys map[string]string) {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "Failed to load env file:", err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/adminseed/")
		viper.SetConfigType("yaml")
		viper.SetConfigName("adminseed")
	}

	viper.SetEnvPrefix("ADMINSEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
