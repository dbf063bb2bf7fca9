package cmd

import (
	"adminseed/internal/config"
	"adminseed/internal/logging"
	"adminseed/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the users table without touching any account`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithoutAdmin(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg.Database.Logger = logger

	store, err := storage.Open(cmd.Context(), &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info().Str("driver", store.Driver()).Msg("Running database migrations...")
	if err := store.AutoMigrate(); err != nil {
		return err
	}

	logger.Info().Msg("Migrations completed successfully")
	return nil
}
