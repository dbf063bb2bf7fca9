package cmd

import (
	"context"
	"fmt"
	"time"

	"adminseed/internal/auth"
	"adminseed/internal/config"
	"adminseed/internal/console"
	"adminseed/internal/logging"
	"adminseed/internal/metrics"
	"adminseed/internal/seeder"
	"adminseed/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verifyAfterSeed bool
	quiet           bool
	noColor         bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the administrator account or reset its password",
	Long: `Look up the administrator by email. If it exists, its password is reset;
otherwise a new active account with role "admin" is created. Exits non-zero
when the run fails, leaving the database untouched.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.PersistentFlags().BoolVar(&verifyAfterSeed, "verify", false, "Re-read the account before commit and roll back if the stored hash does not match the password")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary box (failures are still printed)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()
	cfg.Database.Logger = logger

	reporter := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet, noColor)
	recorder := metrics.New()

	started := time.Now()
	report, err := seedAdmin(cmd.Context(), cfg, logger)
	recorder.ObserveRun(report.Result.Outcome.String(), string(seeder.ReasonOf(err)), started, time.Now())

	if cfg.Metrics.Textfile != "" {
		if werr := recorder.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn().Err(werr).Str("path", cfg.Metrics.Textfile).Msg("Metrics not written")
		}
	}

	if err != nil {
		reporter.Failure(report.Result.Email, err)
		return fmt.Errorf("%w: %v", errReported, err)
	}

	reporter.Success(report)
	return nil
}

// seedAdmin runs one seeding pass against the configured database.
func seedAdmin(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (console.Report, error) {
	report := console.Report{
		AppName: cfg.App.Name,
		Result: seeder.Result{
			Outcome: seeder.OutcomeFailed,
			Email:   cfg.Admin.Email,
		},
		Password: cfg.Admin.Password,
	}

	if report.Password == "" {
		password, err := auth.GeneratePassword(auth.DefaultPasswordLength)
		if err != nil {
			return report, &seeder.Error{Reason: seeder.ReasonHashing, Op: "generate password", Err: err}
		}
		report.Password = password
		report.PasswordGenerated = true
	}

	hasher, err := auth.NewBcryptHasher(cfg.Hash.Cost)
	if err != nil {
		return report, &seeder.Error{Reason: seeder.ReasonHashing, Op: "configure hasher", Err: err}
	}

	logger.Info().Str("driver", cfg.Database.Driver).Msg("Connecting to database")
	store, err := storage.Open(ctx, &cfg.Database)
	if err != nil {
		return report, &seeder.Error{Reason: seeder.ReasonConnection, Op: "connect", Err: err}
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.AutoMigrate {
		if err := store.AutoMigrate(); err != nil {
			return report, &seeder.Error{Reason: seeder.ReasonStorage, Op: "migrate", Err: err}
		}
	}

	opts := []seeder.Option{seeder.WithLogger(logger)}
	if verifyAfterSeed {
		opts = append(opts, seeder.WithVerification(auth.Verify))
	}

	s := seeder.New(store, hasher, opts...)
	result, err := s.Seed(ctx, seeder.Request{
		Email:    cfg.Admin.Email,
		FullName: cfg.Admin.Name,
		Password: report.Password,
	})
	report.Result = result
	if err != nil {
		return report, err
	}
	if verifyAfterSeed {
		logger.Info().Msg("Stored password hash verified before commit")
	}

	return report, nil
}
