package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/cmd/cli/commands"
	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/postgres"
	"github.com/jakechorley/duty-roster/pkg/utils/logging"
)

var (
	env     string
	today   string
	app     = &commands.AppContext{}
	cleanup []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Duty Roster CLI - Manage personnel duty assignments",
		Long:  `A CLI tool for creating duty assignments, tracking report status, and applying discipline-based eligibility rules.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer shutdown()
			if app.Persist != nil {
				return app.Persist()
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&today, "today", "", "Evaluate as of this date (YYYY-MM-DD) instead of the current day")

	// Add all commands
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportRosterCmd(app))
	rootCmd.AddCommand(commands.CheckConflictCmd(app))
	rootCmd.AddCommand(commands.CreateAssignmentCmd(app))
	rootCmd.AddCommand(commands.CreateRecurringCmd(app))
	rootCmd.AddCommand(commands.SubmitReportCmd(app))
	rootCmd.AddCommand(commands.ListAssignmentsCmd(app))
	rootCmd.AddCommand(commands.ExportAssignmentsCmd(app))
	rootCmd.AddCommand(commands.ScoreCmd(app))
	rootCmd.AddCommand(commands.UnitScoreCmd(app))
	rootCmd.AddCommand(commands.GatekeeperCmd(app))
	rootCmd.AddCommand(commands.IdleCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, clock, and store
func initApp() error {
	var err error
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cleanup = append(cleanup, func() { app.Logger.Sync() })

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Policies = services.PoliciesFromConfig(app.Cfg.Policy)
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("timezone", app.Cfg.Timezone),
		zap.Int("gatekeeper_exclude_count", app.Cfg.Policy.GatekeeperExcludeCount),
		zap.Bool("enforce_gatekeeper", app.Cfg.Policy.EnforceGatekeeper))

	// Initialize clock
	if today != "" {
		date, err := clock.ParseDate(today)
		if err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
		app.Clock = clock.Fixed(date)
		app.Logger.Info("Using fixed date", zap.String("today", today))
	} else {
		loc, err := app.Cfg.Location()
		if err != nil {
			return err
		}
		app.Clock = clock.New(loc)
	}

	// Initialize store
	if app.Cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to database")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		cleanup = append(cleanup, pg.Close)
		app.Database = pg
		app.Logger.Info("Database initialized successfully")
		return nil
	}

	app.Logger.Info("Loading roster snapshot", zap.String("path", app.Cfg.SnapshotPath))
	mem, err := db.LoadSnapshot(app.Cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load roster snapshot: %w", err)
	}
	app.Database = mem
	app.Persist = func() error {
		if !mem.Dirty() {
			return nil
		}
		if err := mem.SaveSnapshot(app.Cfg.SnapshotPath); err != nil {
			return err
		}
		app.Logger.Debug("Roster snapshot saved", zap.String("path", app.Cfg.SnapshotPath))
		return nil
	}
	app.Logger.Info("Roster snapshot loaded successfully")

	return nil
}

// shutdown releases resources in reverse order of acquisition
func shutdown() {
	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}
	cleanup = nil
}
