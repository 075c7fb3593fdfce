package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// Migrator is implemented by stores with a schema to manage
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}

// RosterImporter is implemented by stores that accept bulk person imports
type RosterImporter interface {
	ImportRoster(ctx context.Context, persons []model.Person, records []model.DisciplineRecord) error
}

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := app.Database.(Migrator)
			if !ok {
				return fmt.Errorf("the configured store has no schema to migrate (set databaseURL)")
			}

			applied, err := m.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}
			app.Logger.Info("Migrations applied", zap.Strings("files", applied))
			for _, name := range applied {
				fmt.Printf("  applied %s\n", name)
			}
			fmt.Println("✓ Database is up to date")
			return nil
		},
	}
}

// ImportRosterCmd creates the importRoster command
func ImportRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importRoster <snapshot_file>",
		Short: "Load persons and discipline records from a YAML roster file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer, ok := app.Database.(RosterImporter)
			if !ok {
				return fmt.Errorf("the configured store does not support roster imports (set databaseURL)")
			}

			snap, err := db.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			persons, records, err := snap.Roster()
			if err != nil {
				return err
			}

			if err := importer.ImportRoster(app.Ctx, persons, records); err != nil {
				return err
			}

			app.Logger.Info("Roster imported",
				zap.Int("persons", len(persons)),
				zap.Int("discipline_records", len(records)))
			fmt.Printf("✓ Imported %d persons and %d discipline records\n", len(persons), len(records))
			return nil
		},
	}
}
