package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/export"
)

// ExportAssignmentsCmd creates the exportAssignments command
func ExportAssignmentsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportAssignments <file.xlsx>",
		Short: "Write assignments and their current status to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := listFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			today := app.Clock.Today()
			items, err := services.ListAssignments(app.Ctx, app.Database, app.Policies, app.Logger, filter, today)
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()

			if err := export.WriteAssignments(f, items, today); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close export file: %w", err)
			}

			app.Logger.Info("Exported assignments", zap.String("file", args[0]), zap.Int("count", len(items)))
			fmt.Printf("Exported %d assignments to %s\n", len(items), args[0])
			return nil
		},
	}

	addListFilterFlags(cmd)

	return cmd
}
