package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-roster/pkg/core/discipline"
	"github.com/jakechorley/duty-roster/pkg/core/services"
)

func printBreakdown(b discipline.Breakdown) {
	fmt.Printf("  Attendance:  %3d\n", b.Attendance)
	fmt.Printf("  Roster:      %3d\n", b.Roster)
	fmt.Printf("  Daily log:   %3d\n", b.DailyLog)
	fmt.Printf("  Reporting:   %3d", b.AdjustedReporting)
	if b.LateCount > 0 {
		fmt.Printf("  (%d, -%d for %d overdue)", b.BaseReporting, b.Penalty, b.LateCount)
	}
	fmt.Println()
	fmt.Printf("  Final:       %3d\n", b.Final)
}

// ScoreCmd creates the score command
func ScoreCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <personnel_no>",
		Short: "Show a person's discipline score as of today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown, err := services.ComputeScore(app.Ctx, app.Database, app.Policies, app.Logger, args[0], app.Clock.Today())
			if err != nil {
				return err
			}
			if breakdown == nil {
				fmt.Printf("No discipline record for %s\n", args[0])
				return nil
			}

			fmt.Printf("\nDiscipline score for %s\n\n", breakdown.PersonnelNo)
			printBreakdown(*breakdown)
			fmt.Println()
			return nil
		},
	}
}

// UnitScoreCmd creates the unitScore command
func UnitScoreCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unitScore <unit> [unit...]",
		Short: "Show the average discipline score of one or more units",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := services.UnitScores(app.Ctx, app.Database, app.Policies, app.Logger, args, app.Clock.Today())
			if err != nil {
				return err
			}

			for _, result := range results {
				fmt.Printf("\nUnit %s: %d members, %d scored\n", result.Unit, result.Members, result.Scored)
				if result.Scored == 0 {
					fmt.Printf("%sNo scored members%s\n", colorDim, colorReset)
					continue
				}
				fmt.Printf("Average score: %d\n\n", result.Average)
				for _, b := range result.Breakdowns {
					fmt.Printf("  %-12s %3d\n", b.PersonnelNo, b.Final)
				}
			}
			fmt.Println()
			return nil
		},
	}
}

// GatekeeperCmd creates the gatekeeper command
func GatekeeperCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gatekeeper <unit>",
		Short: "Show which unit members are currently barred from new assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.FilterEligible(app.Ctx, app.Database, app.Policies, app.Logger, args[0], app.Clock.Today())
			if err != nil {
				return err
			}

			fmt.Println()
			if !result.Enabled {
				fmt.Printf("%s⚠ %s%s\n\n", colorYellow, result.Warning, colorReset)
			} else {
				fmt.Printf("Excluded (%d):\n", len(result.ExcludedBottom))
				for _, r := range result.ExcludedBottom {
					fmt.Printf("  %s✗ %-24s %3d%s\n", colorRed, fmt.Sprintf("%s (%s)", r.Person.Name, r.Person.PersonnelNo), r.Score, colorReset)
				}
				fmt.Println()
			}

			fmt.Printf("Eligible (%d):\n", len(result.Eligible))
			for _, p := range result.Eligible {
				fmt.Printf("  %s✓%s %s (%s)\n", colorGreen, colorReset, p.Name, p.PersonnelNo)
			}
			if len(result.Unscored) > 0 {
				fmt.Printf("\n%sUnscored: %d member(s) have no discipline record%s\n", colorDim, len(result.Unscored), colorReset)
			}
			fmt.Println()
			return nil
		},
	}
}

// IdleCmd creates the idle command
func IdleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "idle <personnel_no>",
		Short: "Show how many days a person has gone without an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := services.IdleDays(app.Ctx, app.Database, app.Policies, app.Logger, args[0], app.Clock.Today())
			if err != nil {
				return err
			}

			if days == app.Policies.Idle.SentinelDays {
				fmt.Printf("%s: %d days idle (no assignment on record)\n", args[0], days)
				return nil
			}
			fmt.Printf("%s: %d days idle\n", args[0], days)
			return nil
		},
	}
}
