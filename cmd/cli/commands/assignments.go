package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/services"
)

func assignmentRequest(args []string) services.AssignmentRequest {
	return services.AssignmentRequest{
		PersonnelNo: args[0],
		StartDate:   args[1],
		EndDate:     args[2],
		Kind:        args[3],
	}
}

// CheckConflictCmd creates the checkConflict command
func CheckConflictCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkConflict <personnel_no> <start_date> <end_date> <kind>",
		Short: "Check a proposed assignment against the person's existing ones",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			result, err := services.CheckConflict(app.Ctx, app.Database, app.Logger, assignmentRequest(args))
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.Marshal(result.Response())
				if err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(conflictLine(result))
			for _, a := range result.Overlapping {
				fmt.Printf("  overlaps %s %s (%s)\n", formatRange(a), a.Kind, a.ID)
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

// CreateAssignmentCmd creates the createAssignment command
func CreateAssignmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createAssignment <personnel_no> <start_date> <end_date> <kind>",
		Short: "Create an assignment unless a conflict or the gatekeeper blocks it",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.CreateAssignment(app.Ctx, app.Database, app.Policies, app.Logger, assignmentRequest(args), app.Clock.Today())
			if err != nil {
				return err
			}

			if result.Blocked {
				fmt.Printf("\n%s✗ Not created:%s %s\n\n", colorRed, colorReset, result.BlockReason)
				return nil
			}

			a := result.Assignment
			fmt.Printf("\n✓ Assignment created successfully!\n\n")
			fmt.Printf("Assignment ID: %s\n", a.ID)
			fmt.Printf("Person:        %s (%s)\n", a.PersonName, a.PersonnelNo)
			fmt.Printf("Dates:         %s\n", formatRange(*a))
			fmt.Printf("Kind:          %s\n", a.Kind)
			if result.Conflict.Reason != "" {
				fmt.Printf("\n%s\n", conflictLine(result.Conflict))
			}
			fmt.Println()
			return nil
		},
	}
}

// CreateRecurringCmd creates the createRecurring command
func CreateRecurringCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createRecurring <duty_name> <personnel_no> <from> <to>",
		Short: "Create assignments for each occurrence of a configured recurring duty",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			duty, ok := app.Cfg.RecurringDuty(args[0])
			if !ok {
				return fmt.Errorf("no recurring duty named %q in config", args[0])
			}

			result, err := services.CreateRecurringAssignments(app.Ctx, app.Database, app.Policies, app.Logger, *duty, services.RecurringRequest{
				PersonnelNo: args[1],
				From:        args[2],
				To:          args[3],
			}, app.Clock.Today())
			if err != nil {
				return err
			}

			fmt.Printf("\n%s: %d of %d occurrences created\n\n", result.Duty, result.Created(), len(result.Occurrences))
			for _, o := range result.Occurrences {
				span := clock.FormatDate(o.StartDate) + ".." + clock.FormatDate(o.EndDate)
				if o.Result.Blocked {
					fmt.Printf("  %s✗ %s%s %s\n", colorRed, span, colorReset, o.Result.BlockReason)
					continue
				}
				fmt.Printf("  %s✓ %s%s %s\n", colorGreen, span, colorReset, o.Result.Assignment.ID)
			}
			fmt.Println()
			return nil
		},
	}
}

// SubmitReportCmd creates the submitReport command
func SubmitReportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submitReport <assignment_id>",
		Short: "Record the report for an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.SubmitReport(app.Ctx, app.Database, app.Logger, args[0], time.Now().UTC())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.AlreadySubmitted {
				// Imported rows may be marked submitted without a timestamp
				if at := result.Assignment.ReportSubmittedAt; at != nil {
					fmt.Fprintf(out, "Report for %s was already submitted at %s\n", result.Assignment.ID, at.Format(time.RFC3339))
				} else {
					fmt.Fprintf(out, "Report for %s was already submitted\n", result.Assignment.ID)
				}
				return nil
			}
			fmt.Fprintf(out, "✓ Report submitted for %s (%s)\n", result.Assignment.ID, formatRange(*result.Assignment))
			return nil
		},
	}
}

// ListAssignmentsCmd creates the listAssignments command
func ListAssignmentsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listAssignments",
		Short: "List assignments with their current status, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := listFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			today := app.Clock.Today()
			app.Logger.Debug("listAssignments command", zap.String("person", filter.PersonnelNo), zap.String("status", string(filter.Status)))

			items, err := services.ListAssignments(app.Ctx, app.Database, app.Policies, app.Logger, filter, today)
			if err != nil {
				return err
			}

			fmt.Printf("\nAssignments as of %s (%d)\n\n", clock.FormatDate(today), len(items))
			for _, it := range items {
				a := it.Assignment
				c := it.Classification
				fmt.Printf("%s%-12s%s %-24s %-8s %-20s %s\n",
					statusColor(c.Status), c.Status, colorReset,
					formatRange(a), a.Kind, fmt.Sprintf("%s (%s)", a.PersonName, a.PersonnelNo), c.Context)
			}
			fmt.Println()
			return nil
		},
	}

	addListFilterFlags(cmd)

	return cmd
}

func addListFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("person", "", "Only include this person's assignments")
	cmd.Flags().String("status", "", "Only include assignments with this status")
}

func listFilterFromFlags(cmd *cobra.Command) (services.ListFilter, error) {
	person, _ := cmd.Flags().GetString("person")
	statusFlag, _ := cmd.Flags().GetString("status")

	filter := services.ListFilter{PersonnelNo: person}
	if statusFlag != "" {
		s, err := parseStatus(statusFlag)
		if err != nil {
			return services.ListFilter{}, err
		}
		filter.Status = s
	}
	return filter, nil
}
