// Package export renders classified assignments as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

const (
	AssignmentsSheet = "Assignments"
	SummarySheet     = "Summary"
)

var assignmentHeader = []string{
	"ID", "Personnel No", "Name", "Kind", "Start", "End", "Status", "Context", "Report Submitted",
}

var summaryOrder = []status.Status{
	status.StatusOverdue, status.StatusEndingSoon, status.StatusActive, status.StatusCompleted,
}

// WriteAssignments writes items, in the given order, to w as an xlsx workbook.
// A second sheet counts assignments per status as of today.
func WriteAssignments(w io.Writer, items []status.Annotated, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AssignmentsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, AssignmentsSheet, 1, toCells(assignmentHeader)); err != nil {
		return err
	}
	last := cellName(len(assignmentHeader), 1)
	if err := f.SetCellStyle(AssignmentsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	counts := make(map[status.Status]int, len(summaryOrder))
	for i, it := range items {
		a := it.Assignment
		c := it.Classification
		counts[c.Status]++

		submitted := ""
		if a.ReportSubmittedAt != nil {
			submitted = clock.FormatDate(*a.ReportSubmittedAt)
		}
		row := []any{
			a.ID, string(a.PersonnelNo), a.PersonName, string(a.Kind),
			clock.FormatDate(a.StartDate), clock.FormatDate(a.EndDate),
			string(c.Status), c.Context, submitted,
		}
		if err := writeRow(f, AssignmentsSheet, i+2, row); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 38, "B": 14, "C": 24, "D": 10, "E": 12, "F": 12, "G": 14, "H": 22, "I": 16}
	for col, width := range widths {
		if err := f.SetColWidth(AssignmentsSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRow(f, SummarySheet, 1, []any{"As of", clock.FormatDate(today)}); err != nil {
		return err
	}
	if err := writeRow(f, SummarySheet, 2, []any{"Status", "Count"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A2", "B2", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	for i, s := range summaryOrder {
		if err := writeRow(f, SummarySheet, i+3, []any{string(s), counts[s]}); err != nil {
			return err
		}
	}
	if err := writeRow(f, SummarySheet, len(summaryOrder)+3, []any{"Total", len(items)}); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
