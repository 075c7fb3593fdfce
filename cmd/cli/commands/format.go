package commands

import (
	"fmt"
	"strings"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

func statusColor(s status.Status) string {
	switch s {
	case status.StatusOverdue:
		return colorRed
	case status.StatusEndingSoon:
		return colorYellow
	case status.StatusCompleted:
		return colorDim
	default:
		return colorGreen
	}
}

// parseStatus accepts a status label in any case, with spaces, dashes or underscores
func parseStatus(s string) (status.Status, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for _, st := range []status.Status{status.StatusOverdue, status.StatusEndingSoon, status.StatusActive, status.StatusCompleted} {
		if strings.ReplaceAll(strings.ToLower(string(st)), " ", "") == normalized {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (want Overdue, Ending Soon, Active or Completed)", s)
}

func formatRange(a model.Assignment) string {
	return fmt.Sprintf("%s..%s", clock.FormatDate(a.StartDate), clock.FormatDate(a.EndDate))
}

// conflictLine renders a check result as a single line for the terminal
func conflictLine(r conflict.Result) string {
	switch r.Severity {
	case conflict.SeverityHard:
		return fmt.Sprintf("%s✗ Conflict:%s %s", colorRed, colorReset, r.Reason)
	case conflict.SeverityWarning:
		return fmt.Sprintf("%s⚠ Warning:%s %s", colorYellow, colorReset, r.Reason)
	default:
		return fmt.Sprintf("%s✓ No conflict%s", colorGreen, colorReset)
	}
}
