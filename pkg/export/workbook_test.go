package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := clock.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestWriteAssignments(t *testing.T) {
	today := day(t, "2025-06-10")
	submittedAt := day(t, "2025-06-02")

	assignments := []model.Assignment{
		{
			ID: "a-1", PersonnelNo: "1001", PersonName: "Avery Hill", Kind: model.KindOnSite,
			StartDate: day(t, "2025-05-20"), EndDate: day(t, "2025-06-01"),
		},
		{
			ID: "a-2", PersonnelNo: "1002", PersonName: "Sam Ortiz", Kind: model.KindRemote,
			StartDate: day(t, "2025-05-25"), EndDate: day(t, "2025-06-01"),
			ReportSubmitted: true, ReportSubmittedAt: &submittedAt,
		},
		{
			ID: "a-3", PersonnelNo: "1003", PersonName: "Jo Park", Kind: model.KindOnSite,
			StartDate: day(t, "2025-06-05"), EndDate: day(t, "2025-06-30"),
		},
	}
	items := status.NewClassifier(3).Annotate(assignments, today)

	var buf bytes.Buffer
	require.NoError(t, WriteAssignments(&buf, items, today))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{AssignmentsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(AssignmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, assignmentHeader, rows[0])
	assert.Equal(t, []string{"a-1", "1001", "Avery Hill", "On-site", "2025-05-20", "2025-06-01", "Overdue", "Overdue by 9 days"}, rows[1])
	assert.Equal(t, "Completed", rows[2][6])
	assert.Equal(t, "2025-06-02", rows[2][8])
	assert.Equal(t, "Active", rows[3][6])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"As of", "2025-06-10"},
		{"Status", "Count"},
		{"Overdue", "1"},
		{"Ending Soon", "0"},
		{"Active", "1"},
		{"Completed", "1"},
		{"Total", "3"},
	}, summary)
}

func TestWriteAssignments_Empty(t *testing.T) {
	today := day(t, "2025-06-10")

	var buf bytes.Buffer
	require.NoError(t, WriteAssignments(&buf, nil, today))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AssignmentsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{assignmentHeader}, rows)

	total, err := f.GetCellValue(SummarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
