package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := ParseInterval(start, end)
	require.NoError(t, err)
	return iv
}

func TestBuildGridEmpty(t *testing.T) {
	grid := BuildGrid(nil, nil, nil, nil, nil)
	assert.Empty(t, grid.Columns)
	assert.Empty(t, grid.Rows)
}

func TestBuildGridColumnsAndSpans(t *testing.T) {
	lunch := mustInterval(t, "13:00", "14:00")
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE101", Time: mustInterval(t, "08:00", "09:30")},
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE202", Time: mustInterval(t, "09:30", "11:00")},
		{Date: day("2025-01-04"), Weekday: "SATURDAY", CourseCode: "CSE303", Time: mustInterval(t, "08:00", "11:00")},
	}

	grid := BuildGrid(sessions, &lunch, nil, nil, nil)

	// slot 11:00-13:00 is covered by nothing and must be dropped
	require.Equal(t, []string{"08:00-09:30", "09:30-11:00", "13:00-14:00"}, grid.HeaderLabels())
	require.Len(t, grid.Rows, 2)

	for _, row := range grid.Rows {
		total := 0
		for _, cell := range row.Cells {
			total += cell.Span
		}
		assert.Equal(t, len(grid.Columns), total, "spans must cover every column exactly once")
	}

	friday := grid.Rows[0]
	assert.Equal(t, "FRIDAY", friday.Weekday)
	require.Len(t, friday.Cells, 3)
	assert.Equal(t, CellSession, friday.Cells[0].Kind)
	assert.Equal(t, "CSE101", friday.Cells[0].Sessions[0].CourseCode)
	assert.Equal(t, 1, friday.Cells[0].Span)
	assert.Equal(t, "CSE202", friday.Cells[1].Sessions[0].CourseCode)
	assert.Equal(t, CellLunch, friday.Cells[2].Kind)

	saturday := grid.Rows[1]
	require.Len(t, saturday.Cells, 2)
	assert.Equal(t, CellSession, saturday.Cells[0].Kind)
	assert.Equal(t, 2, saturday.Cells[0].Span, "three-hour class spans both covered slots")
	assert.Equal(t, CellLunch, saturday.Cells[1].Kind)
}

func TestBuildGridRowsSortedByDate(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-02-07"), Weekday: "FRIDAY", CourseCode: "B", Time: mustInterval(t, "09:00", "10:00")},
		{Date: day("2025-01-31"), Weekday: "FRIDAY", CourseCode: "A", Time: mustInterval(t, "09:00", "10:00")},
	}
	grid := BuildGrid(sessions, nil, nil, nil, nil)
	require.Len(t, grid.Rows, 2)
	assert.True(t, grid.Rows[0].Date.Before(grid.Rows[1].Date))
}

func TestBuildGridMakeupPlaceholder(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE101", Time: mustInterval(t, "09:00", "10:00")},
	}
	makeup := []time.Time{day("2025-01-10")}

	grid := BuildGrid(sessions, nil, makeup, nil, nil)
	require.Len(t, grid.Rows, 2)

	placeholder := grid.Rows[1]
	assert.Equal(t, day("2025-01-10"), placeholder.Date)
	for _, cell := range placeholder.Cells {
		assert.Equal(t, CellMakeup, cell.Kind)
	}
}

func TestBuildGridEverySessionPlaced(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "A", Time: mustInterval(t, "08:00", "09:00")},
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "B", Time: mustInterval(t, "09:00", "10:30")},
		{Date: day("2025-01-10"), Weekday: "FRIDAY", CourseCode: "A", Time: mustInterval(t, "08:00", "09:00")},
	}
	grid := BuildGrid(sessions, nil, nil, nil, nil)

	assert.Equal(t, len(sessions), placedSessions(grid))
}

func placedSessions(grid Grid) int {
	placed := 0
	for _, row := range grid.Rows {
		for _, cell := range row.Cells {
			placed += len(cell.Sessions)
		}
	}
	return placed
}

func TestBuildGridParallelSessionsShareCell(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE101", TeacherName: "Dr. Rahman", Time: mustInterval(t, "10:00", "11:00")},
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE202", TeacherName: "Dr. Akter", Time: mustInterval(t, "10:00", "11:00")},
	}

	grid := BuildGrid(sessions, nil, nil, nil, nil)

	require.Len(t, grid.Rows, 1)
	require.Len(t, grid.Rows[0].Cells, 1)
	cell := grid.Rows[0].Cells[0]
	assert.Equal(t, CellSession, cell.Kind)
	require.Len(t, cell.Sessions, 2)
	assert.Equal(t, "CSE101", cell.Sessions[0].CourseCode)
	assert.Equal(t, "CSE202", cell.Sessions[1].CourseCode)
	assert.Equal(t, 2, placedSessions(grid))
}

func TestBuildGridStaggeredOverlapKeepsBothSessions(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE101", Time: mustInterval(t, "09:00", "10:30")},
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE202", Time: mustInterval(t, "10:00", "11:30")},
	}

	grid := BuildGrid(sessions, nil, nil, nil, nil)

	require.Len(t, grid.Rows, 1)
	require.Len(t, grid.Rows[0].Cells, 1)
	cell := grid.Rows[0].Cells[0]
	require.Len(t, cell.Sessions, 2)
	assert.Equal(t, len(grid.Columns), cell.Span, "overlap chain widens the cell to its latest end")
}

func TestBuildGridDropsOutOfRangeMakeup(t *testing.T) {
	sessions := []Session{
		{Date: day("2025-01-03"), Weekday: "FRIDAY", CourseCode: "CSE101", Time: mustInterval(t, "09:00", "10:00")},
	}
	makeup := []time.Time{day("2025-01-10"), day("2025-03-15"), day("2024-12-20")}
	start, end := day("2025-01-01"), day("2025-01-31")

	grid := BuildGrid(sessions, nil, makeup, &start, &end)

	require.Len(t, grid.Rows, 2)
	assert.Equal(t, day("2025-01-03"), grid.Rows[0].Date)
	assert.Equal(t, day("2025-01-10"), grid.Rows[1].Date)
}
