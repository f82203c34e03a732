package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bou-cse/routines-api/internal/models"
)

func exportFixtureTerm() *models.Term {
	term := testTerm()
	term.Name = "Spring 2025"
	term.FullName = strPtr("B.Sc. in CSE, Spring 2025")
	term.Session = strPtr("2024-2025")
	term.StudyCenter = strPtr("Dhaka Study Center")
	term.LunchBreakStart = strPtr("13:00")
	term.LunchBreakEnd = strPtr("14:00")
	return term
}

func exportFixtureSessions(t *testing.T) *fakeSessions {
	t.Helper()
	date, err := time.Parse(models.DateLayout, "2025-01-03")
	require.NoError(t, err)
	return &fakeSessions{stored: []models.SessionDetail{
		{
			ClassSession: models.ClassSession{
				ID: "sess-1", TermID: "term-1", CourseID: "course-a",
				Weekday: "FRIDAY", ClassDate: date, StartTime: "09:00", EndTime: "10:00",
			},
			CourseCode:       "CSE101",
			CourseName:       "Structured Programming",
			TeacherName:      "Dr. Rahman",
			TeacherShortName: strPtr("AR"),
		},
	}}
}

func TestRoutineCSV(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{"term-1": exportFixtureTerm()}}
	svc := NewExportService(terms, exportFixtureSessions(t), nil, nil, nil)

	file, err := svc.RoutineCSV(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, "routine_spring_2025.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Date / Time")
	assert.Contains(t, lines[0], "09:00-10:00")
	assert.Contains(t, lines[0], "13:00-14:00")
	assert.Contains(t, lines[1], "2025-01-03 (Friday)")
	assert.Contains(t, lines[1], "CSE101 (AR)")
	assert.Contains(t, lines[1], "Lunch Break")
}

func TestRoutinePDF(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{"term-1": exportFixtureTerm()}}
	svc := NewExportService(terms, exportFixtureSessions(t), nil, nil, nil)

	file, err := svc.RoutinePDF(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, "routine_spring_2025.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	require.NotEmpty(t, file.Data)
	assert.True(t, strings.HasPrefix(string(file.Data[:5]), "%PDF-"))
}

func TestRoutineCSVUnknownTerm(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{}}
	svc := NewExportService(terms, exportFixtureSessions(t), nil, nil, nil)

	_, err := svc.RoutineCSV(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term not found")
}

func TestRoutineCSVRequiresTermID(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{}}
	svc := NewExportService(terms, exportFixtureSessions(t), nil, nil, nil)

	_, err := svc.RoutineCSV(context.Background(), "")
	require.Error(t, err)
}

func TestExportFilenameFallsBackToTerm(t *testing.T) {
	term := testTerm()
	term.Name = "  "
	assert.Equal(t, "routine_term.csv", exportFilename(term, "csv"))
}

func TestRoutineCSVRendersParallelSessions(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{"term-1": exportFixtureTerm()}}
	sessions := exportFixtureSessions(t)
	sessions.stored = append(sessions.stored, models.SessionDetail{
		ClassSession: models.ClassSession{
			ID: "sess-2", TermID: "term-1", CourseID: "course-b",
			Weekday: "FRIDAY", ClassDate: sessions.stored[0].ClassDate, StartTime: "09:00", EndTime: "10:00",
		},
		CourseCode:       "CSE102",
		CourseName:       "Programming Lab",
		TeacherName:      "Dr. Akter",
		TeacherShortName: strPtr("SA"),
	})
	svc := NewExportService(terms, sessions, nil, nil, nil)

	file, err := svc.RoutineCSV(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "CSE101 (AR) / CSE102 (SA)")
}

func TestCellFallsBackToFullTeacherName(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{"term-1": exportFixtureTerm()}}
	sessions := exportFixtureSessions(t)
	sessions.stored[0].TeacherShortName = nil
	svc := NewExportService(terms, sessions, nil, nil, nil)

	file, err := svc.RoutineCSV(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "CSE101 (Dr. Rahman)")
}
