package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bou-cse/routines-api/internal/dto"
	"github.com/bou-cse/routines-api/internal/models"
	"github.com/bou-cse/routines-api/internal/timetable"
)

type stubTermReader struct {
	terms map[string]*models.Term
}

func (s *stubTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if term, ok := s.terms[id]; ok {
		return term, nil
	}
	return nil, sql.ErrNoRows
}

type stubTemplateReader struct {
	rows []models.TemplateDetail
}

func (s *stubTemplateReader) ListByWeekdayAndTeacher(ctx context.Context, weekday, teacherID, excludeTermID string) ([]models.TemplateDetail, error) {
	var out []models.TemplateDetail
	for _, row := range s.rows {
		if row.Weekday != weekday || row.TeacherID != teacherID {
			continue
		}
		if excludeTermID != "" && row.TermID == excludeTermID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func templateRow(termID, courseID, code, teacherID, weekday, start, end string) models.TemplateDetail {
	return models.TemplateDetail{
		RoutineTemplate: models.RoutineTemplate{
			ID:        "tpl-" + courseID + "-" + weekday + "-" + start,
			TermID:    termID,
			CourseID:  courseID,
			Weekday:   weekday,
			StartTime: start,
			EndTime:   end,
		},
		CourseCode:  code,
		CourseName:  code + " Name",
		TeacherID:   teacherID,
		TeacherName: "Teacher " + teacherID,
	}
}

func strPtr(v string) *string { return &v }

func TestConflictCheckTeacherOverlap(t *testing.T) {
	templates := &stubTemplateReader{rows: []models.TemplateDetail{
		templateRow("term-1", "course-a", "CSE101", "teach-1", "FRIDAY", "09:00", "10:30"),
	}}
	svc := NewConflictService(&stubTermReader{}, templates, nil, nil)

	result, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		Weekday:   "FRIDAY",
		StartTime: "10:00",
		EndTime:   "11:30",
		TeacherID: "teach-1",
	})
	require.NoError(t, err)
	assert.True(t, result.HasOverlaps)
	require.Len(t, result.Overlaps, 1)
	assert.Equal(t, models.ConflictTeacher, result.Overlaps[0].Kind)
	assert.Equal(t, "CSE101", result.Overlaps[0].CourseCode)
}

func TestConflictCheckAdjacentSlotsDoNotOverlap(t *testing.T) {
	templates := &stubTemplateReader{rows: []models.TemplateDetail{
		templateRow("term-1", "course-a", "CSE101", "teach-1", "FRIDAY", "09:00", "10:30"),
	}}
	svc := NewConflictService(&stubTermReader{}, templates, nil, nil)

	result, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		Weekday:   "FRIDAY",
		StartTime: "10:30",
		EndTime:   "12:00",
		TeacherID: "teach-1",
	})
	require.NoError(t, err)
	assert.False(t, result.HasOverlaps)
	assert.Empty(t, result.Overlaps)
}

func TestConflictCheckExcludesOwnCourse(t *testing.T) {
	templates := &stubTemplateReader{rows: []models.TemplateDetail{
		templateRow("term-1", "course-a", "CSE101", "teach-1", "FRIDAY", "09:00", "10:30"),
	}}
	svc := NewConflictService(&stubTermReader{}, templates, nil, nil)

	result, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		Weekday:         "FRIDAY",
		StartTime:       "09:30",
		EndTime:         "11:00",
		TeacherID:       "teach-1",
		ExcludeCourseID: "course-a",
	})
	require.NoError(t, err)
	assert.False(t, result.HasOverlaps)
}

func TestConflictCheckLunchOverride(t *testing.T) {
	svc := NewConflictService(&stubTermReader{}, &stubTemplateReader{}, nil, nil)

	result, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		Weekday:         "FRIDAY",
		StartTime:       "12:30",
		EndTime:         "13:30",
		TeacherID:       "teach-1",
		LunchBreakStart: "13:00",
		LunchBreakEnd:   "14:00",
	})
	require.NoError(t, err)
	require.Len(t, result.Overlaps, 1)
	assert.Equal(t, models.ConflictLunch, result.Overlaps[0].Kind)
	assert.Equal(t, "13:00", result.Overlaps[0].StartTime)
	assert.Equal(t, "14:00", result.Overlaps[0].EndTime)
}

func TestConflictCheckLunchFallsBackToTerm(t *testing.T) {
	terms := &stubTermReader{terms: map[string]*models.Term{
		"term-1": {ID: "term-1", LunchBreakStart: strPtr("13:00"), LunchBreakEnd: strPtr("14:00")},
	}}
	svc := NewConflictService(terms, &stubTemplateReader{}, nil, nil)

	result, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		TermID:    "term-1",
		Weekday:   "FRIDAY",
		StartTime: "13:30",
		EndTime:   "15:00",
		TeacherID: "teach-1",
	})
	require.NoError(t, err)
	require.Len(t, result.Overlaps, 1)
	assert.Equal(t, models.ConflictLunch, result.Overlaps[0].Kind)
}

func TestConflictCheckInvalidInterval(t *testing.T) {
	svc := NewConflictService(&stubTermReader{}, &stubTemplateReader{}, nil, nil)

	_, err := svc.Check(context.Background(), dto.ConflictCheckQuery{
		Weekday:   "FRIDAY",
		StartTime: "11:00",
		EndTime:   "10:00",
		TeacherID: "teach-1",
	})
	assert.Error(t, err)
}

func mustSlot(t *testing.T, start, end string) timetable.Interval {
	t.Helper()
	iv, err := timetable.ParseInterval(start, end)
	require.NoError(t, err)
	return iv
}

func TestCheckBatchPairwiseTeacherConflict(t *testing.T) {
	svc := NewConflictService(&stubTermReader{}, &stubTemplateReader{}, nil, nil)

	rows := []ConflictCandidate{
		{CourseID: "course-a", CourseCode: "CSE101", TeacherID: "teach-1", TeacherName: "Dr. Rahman", Weekday: "FRIDAY", Slot: mustSlot(t, "09:00", "10:30")},
		{CourseID: "course-b", CourseCode: "CSE202", TeacherID: "teach-1", TeacherName: "Dr. Rahman", Weekday: "FRIDAY", Slot: mustSlot(t, "10:00", "11:30")},
	}
	conflicts, err := svc.CheckBatch(context.Background(), "term-1", rows, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTeacher, conflicts[0].Kind)
	assert.Equal(t, "CSE202", conflicts[0].CourseCode)
}

func TestCheckBatchDifferentTeachersNoConflict(t *testing.T) {
	svc := NewConflictService(&stubTermReader{}, &stubTemplateReader{}, nil, nil)

	rows := []ConflictCandidate{
		{CourseID: "course-a", CourseCode: "CSE101", TeacherID: "teach-1", Weekday: "FRIDAY", Slot: mustSlot(t, "09:00", "10:30")},
		{CourseID: "course-b", CourseCode: "CSE202", TeacherID: "teach-2", Weekday: "FRIDAY", Slot: mustSlot(t, "09:00", "10:30")},
	}
	conflicts, err := svc.CheckBatch(context.Background(), "term-1", rows, nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckBatchLunchDeduplicated(t *testing.T) {
	svc := NewConflictService(&stubTermReader{}, &stubTemplateReader{}, nil, nil)
	lunch := mustSlot(t, "13:00", "14:00")

	// two rows hitting the same lunch window on the same day report once
	rows := []ConflictCandidate{
		{CourseID: "course-a", CourseCode: "CSE101", TeacherID: "teach-1", Weekday: "FRIDAY", Slot: mustSlot(t, "12:30", "13:30")},
		{CourseID: "course-b", CourseCode: "CSE202", TeacherID: "teach-2", Weekday: "FRIDAY", Slot: mustSlot(t, "13:30", "14:30")},
		{CourseID: "course-c", CourseCode: "CSE303", TeacherID: "teach-3", Weekday: "SATURDAY", Slot: mustSlot(t, "13:00", "14:00")},
	}
	conflicts, err := svc.CheckBatch(context.Background(), "term-1", rows, &lunch)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	days := []string{conflicts[0].Weekday, conflicts[1].Weekday}
	assert.ElementsMatch(t, []string{"FRIDAY", "SATURDAY"}, days)
}

func TestCheckBatchAgainstOtherTerms(t *testing.T) {
	templates := &stubTemplateReader{rows: []models.TemplateDetail{
		templateRow("term-2", "course-x", "EEE110", "teach-1", "FRIDAY", "09:00", "10:30"),
		templateRow("term-1", "course-old", "OLD100", "teach-1", "FRIDAY", "09:00", "10:30"),
	}}
	svc := NewConflictService(&stubTermReader{}, templates, nil, nil)

	rows := []ConflictCandidate{
		{CourseID: "course-a", CourseCode: "CSE101", TeacherID: "teach-1", Weekday: "FRIDAY", Slot: mustSlot(t, "09:30", "11:00")},
	}
	conflicts, err := svc.CheckBatch(context.Background(), "term-1", rows, nil)
	require.NoError(t, err)
	// the regenerated term's own stale mirror rows are ignored
	require.Len(t, conflicts, 1)
	assert.Equal(t, "EEE110", conflicts[0].CourseCode)
}
