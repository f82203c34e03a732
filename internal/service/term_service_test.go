package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bou-cse/routines-api/internal/models"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
)

type stubTermStore struct {
	terms map[string]*models.Term
}

func (s *stubTermStore) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	out := make([]models.Term, 0, len(s.terms))
	for _, t := range s.terms {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (s *stubTermStore) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := s.terms[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTermStore) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = "term-new"
	}
	s.terms[term.ID] = term
	return nil
}

func (s *stubTermStore) Update(ctx context.Context, term *models.Term) error {
	s.terms[term.ID] = term
	return nil
}

func (s *stubTermStore) Delete(ctx context.Context, id string) error {
	delete(s.terms, id)
	return nil
}

type stubTermCourseStore struct {
	assigned map[string][]models.TermCourse
	details  map[string][]models.TermCourseDetail
}

func (s *stubTermCourseStore) ListByTerm(ctx context.Context, termID string) ([]models.TermCourseDetail, error) {
	return s.details[termID], nil
}

func (s *stubTermCourseStore) ReplaceForTerm(ctx context.Context, termID string, entries []models.TermCourse) error {
	if s.assigned == nil {
		s.assigned = make(map[string][]models.TermCourse)
	}
	s.assigned[termID] = entries
	return nil
}

type stubCourseLookup struct {
	ids map[string]bool
}

func (s *stubCourseLookup) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.ids[id] {
		return &models.Course{ID: id, Code: "CSE101"}, nil
	}
	return nil, sql.ErrNoRows
}

func newTermFixture() (*TermService, *stubTermStore, *stubTermCourseStore) {
	terms := &stubTermStore{terms: make(map[string]*models.Term)}
	courses := &stubTermCourseStore{}
	lookup := &stubCourseLookup{ids: map[string]bool{"course-a": true, "course-b": true}}
	return NewTermService(terms, courses, lookup, nil, nil), terms, courses
}

func TestTermCreateAppliesDefaultDurations(t *testing.T) {
	svc, _, _ := newTermFixture()

	term, err := svc.Create(context.Background(), CreateTermRequest{Name: "Spring 2025"})
	require.NoError(t, err)
	assert.Equal(t, defaultTheoryDuration, term.TheoryClassDurationMins)
	assert.Equal(t, defaultLabDuration, term.LabClassDurationMins)
}

func TestTermCreateKeepsExplicitDurations(t *testing.T) {
	svc, _, _ := newTermFixture()

	term, err := svc.Create(context.Background(), CreateTermRequest{
		Name:                       "Spring 2025",
		TheoryClassDurationMinutes: 75,
		LabClassDurationMinutes:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, 75, term.TheoryClassDurationMins)
	assert.Equal(t, 120, term.LabClassDurationMins)
}

func TestTermUpdateLeavesScheduleSettings(t *testing.T) {
	svc, terms, _ := newTermFixture()
	holidays := "2025-01-17"
	terms.terms["term-1"] = &models.Term{
		ID: "term-1", Name: "Spring 2025",
		Holidays:                &holidays,
		TheoryClassDurationMins: 60, LabClassDurationMins: 90,
	}

	term, err := svc.Update(context.Background(), "term-1", UpdateTermRequest{Name: "Spring 2025 (rev)"})
	require.NoError(t, err)
	assert.Equal(t, "Spring 2025 (rev)", term.Name)
	require.NotNil(t, term.Holidays)
	assert.Equal(t, "2025-01-17", *term.Holidays)
}

func TestTermAssignCourses(t *testing.T) {
	svc, terms, courses := newTermFixture()
	terms.terms["term-1"] = &models.Term{ID: "term-1", Name: "Spring 2025"}

	_, err := svc.AssignCourses(context.Background(), "term-1", AssignCoursesRequest{
		Courses: []AssignCoursePayload{
			{CourseID: "course-a", RequiredSessions: 4},
			{CourseID: "course-b", RequiredSessions: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, courses.assigned["term-1"], 2)
	assert.Equal(t, 4, courses.assigned["term-1"][0].RequiredSessions)
}

func TestTermAssignCoursesRejectsDuplicates(t *testing.T) {
	svc, terms, _ := newTermFixture()
	terms.terms["term-1"] = &models.Term{ID: "term-1", Name: "Spring 2025"}

	_, err := svc.AssignCourses(context.Background(), "term-1", AssignCoursesRequest{
		Courses: []AssignCoursePayload{
			{CourseID: "course-a", RequiredSessions: 4},
			{CourseID: "course-a", RequiredSessions: 2},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed more than once")
}

func TestTermAssignCoursesUnknownCourse(t *testing.T) {
	svc, terms, _ := newTermFixture()
	terms.terms["term-1"] = &models.Term{ID: "term-1", Name: "Spring 2025"}

	_, err := svc.AssignCourses(context.Background(), "term-1", AssignCoursesRequest{
		Courses: []AssignCoursePayload{{CourseID: "ghost", RequiredSessions: 4}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTermGetNotFound(t *testing.T) {
	svc, _, _ := newTermFixture()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
