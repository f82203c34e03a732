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

type stubCourseRepo struct {
	courses map[string]*models.Course
	deleted []string
}

func newStubCourseRepo() *stubCourseRepo {
	return &stubCourseRepo{courses: make(map[string]*models.Course)}
}

func (s *stubCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	out := make([]models.CourseDetail, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, models.CourseDetail{Course: *c})
	}
	return out, len(out), nil
}

func (s *stubCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseRepo) FindDetail(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := s.courses[id]; ok {
		return &models.CourseDetail{Course: *c}, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for id, c := range s.courses {
		if c.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "course-new"
	}
	s.courses[course.ID] = course
	return nil
}

func (s *stubCourseRepo) Update(ctx context.Context, course *models.Course) error {
	s.courses[course.ID] = course
	return nil
}

func (s *stubCourseRepo) Delete(ctx context.Context, id string) error {
	delete(s.courses, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubCourseTeachers struct {
	ids map[string]bool
}

func (s *stubCourseTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.ids[id] {
		return &models.Teacher{ID: id, Name: "Dr. Rahman"}, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseService(repo *stubCourseRepo) *CourseService {
	return NewCourseService(repo, &stubCourseTeachers{ids: map[string]bool{"teach-1": true}}, nil, nil)
}

func TestCourseCreate(t *testing.T) {
	repo := newStubCourseRepo()
	svc := newCourseService(repo)

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSE101", Name: "Structured Programming", TeacherID: "teach-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.False(t, course.IsLab)
}

func TestCourseCreateDuplicateCode(t *testing.T) {
	repo := newStubCourseRepo()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Code: "CSE101", TeacherID: "teach-1"}
	svc := newCourseService(repo)

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSE101", Name: "Duplicate", TeacherID: "teach-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseCreateUnknownTeacher(t *testing.T) {
	svc := newCourseService(newStubCourseRepo())

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSE101", Name: "Structured Programming", TeacherID: "ghost",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseUpdateReassignsTeacher(t *testing.T) {
	repo := newStubCourseRepo()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Code: "CSE101", Name: "Structured Programming", TeacherID: "teach-1"}
	svc := NewCourseService(repo, &stubCourseTeachers{ids: map[string]bool{"teach-1": true, "teach-2": true}}, nil, nil)

	course, err := svc.Update(context.Background(), "course-1", UpdateCourseRequest{
		Code: "CSE101", Name: "Structured Programming", IsLab: true, TeacherID: "teach-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "teach-2", course.TeacherID)
	assert.True(t, course.IsLab)
}

func TestCourseDelete(t *testing.T) {
	repo := newStubCourseRepo()
	repo.courses["course-1"] = &models.Course{ID: "course-1", Code: "CSE101", TeacherID: "teach-1"}
	svc := newCourseService(repo)

	require.NoError(t, svc.Delete(context.Background(), "course-1"))
	assert.Equal(t, []string{"course-1"}, repo.deleted)
}
