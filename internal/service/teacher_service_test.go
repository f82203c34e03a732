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

type stubTeacherRepo struct {
	teachers    map[string]*models.Teacher
	courseCount map[string]int
	deleted     []string
}

func newStubTeacherRepo() *stubTeacherRepo {
	return &stubTeacherRepo{
		teachers:    make(map[string]*models.Teacher),
		courseCount: make(map[string]int),
	}
}

func (s *stubTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	out := make([]models.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (s *stubTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := s.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTeacherRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, t := range s.teachers {
		if t.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "teach-new"
	}
	s.teachers[teacher.ID] = teacher
	return nil
}

func (s *stubTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	s.teachers[teacher.ID] = teacher
	return nil
}

func (s *stubTeacherRepo) Delete(ctx context.Context, id string) error {
	delete(s.teachers, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubTeacherRepo) CountCourses(ctx context.Context, id string) (int, error) {
	return s.courseCount[id], nil
}

func TestTeacherCreate(t *testing.T) {
	repo := newStubTeacherRepo()
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{Name: "Dr. Rahman", ShortName: strPtr("AR")})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, "Dr. Rahman", teacher.Name)
}

func TestTeacherCreateDuplicateName(t *testing.T) {
	repo := newStubTeacherRepo()
	repo.teachers["teach-1"] = &models.Teacher{ID: "teach-1", Name: "Dr. Rahman"}
	svc := NewTeacherService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{Name: "Dr. Rahman"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherUpdateKeepsOwnName(t *testing.T) {
	repo := newStubTeacherRepo()
	repo.teachers["teach-1"] = &models.Teacher{ID: "teach-1", Name: "Dr. Rahman"}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Update(context.Background(), "teach-1", UpdateTeacherRequest{Name: "Dr. Rahman", ShortName: strPtr("AR")})
	require.NoError(t, err)
	require.NotNil(t, teacher.ShortName)
	assert.Equal(t, "AR", *teacher.ShortName)
}

func TestTeacherDeleteBlockedByCourses(t *testing.T) {
	repo := newStubTeacherRepo()
	repo.teachers["teach-1"] = &models.Teacher{ID: "teach-1", Name: "Dr. Rahman"}
	repo.courseCount["teach-1"] = 2
	svc := NewTeacherService(repo, nil, nil)

	err := svc.Delete(context.Background(), "teach-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestTeacherDelete(t *testing.T) {
	repo := newStubTeacherRepo()
	repo.teachers["teach-1"] = &models.Teacher{ID: "teach-1", Name: "Dr. Rahman"}
	svc := NewTeacherService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "teach-1"))
	assert.Equal(t, []string{"teach-1"}, repo.deleted)
}

func TestTeacherGetNotFound(t *testing.T) {
	svc := NewTeacherService(newStubTeacherRepo(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaginationMetaDefaults(t *testing.T) {
	meta := paginationMeta(0, 0, 42)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 20, meta.PageSize)
	assert.Equal(t, 42, meta.TotalCount)
}
