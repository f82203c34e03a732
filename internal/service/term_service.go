package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bou-cse/routines-api/internal/models"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
	Delete(ctx context.Context, id string) error
}

type termCourseRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.TermCourseDetail, error)
	ReplaceForTerm(ctx context.Context, termID string, entries []models.TermCourse) error
}

type termCourseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// Default class lengths in minutes, applied when a term does not set its
// own.
const (
	defaultTheoryDuration = 60
	defaultLabDuration    = 90
)

// CreateTermRequest captures the term creation payload.
type CreateTermRequest struct {
	Name                       string  `json:"name" validate:"required"`
	FullName                   *string `json:"full_name"`
	Session                    *string `json:"session"`
	StudyCenter                *string `json:"study_center"`
	ContactPerson              *string `json:"contact_person"`
	ContactDesignation         *string `json:"contact_designation"`
	ContactPhone               *string `json:"contact_phone"`
	ContactEmail               *string `json:"contact_email" validate:"omitempty,email"`
	TheoryClassDurationMinutes int     `json:"theory_class_duration_minutes" validate:"omitempty,min=1"`
	LabClassDurationMinutes    int     `json:"lab_class_duration_minutes" validate:"omitempty,min=1"`
	DisplayOrder               int     `json:"display_order"`
}

// UpdateTermRequest modifies term fields.
type UpdateTermRequest struct {
	Name                       string  `json:"name" validate:"required"`
	FullName                   *string `json:"full_name"`
	Session                    *string `json:"session"`
	StudyCenter                *string `json:"study_center"`
	ContactPerson              *string `json:"contact_person"`
	ContactDesignation         *string `json:"contact_designation"`
	ContactPhone               *string `json:"contact_phone"`
	ContactEmail               *string `json:"contact_email" validate:"omitempty,email"`
	TheoryClassDurationMinutes int     `json:"theory_class_duration_minutes" validate:"omitempty,min=1"`
	LabClassDurationMinutes    int     `json:"lab_class_duration_minutes" validate:"omitempty,min=1"`
	DisplayOrder               int     `json:"display_order"`
}

// AssignCoursePayload links one course into a term.
type AssignCoursePayload struct {
	CourseID         string `json:"course_id" validate:"required"`
	RequiredSessions int    `json:"required_sessions" validate:"required,min=1"`
}

// AssignCoursesRequest replaces a term's course assignments.
type AssignCoursesRequest struct {
	Courses []AssignCoursePayload `json:"courses" validate:"required,min=1,dive"`
}

// TermService coordinates term and term-course operations.
type TermService struct {
	repo      termRepository
	courses   termCourseRepository
	catalogue termCourseLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService constructs TermService.
func NewTermService(repo termRepository, courses termCourseRepository, catalogue termCourseLookup, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, courses: courses, catalogue: catalogue, validator: validate, logger: logger}
}

// List returns terms with pagination metadata.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, paginationMeta(filter.Page, filter.PageSize, total), nil
}

// Get returns one term.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// Create adds a new term.
func (s *TermService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	term := &models.Term{
		Name:                    req.Name,
		FullName:                req.FullName,
		Session:                 req.Session,
		StudyCenter:             req.StudyCenter,
		ContactPerson:           req.ContactPerson,
		ContactDesignation:      req.ContactDesignation,
		ContactPhone:            req.ContactPhone,
		ContactEmail:            req.ContactEmail,
		TheoryClassDurationMins: req.TheoryClassDurationMinutes,
		LabClassDurationMins:    req.LabClassDurationMinutes,
		DisplayOrder:            req.DisplayOrder,
	}
	if term.TheoryClassDurationMins <= 0 {
		term.TheoryClassDurationMins = defaultTheoryDuration
	}
	if term.LabClassDurationMins <= 0 {
		term.LabClassDurationMins = defaultLabDuration
	}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// Update modifies a term record. Schedule settings (dates, lunch break,
// holidays, makeup dates) are owned by routine generation and left
// untouched here.
func (s *TermService) Update(ctx context.Context, id string, req UpdateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	term.Name = req.Name
	term.FullName = req.FullName
	term.Session = req.Session
	term.StudyCenter = req.StudyCenter
	term.ContactPerson = req.ContactPerson
	term.ContactDesignation = req.ContactDesignation
	term.ContactPhone = req.ContactPhone
	term.ContactEmail = req.ContactEmail
	term.DisplayOrder = req.DisplayOrder
	if req.TheoryClassDurationMinutes > 0 {
		term.TheoryClassDurationMins = req.TheoryClassDurationMinutes
	}
	if req.LabClassDurationMinutes > 0 {
		term.LabClassDurationMins = req.LabClassDurationMinutes
	}
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}
	return term, nil
}

// Delete removes a term and everything hanging off it.
func (s *TermService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}
	return nil
}

// Courses returns the courses assigned to a term with their required
// session counts.
func (s *TermService) Courses(ctx context.Context, termID string) ([]models.TermCourseDetail, error) {
	if _, err := s.Get(ctx, termID); err != nil {
		return nil, err
	}
	list, err := s.courses.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term courses")
	}
	return list, nil
}

// AssignCourses replaces a term's course list atomically.
func (s *TermService) AssignCourses(ctx context.Context, termID string, req AssignCoursesRequest) ([]models.TermCourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course assignment payload")
	}
	if _, err := s.Get(ctx, termID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Courses))
	entries := make([]models.TermCourse, 0, len(req.Courses))
	for _, item := range req.Courses {
		if seen[item.CourseID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s listed more than once", item.CourseID))
		}
		seen[item.CourseID] = true
		if _, err := s.catalogue.FindByID(ctx, item.CourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s does not exist", item.CourseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		entries = append(entries, models.TermCourse{
			TermID:           termID,
			CourseID:         item.CourseID,
			RequiredSessions: item.RequiredSessions,
		})
	}

	if err := s.courses.ReplaceForTerm(ctx, termID, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace term courses")
	}
	return s.Courses(ctx, termID)
}
