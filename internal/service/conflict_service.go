package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bou-cse/routines-api/internal/dto"
	"github.com/bou-cse/routines-api/internal/models"
	"github.com/bou-cse/routines-api/internal/timetable"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
)

type conflictTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type conflictTemplateReader interface {
	ListByWeekdayAndTeacher(ctx context.Context, weekday, teacherID, excludeTermID string) ([]models.TemplateDetail, error)
}

// ConflictCandidate is one proposed weekly slot under batch validation.
type ConflictCandidate struct {
	CourseID    string
	CourseCode  string
	CourseName  string
	TeacherID   string
	TeacherName string
	Weekday     string
	Slot        timetable.Interval
}

// ConflictService detects lunch-break and teacher double-booking
// conflicts against the weekly template mirror. It backs both the
// interactive slot probe and the pre-generation gate.
type ConflictService struct {
	terms     conflictTermReader
	templates conflictTemplateReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService wires conflict detection dependencies.
func NewConflictService(terms conflictTermReader, templates conflictTemplateReader, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{terms: terms, templates: templates, validator: validate, logger: logger}
}

// Check probes a single candidate slot while the operator edits the
// routine form. Rows of the slot's own course are excluded so editing a
// row never conflicts with itself.
func (s *ConflictService) Check(ctx context.Context, query dto.ConflictCheckQuery) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check query")
	}
	weekday, err := timetable.ParseWeekday(query.Weekday)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	slot, err := timetable.ParseInterval(query.StartTime, query.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	weekdayName := timetable.WeekdayName(weekday)

	lunch, err := s.resolveLunch(ctx, query.TermID, query.LunchBreakStart, query.LunchBreakEnd)
	if err != nil {
		return nil, err
	}

	overlaps := make([]models.ConflictRecord, 0)
	if lunch != nil && slot.Overlaps(*lunch) {
		overlaps = append(overlaps, lunchConflict(weekdayName, *lunch))
	}

	existing, err := s.templates.ListByWeekdayAndTeacher(ctx, weekdayName, query.TeacherID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher template rows")
	}
	seen := make(map[string]bool)
	for _, row := range existing {
		if query.ExcludeCourseID != "" && row.CourseID == query.ExcludeCourseID {
			continue
		}
		rowSlot, parseErr := timetable.ParseInterval(row.StartTime, row.EndTime)
		if parseErr != nil {
			s.logger.Warn("skipping malformed template row", zap.String("templateId", row.ID), zap.Error(parseErr))
			continue
		}
		if !slot.Overlaps(rowSlot) {
			continue
		}
		record := teacherConflict(row)
		if seen[record.Key()] {
			continue
		}
		seen[record.Key()] = true
		overlaps = append(overlaps, record)
	}

	return &dto.ConflictCheckResponse{Overlaps: overlaps, HasOverlaps: len(overlaps) > 0}, nil
}

// CheckBatch validates a full set of proposed rows before generation:
// every row against the lunch break, against persisted template rows of
// other terms, and against the other rows of the same batch. Duplicate
// reports of one physical overlap are collapsed.
func (s *ConflictService) CheckBatch(ctx context.Context, termID string, rows []ConflictCandidate, lunch *timetable.Interval) ([]models.ConflictRecord, error) {
	conflicts := make([]models.ConflictRecord, 0)
	seen := make(map[string]bool)
	add := func(record models.ConflictRecord) {
		if seen[record.Key()] {
			return
		}
		seen[record.Key()] = true
		conflicts = append(conflicts, record)
	}

	persisted := make(map[string][]models.TemplateDetail)
	for _, row := range rows {
		if lunch != nil && row.Slot.Overlaps(*lunch) {
			add(lunchConflict(row.Weekday, *lunch))
		}

		cacheKey := row.Weekday + "|" + row.TeacherID
		existing, ok := persisted[cacheKey]
		if !ok {
			var err error
			existing, err = s.templates.ListByWeekdayAndTeacher(ctx, row.Weekday, row.TeacherID, termID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher template rows")
			}
			persisted[cacheKey] = existing
		}
		for _, other := range existing {
			if other.CourseID == row.CourseID {
				continue
			}
			otherSlot, parseErr := timetable.ParseInterval(other.StartTime, other.EndTime)
			if parseErr != nil {
				s.logger.Warn("skipping malformed template row", zap.String("templateId", other.ID), zap.Error(parseErr))
				continue
			}
			if row.Slot.Overlaps(otherSlot) {
				add(teacherConflict(other))
			}
		}
	}

	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			a, b := rows[i], rows[j]
			if a.TeacherID != b.TeacherID || a.Weekday != b.Weekday || a.CourseID == b.CourseID {
				continue
			}
			if a.Slot.Overlaps(b.Slot) {
				add(candidateConflict(b))
			}
		}
	}
	return conflicts, nil
}

func (s *ConflictService) resolveLunch(ctx context.Context, termID, overrideStart, overrideEnd string) (*timetable.Interval, error) {
	if overrideStart != "" && overrideEnd != "" {
		iv, err := timetable.ParseInterval(overrideStart, overrideEnd)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lunch break: %s", err))
		}
		return &iv, nil
	}
	if termID == "" || s.terms == nil {
		return nil, nil
	}
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	lunch, err := term.LunchInterval()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return lunch, nil
}

func lunchConflict(weekday string, lunch timetable.Interval) models.ConflictRecord {
	return models.ConflictRecord{
		Kind:        models.ConflictLunch,
		Weekday:     weekday,
		StartTime:   lunch.Start.String(),
		EndTime:     lunch.End.String(),
		CourseName:  "Lunch Break",
		TeacherName: "All",
	}
}

func teacherConflict(row models.TemplateDetail) models.ConflictRecord {
	return models.ConflictRecord{
		Kind:        models.ConflictTeacher,
		Weekday:     row.Weekday,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		CourseCode:  row.CourseCode,
		CourseName:  row.CourseName,
		TeacherName: row.TeacherName,
	}
}

func candidateConflict(row ConflictCandidate) models.ConflictRecord {
	return models.ConflictRecord{
		Kind:        models.ConflictTeacher,
		Weekday:     row.Weekday,
		StartTime:   row.Slot.Start.String(),
		EndTime:     row.Slot.End.String(),
		CourseCode:  row.CourseCode,
		CourseName:  row.CourseName,
		TeacherName: row.TeacherName,
	}
}
