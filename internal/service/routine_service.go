package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bou-cse/routines-api/internal/dto"
	"github.com/bou-cse/routines-api/internal/models"
	"github.com/bou-cse/routines-api/internal/timetable"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
)

type routineTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	UpdateScheduleSettings(ctx context.Context, term *models.Term) error
}

type routineTermCourseReader interface {
	FindByTermAndCourse(ctx context.Context, termID, courseID string) (*models.TermCourseDetail, error)
}

type routineTemplateRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.TemplateDetail, error)
	DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) error
	InsertBatchTx(ctx context.Context, exec sqlx.ExtContext, rows []models.RoutineTemplate) error
}

type routineSessionRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.SessionDetail, error)
	DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) error
	BulkCreateTx(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error
}

type batchConflictChecker interface {
	CheckBatch(ctx context.Context, termID string, rows []ConflictCandidate, lunch *timetable.Interval) ([]models.ConflictRecord, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type gridCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type routineMetrics interface {
	ObserveGeneration(outcome string, sessions int, duration time.Duration)
	ObserveCacheHit()
	ObserveCacheMiss()
}

// RoutineServiceConfig governs scheduling behaviour.
type RoutineServiceConfig struct {
	TeachingDays []string
	GridCacheTTL time.Duration
}

// RoutineService owns the routine lifecycle: template persistence, dated
// session generation and the rendered grid. Regeneration for one term is
// serialised; concurrent requests for the same term queue behind a
// per-term lock.
type RoutineService struct {
	terms        routineTermRepository
	termCourses  routineTermCourseReader
	templates    routineTemplateRepository
	sessions     routineSessionRepository
	conflicts    batchConflictChecker
	tx           txProvider
	cache        gridCache
	metrics      routineMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	teachingDays map[string]bool
	cacheTTL     time.Duration

	mu        sync.Mutex
	termLocks map[string]*sync.Mutex
}

// NewRoutineService wires routine generation dependencies.
func NewRoutineService(
	terms routineTermRepository,
	termCourses routineTermCourseReader,
	templates routineTemplateRepository,
	sessions routineSessionRepository,
	conflicts batchConflictChecker,
	tx txProvider,
	cache gridCache,
	metrics routineMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RoutineServiceConfig,
) *RoutineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.TeachingDays) == 0 {
		cfg.TeachingDays = []string{"FRIDAY", "SATURDAY"}
	}
	if cfg.GridCacheTTL <= 0 {
		cfg.GridCacheTTL = 10 * time.Minute
	}
	days := make(map[string]bool, len(cfg.TeachingDays))
	for _, d := range cfg.TeachingDays {
		days[d] = true
	}
	return &RoutineService{
		terms:        terms,
		termCourses:  termCourses,
		templates:    templates,
		sessions:     sessions,
		conflicts:    conflicts,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		teachingDays: days,
		cacheTTL:     cfg.GridCacheTTL,
		termLocks:    make(map[string]*sync.Mutex),
	}
}

type scheduleRow struct {
	course  *models.TermCourseDetail
	weekday string
	slot    timetable.Interval
}

// Generate regenerates a term's routine from scratch: it persists the
// term's schedule settings, validates every proposed row for conflicts
// and, when clean, replaces the weekly template mirror and all dated
// sessions inside one transaction. A response with a non-empty Conflicts
// list means nothing was written.
func (s *RoutineService) Generate(ctx context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine generation payload")
	}
	started := time.Now()

	unlock := s.lockTerm(req.TermID)
	defer unlock()

	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	startDate, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	endDate, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	if !s.rangeHasTeachingDay(startDate, endDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range contains no teaching day")
	}

	applyScheduleSettings(term, req, startDate, endDate)

	var lunch *timetable.Interval
	if term.LunchBreakStart != nil && term.LunchBreakEnd != nil {
		lunch, err = term.LunchInterval()
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	holidays, err := term.HolidayDates()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("holidays: %s", err))
	}
	makeupDates, err := term.MakeupDateList()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("makeupDates: %s", err))
	}

	rows, err := s.resolveRows(ctx, req.TermID, req.Rows)
	if err != nil {
		return nil, err
	}

	if err := s.terms.UpdateScheduleSettings(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save term schedule settings")
	}

	candidates := make([]ConflictCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, ConflictCandidate{
			CourseID:    row.course.CourseID,
			CourseCode:  row.course.CourseCode,
			CourseName:  row.course.CourseName,
			TeacherID:   row.course.TeacherID,
			TeacherName: row.course.TeacherName,
			Weekday:     row.weekday,
			Slot:        row.slot,
		})
	}
	conflicts, err := s.conflicts.CheckBatch(ctx, req.TermID, candidates, lunch)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		if s.metrics != nil {
			s.metrics.ObserveGeneration("conflict", 0, time.Since(started))
		}
		return &dto.GenerateRoutineResponse{TermID: req.TermID, Shortfalls: []dto.Shortfall{}, Conflicts: conflicts}, nil
	}

	sessions, shortfalls := s.planSessions(term, rows, startDate, endDate, holidays, makeupDates)

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.sessions.DeleteByTermTx(ctx, tx, req.TermID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous sessions")
		return nil, err
	}
	if err = s.templates.DeleteByTermTx(ctx, tx, req.TermID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous template rows")
		return nil, err
	}

	templateRows := make([]models.RoutineTemplate, 0, len(rows))
	for _, row := range rows {
		templateRows = append(templateRows, models.RoutineTemplate{
			TermID:    req.TermID,
			CourseID:  row.course.CourseID,
			Weekday:   row.weekday,
			StartTime: row.slot.Start.String(),
			EndTime:   row.slot.End.String(),
		})
	}
	if err = s.templates.InsertBatchTx(ctx, tx, templateRows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store template rows")
		return nil, err
	}
	if err = s.sessions.BulkCreateTx(ctx, tx, sessions); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated sessions")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit routine transaction")
		return nil, err
	}

	s.invalidateGrid(ctx, req.TermID)
	if s.metrics != nil {
		s.metrics.ObserveGeneration("success", len(sessions), time.Since(started))
	}
	s.logger.Info("routine regenerated",
		zap.String("termId", req.TermID),
		zap.Int("sessions", len(sessions)),
		zap.Int("shortfalls", len(shortfalls)))

	return &dto.GenerateRoutineResponse{
		TermID:          req.TermID,
		SessionsCreated: len(sessions),
		Shortfalls:      shortfalls,
		Conflicts:       []models.ConflictRecord{},
	}, nil
}

// rangeHasTeachingDay reports whether at least one date in the range
// falls on a teaching weekday. Seven days cover every weekday, so the
// walk is bounded regardless of range length.
func (s *RoutineService) rangeHasTeachingDay(startDate, endDate time.Time) bool {
	for d, i := startDate, 0; !d.After(endDate) && i < 7; d, i = d.AddDate(0, 0, 1), i+1 {
		if s.teachingDays[timetable.WeekdayName(d.Weekday())] {
			return true
		}
	}
	return false
}

func (s *RoutineService) resolveRows(ctx context.Context, termID string, rows []dto.TemplateRowRequest) ([]scheduleRow, error) {
	resolved := make([]scheduleRow, 0, len(rows))
	for i, row := range rows {
		day, err := timetable.ParseWeekday(row.Weekday)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, err))
		}
		weekday := timetable.WeekdayName(day)
		if !s.teachingDays[weekday] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s is not a teaching day", i+1, weekday))
		}
		slot, err := timetable.ParseInterval(row.StartTime, row.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, err))
		}
		course, err := s.termCourses.FindByTermAndCourse(ctx, termID, row.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: course %s is not assigned to this term", i+1, row.CourseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term course")
		}
		resolved = append(resolved, scheduleRow{course: course, weekday: weekday, slot: slot})
	}
	return resolved, nil
}

// planSessions walks the calendar once per row and assigns sessions to
// eligible dates in chronological order. Holidays and makeup dates are
// skipped; a row that runs out of eligible dates before reaching its
// needed count yields a shortfall, never an error.
func (s *RoutineService) planSessions(
	term *models.Term,
	rows []scheduleRow,
	startDate, endDate time.Time,
	holidays, makeupDates []time.Time,
) ([]models.ClassSession, []dto.Shortfall) {
	excluded := make(map[string]bool, len(holidays)+len(makeupDates))
	for _, d := range holidays {
		excluded[d.Format(models.DateLayout)] = true
	}
	for _, d := range makeupDates {
		excluded[d.Format(models.DateLayout)] = true
	}

	sessions := make([]models.ClassSession, 0)
	shortfalls := make([]dto.Shortfall, 0)
	for _, row := range rows {
		duration := term.ClassDurationMinutes(row.course.IsLab)
		needed := sessionsNeeded(row.course.RequiredSessions, duration, row.slot.Minutes())
		scheduled := 0
		for d := startDate; !d.After(endDate) && scheduled < needed; d = d.AddDate(0, 0, 1) {
			if timetable.WeekdayName(d.Weekday()) != row.weekday {
				continue
			}
			if excluded[d.Format(models.DateLayout)] {
				continue
			}
			sessions = append(sessions, models.ClassSession{
				TermID:    term.ID,
				CourseID:  row.course.CourseID,
				Weekday:   row.weekday,
				ClassDate: d,
				StartTime: row.slot.Start.String(),
				EndTime:   row.slot.End.String(),
			})
			scheduled++
		}
		if scheduled < needed {
			shortfalls = append(shortfalls, dto.Shortfall{
				CourseCode: row.course.CourseCode,
				Scheduled:  scheduled,
				Needed:     needed,
			})
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].ClassDate.Equal(sessions[j].ClassDate) {
			return sessions[i].StartTime < sessions[j].StartTime
		}
		return sessions[i].ClassDate.Before(sessions[j].ClassDate)
	})
	return sessions, shortfalls
}

// sessionsNeeded converts an organisational class count into slot
// occurrences: total class minutes divided by the slot length, rounded
// up so partial remainders still get a full slot.
func sessionsNeeded(requiredClasses, classDurationMinutes, slotLengthMinutes int) int {
	if requiredClasses <= 0 || classDurationMinutes <= 0 || slotLengthMinutes <= 0 {
		return 0
	}
	total := requiredClasses * classDurationMinutes
	return int(math.Ceil(float64(total) / float64(slotLengthMinutes)))
}

func applyScheduleSettings(term *models.Term, req dto.GenerateRoutineRequest, startDate, endDate time.Time) {
	term.StartDate = &startDate
	term.EndDate = &endDate
	term.LunchBreakStart = optionalString(req.LunchBreakStart)
	term.LunchBreakEnd = optionalString(req.LunchBreakEnd)
	term.Holidays = optionalString(req.Holidays)
	term.MakeupDates = optionalString(req.MakeupDates)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Templates returns the weekly template rows backing the routine form.
func (s *RoutineService) Templates(ctx context.Context, termID string) ([]models.TemplateDetail, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term id is required")
	}
	rows, err := s.templates.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list template rows")
	}
	return rows, nil
}

// Sessions returns the generated dated sessions for a term in calendar
// order.
func (s *RoutineService) Sessions(ctx context.Context, termID string) ([]models.SessionDetail, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term id is required")
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	list, err := s.sessions.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return list, nil
}

// Grid returns the rendered routine grid for a term, served from cache
// when fresh.
func (s *RoutineService) Grid(ctx context.Context, termID string) (*dto.RoutineGridResponse, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term id is required")
	}
	cacheKey := gridCacheKey(termID)
	if s.cache != nil {
		var cached dto.RoutineGridResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("grid cache read failed", zap.String("termId", termID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	list, err := s.sessions.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	grid, err := buildTermGrid(term, list, s.logger)
	if err != nil {
		return nil, err
	}
	resp := gridResponse(termID, grid)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("grid cache write failed", zap.String("termId", termID), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *RoutineService) invalidateGrid(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, gridCacheKey(termID)); err != nil {
		s.logger.Warn("grid cache invalidation failed", zap.String("termId", termID), zap.Error(err))
	}
}

func (s *RoutineService) lockTerm(termID string) func() {
	s.mu.Lock()
	lock, ok := s.termLocks[termID]
	if !ok {
		lock = &sync.Mutex{}
		s.termLocks[termID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func gridCacheKey(termID string) string {
	return "routine:grid:" + termID
}

// buildTermGrid assembles the merged-cell grid for a term from its
// stored sessions, lunch break and makeup dates.
func buildTermGrid(term *models.Term, list []models.SessionDetail, logger *zap.Logger) (timetable.Grid, error) {
	lunch, err := term.LunchInterval()
	if err != nil {
		return timetable.Grid{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	makeupDates, err := term.MakeupDateList()
	if err != nil {
		return timetable.Grid{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("makeupDates: %s", err))
	}
	sessions := make([]timetable.Session, 0, len(list))
	for _, item := range list {
		slot, parseErr := timetable.ParseInterval(item.StartTime, item.EndTime)
		if parseErr != nil {
			if logger != nil {
				logger.Warn("skipping malformed session", zap.String("sessionId", item.ID), zap.Error(parseErr))
			}
			continue
		}
		shortName := ""
		if item.TeacherShortName != nil {
			shortName = *item.TeacherShortName
		}
		sessions = append(sessions, timetable.Session{
			Date:             item.ClassDate,
			Weekday:          item.Weekday,
			CourseCode:       item.CourseCode,
			CourseName:       item.CourseName,
			TeacherName:      item.TeacherName,
			TeacherShortName: shortName,
			Time:             slot,
		})
	}
	return timetable.BuildGrid(sessions, lunch, makeupDates, term.StartDate, term.EndDate), nil
}

func gridResponse(termID string, grid timetable.Grid) *dto.RoutineGridResponse {
	rows := make([]dto.GridRowResponse, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		cells := make([]dto.GridCellResponse, 0, len(row.Cells))
		for _, cell := range row.Cells {
			out := dto.GridCellResponse{Kind: string(cell.Kind), Span: cell.Span}
			for _, s := range cell.Sessions {
				out.Sessions = append(out.Sessions, dto.GridSessionResponse{
					CourseCode:  s.CourseCode,
					CourseName:  s.CourseName,
					TeacherName: s.TeacherName,
					StartTime:   s.Time.Start.String(),
					EndTime:     s.Time.End.String(),
				})
			}
			cells = append(cells, out)
		}
		rows = append(rows, dto.GridRowResponse{
			Date:    row.Date.Format(models.DateLayout),
			Weekday: row.Weekday,
			Cells:   cells,
		})
	}
	return &dto.RoutineGridResponse{TermID: termID, Headers: grid.HeaderLabels(), Rows: rows}
}
