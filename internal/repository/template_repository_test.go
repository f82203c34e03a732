package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bou-cse/routines-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var templateColumns = []string{
	"id", "term_id", "course_id", "weekday", "start_time", "end_time", "created_at", "updated_at",
	"course_code", "course_name", "teacher_id", "teacher_name", "teacher_short_name",
}

func TestTemplateRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(templateColumns).
		AddRow("tpl-1", "term-1", "course-a", "FRIDAY", "09:00", "10:00", now, now,
			"CSE101", "Structured Programming", "teach-1", "Dr. Rahman", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rt.term_id = $1 ORDER BY rt.weekday ASC, rt.start_time ASC")).
		WithArgs("term-1").
		WillReturnRows(rows)

	list, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "CSE101", list[0].CourseCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryListByWeekdayAndTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(templateColumns).
		AddRow("tpl-2", "term-2", "course-b", "FRIDAY", "10:00", "11:30", now, now,
			"CSE202", "Data Structures", "teach-1", "Dr. Rahman", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rt.weekday = $1 AND c.teacher_id = $2")).
		WithArgs("FRIDAY", "teach-1").
		WillReturnRows(rows)

	list, err := repo.ListByWeekdayAndTeacher(context.Background(), "FRIDAY", "teach-1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "term-2", list[0].TermID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryListExcludesTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND rt.term_id <> $3")).
		WithArgs("FRIDAY", "teach-1", "term-1").
		WillReturnRows(sqlmock.NewRows(templateColumns))

	list, err := repo.ListByWeekdayAndTeacher(context.Background(), "FRIDAY", "teach-1", "term-1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryRewriteMirror(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM routine_templates WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO routine_templates")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := context.Background()
	require.NoError(t, repo.DeleteByTermTx(ctx, db, "term-1"))

	rows := []models.RoutineTemplate{{
		TermID:    "term-1",
		CourseID:  "course-a",
		Weekday:   "FRIDAY",
		StartTime: "09:00",
		EndTime:   "10:00",
	}}
	require.NoError(t, repo.InsertBatchTx(ctx, db, rows))
	require.NotEmpty(t, rows[0].ID)
	require.False(t, rows[0].CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
