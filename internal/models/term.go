package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/bou-cse/routines-api/internal/timetable"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Term models an academic term (semester) being scheduled. Holiday and
// makeup dates are stored as comma-separated YYYY-MM-DD lists, matching
// the operator-facing input format.
type Term struct {
	ID                      string     `db:"id" json:"id"`
	Name                    string     `db:"name" json:"name"`
	FullName                *string    `db:"full_name" json:"full_name,omitempty"`
	Session                 *string    `db:"session" json:"session,omitempty"`
	StudyCenter             *string    `db:"study_center" json:"study_center,omitempty"`
	ContactPerson           *string    `db:"contact_person" json:"contact_person,omitempty"`
	ContactDesignation      *string    `db:"contact_designation" json:"contact_designation,omitempty"`
	ContactPhone            *string    `db:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail            *string    `db:"contact_email" json:"contact_email,omitempty"`
	StartDate               *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate                 *time.Time `db:"end_date" json:"end_date,omitempty"`
	LunchBreakStart         *string    `db:"lunch_break_start" json:"lunch_break_start,omitempty"`
	LunchBreakEnd           *string    `db:"lunch_break_end" json:"lunch_break_end,omitempty"`
	Holidays                *string    `db:"holidays" json:"holidays,omitempty"`
	MakeupDates             *string    `db:"makeup_dates" json:"makeup_dates,omitempty"`
	TheoryClassDurationMins int        `db:"theory_class_duration_minutes" json:"theory_class_duration_minutes"`
	LabClassDurationMins    int        `db:"lab_class_duration_minutes" json:"lab_class_duration_minutes"`
	DisplayOrder            int        `db:"display_order" json:"display_order"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// LunchInterval returns the term's lunch break, or nil when not defined.
func (t *Term) LunchInterval() (*timetable.Interval, error) {
	if t.LunchBreakStart == nil || t.LunchBreakEnd == nil {
		return nil, nil
	}
	iv, err := timetable.ParseInterval(*t.LunchBreakStart, *t.LunchBreakEnd)
	if err != nil {
		return nil, fmt.Errorf("lunch break: %w", err)
	}
	return &iv, nil
}

// HolidayDates parses the comma-separated holiday list.
func (t *Term) HolidayDates() ([]time.Time, error) {
	return parseDateList(t.Holidays)
}

// MakeupDateList parses the comma-separated makeup date list. Makeup
// dates are reserved for manually placed classes and are never assigned
// automatically.
func (t *Term) MakeupDateList() ([]time.Time, error) {
	return parseDateList(t.MakeupDates)
}

// ClassDurationMinutes returns the organisational class length for a
// course, by its lab/theory classification.
func (t *Term) ClassDurationMinutes(isLab bool) int {
	if isLab {
		return t.LabClassDurationMins
	}
	return t.TheoryClassDurationMins
}

func parseDateList(raw *string) ([]time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	var dates []time.Time
	for _, part := range strings.Split(*raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.Parse(DateLayout, part)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", part)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// TermFilter defines filters supported by the term list endpoint.
type TermFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
