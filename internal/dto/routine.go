package dto

import "github.com/bou-cse/routines-api/internal/models"

// TemplateRowRequest is one weekly template row of the generation form.
// Rows are explicit value types; the legacy parallel-array payload is not
// supported.
type TemplateRowRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// GenerateRoutineRequest instructs the orchestrator to regenerate the
// dated calendar for a term.
type GenerateRoutineRequest struct {
	TermID          string               `json:"termId" validate:"required"`
	StartDate       string               `json:"startDate" validate:"required"`
	EndDate         string               `json:"endDate" validate:"required"`
	Rows            []TemplateRowRequest `json:"rows" validate:"required,min=1,dive"`
	LunchBreakStart string               `json:"lunchBreakStart"`
	LunchBreakEnd   string               `json:"lunchBreakEnd"`
	Holidays        string               `json:"holidays"`
	MakeupDates     string               `json:"makeupDates"`
}

// Shortfall reports a course that could not receive all needed sessions.
type Shortfall struct {
	CourseCode string `json:"courseCode"`
	Scheduled  int    `json:"scheduled"`
	Needed     int    `json:"needed"`
}

// GenerateRoutineResponse summarises one regeneration run. Conflicts is
// non-empty only when generation was aborted without writing anything.
type GenerateRoutineResponse struct {
	TermID          string                  `json:"termId"`
	SessionsCreated int                     `json:"sessionsCreated"`
	Shortfalls      []Shortfall             `json:"shortfalls"`
	Conflicts       []models.ConflictRecord `json:"conflicts"`
}

// ConflictCheckQuery is the interactive single-slot conflict probe.
type ConflictCheckQuery struct {
	TermID          string `form:"termId"`
	Weekday         string `form:"weekday" validate:"required"`
	StartTime       string `form:"startTime" validate:"required"`
	EndTime         string `form:"endTime" validate:"required"`
	TeacherID       string `form:"teacherId" validate:"required"`
	ExcludeCourseID string `form:"excludeCourseId"`
	LunchBreakStart string `form:"lunchBreakStart"`
	LunchBreakEnd   string `form:"lunchBreakEnd"`
}

// ConflictCheckResponse lists detected overlaps for the probe.
type ConflictCheckResponse struct {
	Overlaps    []models.ConflictRecord `json:"overlaps"`
	HasOverlaps bool                    `json:"hasOverlaps"`
}

// GridSessionResponse is one class occurrence inside a grid cell.
type GridSessionResponse struct {
	CourseCode  string `json:"courseCode"`
	CourseName  string `json:"courseName"`
	TeacherName string `json:"teacherName"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// GridCellResponse is one rendered routine cell. Sessions holds more
// than one entry when parallel classes occupy the same slots.
type GridCellResponse struct {
	Kind     string                `json:"kind"`
	Span     int                   `json:"span"`
	Sessions []GridSessionResponse `json:"sessions,omitempty"`
}

// GridRowResponse is one dated routine row.
type GridRowResponse struct {
	Date    string             `json:"date"`
	Weekday string             `json:"weekday"`
	Cells   []GridCellResponse `json:"cells"`
}

// RoutineGridResponse is the merged-cell routine grid shared by the
// interactive view and both exports.
type RoutineGridResponse struct {
	TermID  string            `json:"termId"`
	Headers []string          `json:"headers"`
	Rows    []GridRowResponse `json:"rows"`
}
