package models

import "fmt"

// ConflictKind distinguishes lunch-break from teacher double-booking
// conflicts.
type ConflictKind string

const (
	ConflictLunch   ConflictKind = "LUNCH"
	ConflictTeacher ConflictKind = "TEACHER"
)

// ConflictRecord describes one detected overlap. Records are transient:
// produced during validation, returned to the caller, never stored.
type ConflictRecord struct {
	Kind        ConflictKind `json:"kind"`
	Weekday     string       `json:"weekday"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time"`
	CourseCode  string       `json:"course_code,omitempty"`
	CourseName  string       `json:"course_name,omitempty"`
	TeacherName string       `json:"teacher_name,omitempty"`
}

// Key identifies the physical conflict for deduplication: the same
// overlap must never be reported twice within one validation batch.
func (c ConflictRecord) Key() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s", c.Kind, c.Weekday, c.StartTime, c.EndTime, c.CourseCode)
}
