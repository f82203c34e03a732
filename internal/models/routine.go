package models

import "time"

// RoutineTemplate is one weekly template row: a course's recurring
// weekday/time slot within a term. The template mirror is rewritten on
// every successful regeneration and serves conflict lookups.
type RoutineTemplate struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Weekday   string    `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TemplateDetail joins course and teacher data onto a template row for
// conflict checks and the entry form.
type TemplateDetail struct {
	RoutineTemplate
	CourseCode       string  `db:"course_code" json:"course_code"`
	CourseName       string  `db:"course_name" json:"course_name"`
	TeacherID        string  `db:"teacher_id" json:"teacher_id"`
	TeacherName      string  `db:"teacher_name" json:"teacher_name"`
	TeacherShortName *string `db:"teacher_short_name" json:"teacher_short_name,omitempty"`
}

// ClassSession is one generated, dated class occurrence. Sessions are
// created and destroyed only by routine regeneration; uniquely identified
// by (term, course, date).
type ClassSession struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Weekday   string    `db:"weekday" json:"weekday"`
	ClassDate time.Time `db:"class_date" json:"class_date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SessionDetail joins course and teacher data onto a dated session.
type SessionDetail struct {
	ClassSession
	CourseCode       string  `db:"course_code" json:"course_code"`
	CourseName       string  `db:"course_name" json:"course_name"`
	TeacherName      string  `db:"teacher_name" json:"teacher_name"`
	TeacherShortName *string `db:"teacher_short_name" json:"teacher_short_name,omitempty"`
}
