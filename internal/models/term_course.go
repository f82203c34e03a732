package models

import "time"

// TermCourse links a course into a term with its required session count.
type TermCourse struct {
	ID               string    `db:"id" json:"id"`
	TermID           string    `db:"term_id" json:"term_id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	RequiredSessions int       `db:"required_sessions" json:"required_sessions"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TermCourseDetail joins course and teacher information for the entry form
// and the scheduler.
type TermCourseDetail struct {
	TermCourse
	CourseCode       string  `db:"course_code" json:"course_code"`
	CourseName       string  `db:"course_name" json:"course_name"`
	IsLab            bool    `db:"is_lab" json:"is_lab"`
	TeacherID        string  `db:"teacher_id" json:"teacher_id"`
	TeacherName      string  `db:"teacher_name" json:"teacher_name"`
	TeacherShortName *string `db:"teacher_short_name" json:"teacher_short_name,omitempty"`
}
