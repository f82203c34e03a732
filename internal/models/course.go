package models

import "time"

// Course models a course in the catalogue. Each course is owned by exactly
// one teacher; IsLab selects the term's lab class duration when computing
// sessions needed.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	IsLab     bool      `db:"is_lab" json:"is_lab"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail joins the owning teacher onto a course for list views.
type CourseDetail struct {
	Course
	TeacherName      string  `db:"teacher_name" json:"teacher_name"`
	TeacherShortName *string `db:"teacher_short_name" json:"teacher_short_name,omitempty"`
}

// CourseFilter defines filters supported by the course list endpoint.
type CourseFilter struct {
	TeacherID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
