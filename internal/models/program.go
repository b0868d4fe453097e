package models

import "time"

// Program is a named grouping of courses with a duration in terms. It carries
// no prerequisite semantics of its own.
type Program struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	DurationTerms int       `json:"duration_terms"`
	CourseIDs     []int64   `json:"course_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProgramFilter captures filtering options for listing programs.
type ProgramFilter struct {
	Search string
}
