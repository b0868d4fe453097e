package models

import "time"

// Course represents a subject offering within the academic catalogue.
type Course struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Year            int       `json:"year"`
	Term            int       `json:"term"`
	InstructorID    *int64    `json:"instructor_id,omitempty"`
	PrerequisiteIDs []int64   `json:"prerequisite_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasPrerequisite reports whether the course lists the given id directly.
func (c *Course) HasPrerequisite(courseID int64) bool {
	for _, id := range c.PrerequisiteIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search       string
	Year         int
	Term         int
	InstructorID *int64
}
