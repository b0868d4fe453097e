package models

import "time"

// Instructor represents a teaching staff record. CourseIDs is the
// instructor-side relation list; courses also carry their own InstructorID
// reference, and the two are maintained independently.
type Instructor struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Title     string    `json:"title"`
	CourseIDs []int64   `json:"course_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search string
}
