package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusRegular    EnrollmentStatus = "REGULAR"
	EnrollmentStatusApproved   EnrollmentStatus = "APPROVED"
)

// Valid reports whether the status is one of the known values.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusInProgress, EnrollmentStatusRegular, EnrollmentStatusApproved:
		return true
	}
	return false
}

// SatisfiesPrerequisite reports whether an enrollment in this status counts
// towards the prerequisites of a dependent course. Only REGULAR and APPROVED
// qualify; a course still in progress does not.
func (s EnrollmentStatus) SatisfiesPrerequisite() bool {
	return s == EnrollmentStatusRegular || s == EnrollmentStatusApproved
}

// Enrollment captures a student's registration to a course. At most one
// enrollment exists per (student, course) pair.
type Enrollment struct {
	ID        int64            `json:"id"`
	StudentID int64            `json:"student_id"`
	CourseID  int64            `json:"course_id"`
	Status    EnrollmentStatus `json:"status"`
	Grade     *float64         `json:"grade,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID int64
	CourseID  int64
	Status    EnrollmentStatus
}
