package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/univcore/academic-records-api/internal/models"
)

// ErrNoRecord is returned by lookups that match no stored entity.
var ErrNoRecord = errors.New("repository: record not found")

// ErrDuplicatePair is returned when an enrollment insert would violate the
// one-enrollment-per-(student, course) invariant.
var ErrDuplicatePair = errors.New("repository: enrollment pair already exists")

// Store is the in-memory arena holding every entity collection. Entities live
// in id-keyed maps; relations are id fields only, and reverse views are
// derived by scanning. Identity is assigned from per-type monotonic counters.
// A single store-wide mutex makes each repository call an atomic
// read-modify-write.
type Store struct {
	mu sync.RWMutex

	courses     map[int64]models.Course
	students    map[int64]models.Student
	instructors map[int64]models.Instructor
	programs    map[int64]models.Program
	enrollments map[int64]models.Enrollment

	courseSeq     int64
	studentSeq    int64
	instructorSeq int64
	programSeq    int64
	enrollmentSeq int64
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		courses:     make(map[int64]models.Course),
		students:    make(map[int64]models.Student),
		instructors: make(map[int64]models.Instructor),
		programs:    make(map[int64]models.Program),
		enrollments: make(map[int64]models.Enrollment),
	}
}

func (s *Store) now() time.Time {
	return time.Now().UTC()
}

// cloneIDs copies a relation id slice so stored values never alias caller
// memory.
func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func cloneCourse(c models.Course) models.Course {
	c.PrerequisiteIDs = cloneIDs(c.PrerequisiteIDs)
	return c
}

func cloneInstructor(i models.Instructor) models.Instructor {
	i.CourseIDs = cloneIDs(i.CourseIDs)
	return i
}

func cloneProgram(p models.Program) models.Program {
	p.CourseIDs = cloneIDs(p.CourseIDs)
	return p
}
