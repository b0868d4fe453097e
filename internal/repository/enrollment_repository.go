package repository

import (
	"context"
	"sort"

	"github.com/univcore/academic-records-api/internal/models"
)

// EnrollmentRepository manages the enrollment collection of the store.
type EnrollmentRepository struct {
	store *Store
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(store *Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

// List returns enrollments matching the provided filters, ordered by id.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Enrollment
	for _, e := range r.store.enrollments {
		if filter.StudentID != 0 && e.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != 0 && e.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the enrollment with the given id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.enrollments[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &e, nil
}

// FindByStudentAndCourse returns the enrollment for the given pair, if any.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.findPair(studentID, courseID)
	if !ok {
		return nil, ErrNoRecord
	}
	return &e, nil
}

// ListByStudent returns every enrollment belonging to the student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return r.List(ctx, models.EnrollmentFilter{StudentID: studentID})
}

// ExistsByStudent reports whether any enrollment references the student.
func (r *EnrollmentRepository) ExistsByStudent(ctx context.Context, studentID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.enrollments {
		if e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByCourse reports whether any enrollment references the course.
func (r *EnrollmentRepository) ExistsByCourse(ctx context.Context, courseID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.enrollments {
		if e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts an enrollment, assigning its identity and timestamps. The
// duplicate-pair check and the insert happen under one lock so concurrent
// enrolls for the same (student, course) pair cannot both succeed; a losing
// insert gets ErrDuplicatePair.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.findPair(enrollment.StudentID, enrollment.CourseID); ok {
		return ErrDuplicatePair
	}
	r.store.enrollmentSeq++
	enrollment.ID = r.store.enrollmentSeq
	enrollment.CreatedAt = r.store.now()
	enrollment.UpdatedAt = enrollment.CreatedAt
	r.store.enrollments[enrollment.ID] = *enrollment
	return nil
}

// UpdateStatus overwrites the status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.enrollments[id]
	if !ok {
		return nil, ErrNoRecord
	}
	e.Status = status
	e.UpdatedAt = r.store.now()
	r.store.enrollments[id] = e
	return &e, nil
}

// UpdateGrade records a grade and the status it resolves to in one write.
func (r *EnrollmentRepository) UpdateGrade(ctx context.Context, id int64, grade float64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.enrollments[id]
	if !ok {
		return nil, ErrNoRecord
	}
	e.Grade = &grade
	e.Status = status
	e.UpdatedAt = r.store.now()
	r.store.enrollments[id] = e
	return &e, nil
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.enrollments[id]; !ok {
		return ErrNoRecord
	}
	delete(r.store.enrollments, id)
	return nil
}

// findPair scans for the enrollment of a (student, course) pair. Callers hold
// the store lock.
func (s *Store) findPair(studentID, courseID int64) (models.Enrollment, bool) {
	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, true
		}
	}
	return models.Enrollment{}, false
}
