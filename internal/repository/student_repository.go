package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/univcore/academic-records-api/internal/models"
)

// StudentRepository manages the student collection of the store.
type StudentRepository struct {
	store *Store
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(store *Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// List returns students matching the provided filters, ordered by id.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Student
	search := strings.ToLower(filter.Search)
	for _, s := range r.store.students {
		if filter.ProgramID != nil {
			if s.ProgramID == nil || *s.ProgramID != *filter.ProgramID {
				continue
			}
		}
		if search != "" {
			haystack := strings.ToLower(s.FirstName + " " + s.LastName + " " + s.NationalID)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the student with the given id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.students[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &s, nil
}

// ExistsByNationalID reports whether another student already uses the given
// national id.
func (r *StudentRepository) ExistsByNationalID(ctx context.Context, nationalID string, excludeID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.students {
		if s.ID != excludeID && s.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts a student, assigning its identity and timestamps.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.studentSeq++
	student.ID = r.store.studentSeq
	student.CreatedAt = r.store.now()
	student.UpdatedAt = student.CreatedAt
	r.store.students[student.ID] = *student
	return nil
}

// Update replaces a stored student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.students[student.ID]
	if !ok {
		return ErrNoRecord
	}
	student.CreatedAt = existing.CreatedAt
	student.UpdatedAt = r.store.now()
	r.store.students[student.ID] = *student
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students[id]; !ok {
		return ErrNoRecord
	}
	delete(r.store.students, id)
	return nil
}
