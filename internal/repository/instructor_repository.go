package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/univcore/academic-records-api/internal/models"
)

// InstructorRepository manages the instructor collection of the store.
type InstructorRepository struct {
	store *Store
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(store *Store) *InstructorRepository {
	return &InstructorRepository{store: store}
}

// List returns instructors matching the provided filters, ordered by id.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Instructor
	search := strings.ToLower(filter.Search)
	for _, i := range r.store.instructors {
		if search != "" {
			haystack := strings.ToLower(i.FirstName + " " + i.LastName)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, cloneInstructor(i))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the instructor with the given id.
func (r *InstructorRepository) FindByID(ctx context.Context, id int64) (*models.Instructor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	i, ok := r.store.instructors[id]
	if !ok {
		return nil, ErrNoRecord
	}
	i = cloneInstructor(i)
	return &i, nil
}

// ExistsByName reports whether another instructor already uses the given
// first and last name combination.
func (r *InstructorRepository) ExistsByName(ctx context.Context, firstName, lastName string, excludeID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, i := range r.store.instructors {
		if i.ID != excludeID && strings.EqualFold(i.FirstName, firstName) && strings.EqualFold(i.LastName, lastName) {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts an instructor, assigning its identity and timestamps.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.instructorSeq++
	instructor.ID = r.store.instructorSeq
	instructor.CreatedAt = r.store.now()
	instructor.UpdatedAt = instructor.CreatedAt
	r.store.instructors[instructor.ID] = cloneInstructor(*instructor)
	return nil
}

// Update replaces a stored instructor.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.instructors[instructor.ID]
	if !ok {
		return ErrNoRecord
	}
	instructor.CreatedAt = existing.CreatedAt
	instructor.UpdatedAt = r.store.now()
	r.store.instructors[instructor.ID] = cloneInstructor(*instructor)
	return nil
}

// Delete removes an instructor.
func (r *InstructorRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.instructors[id]; !ok {
		return ErrNoRecord
	}
	delete(r.store.instructors, id)
	return nil
}
