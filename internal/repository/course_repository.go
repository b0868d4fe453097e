package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/univcore/academic-records-api/internal/models"
)

// CourseRepository manages the course collection of the store.
type CourseRepository struct {
	store *Store
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(store *Store) *CourseRepository {
	return &CourseRepository{store: store}
}

// List returns courses matching the provided filters, ordered by id.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Course
	search := strings.ToLower(filter.Search)
	for _, c := range r.store.courses {
		if filter.Year != 0 && c.Year != filter.Year {
			continue
		}
		if filter.Term != 0 && c.Term != filter.Term {
			continue
		}
		if filter.InstructorID != nil {
			if c.InstructorID == nil || *c.InstructorID != *filter.InstructorID {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the course with the given id.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.courses[id]
	if !ok {
		return nil, ErrNoRecord
	}
	c = cloneCourse(c)
	return &c, nil
}

// ExistsByName reports whether another course already uses the given name.
func (r *CourseRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.courses {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts a course, assigning its identity and timestamps.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.courseSeq++
	course.ID = r.store.courseSeq
	course.CreatedAt = r.store.now()
	course.UpdatedAt = course.CreatedAt
	r.store.courses[course.ID] = cloneCourse(*course)
	return nil
}

// Update replaces a stored course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.courses[course.ID]
	if !ok {
		return ErrNoRecord
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = r.store.now()
	r.store.courses[course.ID] = cloneCourse(*course)
	return nil
}

// ReplacePrerequisites swaps a course's prerequisite set in one step.
func (r *CourseRepository) ReplacePrerequisites(ctx context.Context, id int64, prerequisiteIDs []int64) (*models.Course, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.courses[id]
	if !ok {
		return nil, ErrNoRecord
	}
	c.PrerequisiteIDs = cloneIDs(prerequisiteIDs)
	c.UpdatedAt = r.store.now()
	r.store.courses[id] = c
	c = cloneCourse(c)
	return &c, nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.courses[id]; !ok {
		return ErrNoRecord
	}
	delete(r.store.courses, id)
	return nil
}

// ListByPrerequisite returns every course whose prerequisite set contains the
// given course id. This is the derived reverse view of the prerequisite graph.
func (r *CourseRepository) ListByPrerequisite(ctx context.Context, courseID int64) ([]models.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Course
	for _, c := range r.store.courses {
		if c.HasPrerequisite(courseID) {
			out = append(out, cloneCourse(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByInstructor returns courses whose InstructorID references the given
// instructor.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID int64) ([]models.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Course
	for _, c := range r.store.courses {
		if c.InstructorID != nil && *c.InstructorID == instructorID {
			out = append(out, cloneCourse(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
