package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/univcore/academic-records-api/internal/models"
)

// ProgramRepository manages the program collection of the store.
type ProgramRepository struct {
	store *Store
}

// NewProgramRepository constructs a ProgramRepository.
func NewProgramRepository(store *Store) *ProgramRepository {
	return &ProgramRepository{store: store}
}

// List returns programs matching the provided filters, ordered by id.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Program
	search := strings.ToLower(filter.Search)
	for _, p := range r.store.programs {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, cloneProgram(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByID returns the program with the given id.
func (r *ProgramRepository) FindByID(ctx context.Context, id int64) (*models.Program, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.programs[id]
	if !ok {
		return nil, ErrNoRecord
	}
	p = cloneProgram(p)
	return &p, nil
}

// ExistsByName reports whether another program already uses the given name.
func (r *ProgramRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.programs {
		if p.ID != excludeID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts a program, assigning its identity and timestamps.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.programSeq++
	program.ID = r.store.programSeq
	program.CreatedAt = r.store.now()
	program.UpdatedAt = program.CreatedAt
	r.store.programs[program.ID] = cloneProgram(*program)
	return nil
}

// Update replaces a stored program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.programs[program.ID]
	if !ok {
		return ErrNoRecord
	}
	program.CreatedAt = existing.CreatedAt
	program.UpdatedAt = r.store.now()
	r.store.programs[program.ID] = cloneProgram(*program)
	return nil
}

// Delete removes a program.
func (r *ProgramRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.programs[id]; !ok {
		return ErrNoRecord
	}
	delete(r.store.programs, id)
	return nil
}
