package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univcore/academic-records-api/internal/models"
	"github.com/univcore/academic-records-api/internal/repository"
	appErrors "github.com/univcore/academic-records-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error)
	FindByID(ctx context.Context, id int64) (*models.Program, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, id int64) error
}

type programCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// CreateProgramRequest holds payload for creating programs.
type CreateProgramRequest struct {
	Name          string  `json:"name" validate:"required"`
	DurationTerms int     `json:"duration_terms" validate:"required,min=1"`
	CourseIDs     []int64 `json:"course_ids"`
}

// UpdateProgramRequest holds payload for updating programs.
type UpdateProgramRequest struct {
	Name          string  `json:"name" validate:"required"`
	DurationTerms int     `json:"duration_terms" validate:"required,min=1"`
	CourseIDs     []int64 `json:"course_ids"`
}

// ProgramService handles degree program use-cases.
type ProgramService struct {
	repo      programRepository
	courses   programCourseReader
	validator *validator.Validate
	logger    *zap.Logger
	audit     auditRecorder
}

// NewProgramService constructs the program service.
func NewProgramService(repo programRepository, courses programCourseReader, validate *validator.Validate, logger *zap.Logger, audit auditRecorder) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, courses: courses, validator: validate, logger: logger, audit: audit}
}

// List returns programs matching the filter.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	programs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns a single program.
func (s *ProgramService) Get(ctx context.Context, id int64) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Create registers a new program.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate program name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "program name already used")
	}
	if err := s.checkCourseIDs(ctx, req.CourseIDs); err != nil {
		return nil, err
	}
	program := &models.Program{
		Name:          req.Name,
		DurationTerms: req.DurationTerms,
		CourseIDs:     req.CourseIDs,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.recordAudit(models.AuditActionCreate, "program", program.ID, program.Name)
	return program, nil
}

// Update modifies an existing program.
func (s *ProgramService) Update(ctx context.Context, id int64, req UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate program name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "program name already used")
	}
	if err := s.checkCourseIDs(ctx, req.CourseIDs); err != nil {
		return nil, err
	}
	program.Name = req.Name
	program.DurationTerms = req.DurationTerms
	program.CourseIDs = req.CourseIDs
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	s.recordAudit(models.AuditActionUpdate, "program", program.ID, program.Name)
	return program, nil
}

// Delete removes a program. Programs have no dependents that block deletion;
// students keep their optional program reference dangling.
func (s *ProgramService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	s.recordAudit(models.AuditActionDelete, "program", id, "")
	return nil
}

func (s *ProgramService) checkCourseIDs(ctx context.Context, ids []int64) error {
	for _, cid := range ids {
		if _, err := s.courses.FindByID(ctx, cid); err != nil {
			if err == repository.ErrNoRecord {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", cid))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}
	return nil
}

func (s *ProgramService) recordAudit(action, resource string, resourceID int64, detail string) {
	if s.audit != nil {
		s.audit.Record(action, resource, resourceID, detail)
	}
}
