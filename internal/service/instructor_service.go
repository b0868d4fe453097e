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

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, error)
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
	ExistsByName(ctx context.Context, firstName, lastName string, excludeID int64) (bool, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id int64) error
}

type courseByInstructorLister interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ListByInstructor(ctx context.Context, instructorID int64) ([]models.Course, error)
}

// CreateInstructorRequest holds payload for creating instructors.
type CreateInstructorRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Title     string  `json:"title"`
	CourseIDs []int64 `json:"course_ids"`
}

// UpdateInstructorRequest holds payload for updating instructors.
type UpdateInstructorRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Title     string  `json:"title"`
	CourseIDs []int64 `json:"course_ids"`
}

// InstructorService handles instructor use-cases.
type InstructorService struct {
	repo      instructorRepository
	courses   courseByInstructorLister
	validator *validator.Validate
	logger    *zap.Logger
	metrics   guardMetrics
	audit     auditRecorder
}

// NewInstructorService constructs the instructor service.
func NewInstructorService(repo instructorRepository, courses courseByInstructorLister, validate *validator.Validate, logger *zap.Logger, metrics guardMetrics, audit auditRecorder) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		audit:     audit,
	}
}

// List returns instructors matching the filter.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, error) {
	instructors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// Get returns a single instructor.
func (s *InstructorService) Get(ctx context.Context, id int64) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create registers a new instructor.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.FirstName, req.LastName, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate instructor name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "instructor name already used")
	}
	if err := s.checkCourseIDs(ctx, req.CourseIDs); err != nil {
		return nil, err
	}
	instructor := &models.Instructor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Title:     req.Title,
		CourseIDs: req.CourseIDs,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	s.recordAudit(models.AuditActionCreate, "instructor", instructor.ID, instructor.FirstName+" "+instructor.LastName)
	return instructor, nil
}

// Update modifies an existing instructor, including its course relation list.
func (s *InstructorService) Update(ctx context.Context, id int64, req UpdateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	exists, err := s.repo.ExistsByName(ctx, req.FirstName, req.LastName, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate instructor name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "instructor name already used")
	}
	if err := s.checkCourseIDs(ctx, req.CourseIDs); err != nil {
		return nil, err
	}
	instructor.FirstName = req.FirstName
	instructor.LastName = req.LastName
	instructor.Title = req.Title
	instructor.CourseIDs = req.CourseIDs
	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	s.recordAudit(models.AuditActionUpdate, "instructor", instructor.ID, instructor.FirstName+" "+instructor.LastName)
	return instructor, nil
}

// Delete removes an instructor unless they still teach courses. Both
// directions of the relation are consulted: the instructor's own course list
// and a scan of courses referencing the instructor. The two lists are
// maintained independently and can diverge, so either one blocks deletion.
func (s *InstructorService) Delete(ctx context.Context, id int64) error {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if len(instructor.CourseIDs) > 0 {
		if s.metrics != nil {
			s.metrics.DeletionBlocked("instructor")
		}
		return appErrors.Clone(appErrors.ErrBusinessRule, "instructor has assigned courses")
	}
	teaching, err := s.courses.ListByInstructor(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check courses")
	}
	if len(teaching) > 0 {
		if s.metrics != nil {
			s.metrics.DeletionBlocked("instructor")
		}
		return appErrors.Clone(appErrors.ErrBusinessRule, "instructor is referenced by courses")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	s.recordAudit(models.AuditActionDelete, "instructor", id, "")
	return nil
}

func (s *InstructorService) checkCourseIDs(ctx context.Context, ids []int64) error {
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

func (s *InstructorService) recordAudit(action, resource string, resourceID int64, detail string) {
	if s.audit != nil {
		s.audit.Record(action, resource, resourceID, detail)
	}
}
