package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univcore/academic-records-api/internal/models"
	"github.com/univcore/academic-records-api/internal/repository"
	appErrors "github.com/univcore/academic-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type programReader interface {
	FindByID(ctx context.Context, id int64) (*models.Program, error)
}

type enrollmentStudentChecker interface {
	ExistsByStudent(ctx context.Context, studentID int64) (bool, error)
}

type guardMetrics interface {
	DeletionBlocked(entity string)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	NationalID string `json:"national_id" validate:"required"`
	ProgramID  *int64 `json:"program_id"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	NationalID string `json:"national_id" validate:"required"`
	ProgramID  *int64 `json:"program_id"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo        studentRepository
	programs    programReader
	enrollments enrollmentStudentChecker
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     guardMetrics
	audit       auditRecorder
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, programs programReader, enrollments enrollmentStudentChecker, validate *validator.Validate, logger *zap.Logger, metrics guardMetrics, audit auditRecorder) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		programs:    programs,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		audit:       audit,
	}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByNationalID(ctx, req.NationalID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate national id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "national id already used")
	}
	if req.ProgramID != nil {
		if _, err := s.programs.FindByID(ctx, *req.ProgramID); err != nil {
			if err == repository.ErrNoRecord {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
		}
	}
	student := &models.Student{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: req.NationalID,
		ProgramID:  req.ProgramID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.recordAudit(models.AuditActionCreate, "student", student.ID, student.NationalID)
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByNationalID(ctx, req.NationalID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate national id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "national id already used")
	}
	if req.ProgramID != nil {
		if _, err := s.programs.FindByID(ctx, *req.ProgramID); err != nil {
			if err == repository.ErrNoRecord {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
		}
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.NationalID = req.NationalID
	student.ProgramID = req.ProgramID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.recordAudit(models.AuditActionUpdate, "student", student.ID, student.NationalID)
	return student, nil
}

// Delete removes a student unless an enrollment still references them.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	hasEnrollments, err := s.enrollments.ExistsByStudent(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if hasEnrollments {
		if s.metrics != nil {
			s.metrics.DeletionBlocked("student")
		}
		return appErrors.Clone(appErrors.ErrBusinessRule, "student has enrollments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.recordAudit(models.AuditActionDelete, "student", id, "")
	return nil
}

func (s *StudentService) recordAudit(action, resource string, resourceID int64, detail string) {
	if s.audit != nil {
		s.audit.Record(action, resource, resourceID, detail)
	}
}
