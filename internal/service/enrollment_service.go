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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error)
	UpdateGrade(ctx context.Context, id int64, grade float64, status models.EnrollmentStatus) (*models.Enrollment, error)
	Delete(ctx context.Context, id int64) error
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type enrollmentMetrics interface {
	EnrollmentCreated()
	EnrollmentRejected(reason string)
	GradePromotion()
}

// EnrollRequest describes enrollment creation payload.
type EnrollRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
	CourseID  int64 `json:"course_id" validate:"required"`
}

// ChangeStatusRequest describes a status overwrite payload.
type ChangeStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required"`
}

// SetGradeRequest describes a grade assignment payload.
type SetGradeRequest struct {
	Grade float64 `json:"grade" validate:"gte=0,lte=10"`
}

// EnrollmentService orchestrates the enrollment lifecycle: eligibility on
// enroll, unrestricted status overwrites, and the grade-to-status rule.
type EnrollmentService struct {
	repo         enrollmentRepository
	students     studentReader
	courses      courseReader
	passingGrade float64
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      enrollmentMetrics
	audit        auditRecorder
}

// NewEnrollmentService constructs EnrollmentService. passingGrade is the
// threshold at which a grade promotes the enrollment to APPROVED.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseReader, passingGrade float64, validate *validator.Validate, logger *zap.Logger, metrics enrollmentMetrics, audit auditRecorder) *EnrollmentService {
	if passingGrade <= 0 {
		passingGrade = 7.0
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:         repo,
		students:     students,
		courses:      courses,
		passingGrade: passingGrade,
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		audit:        audit,
	}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	enrollments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll registers a student in a course once eligibility holds: the student
// and course exist, no enrollment exists for the pair yet, and every
// prerequisite of the course is satisfied with REGULAR or APPROVED status.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.repo.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID); err == nil {
		s.rejected("duplicate")
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "student already enrolled in course")
	} else if err != repository.ErrNoRecord {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	for _, pid := range course.PrerequisiteIDs {
		prereq, err := s.repo.FindByStudentAndCourse(ctx, req.StudentID, pid)
		if err != nil && err != repository.ErrNoRecord {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prerequisite enrollment")
		}
		if err == nil && prereq.Status.SatisfiesPrerequisite() {
			continue
		}
		s.rejected("missing_prerequisite")
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("missing prerequisite %q", s.courseName(ctx, pid)))
	}
	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentStatusInProgress,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if err == repository.ErrDuplicatePair {
			s.rejected("duplicate")
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "student already enrolled in course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if s.metrics != nil {
		s.metrics.EnrollmentCreated()
	}
	s.recordAudit(models.AuditActionEnroll, "enrollment", enrollment.ID, fmt.Sprintf("student %d, course %d", req.StudentID, req.CourseID))
	return enrollment, nil
}

// ChangeStatus overwrites an enrollment's status on behalf of its student.
// Any status may follow any other; the only gates are existence, a known
// status value, and ownership of the enrollment.
func (s *EnrollmentService) ChangeStatus(ctx context.Context, studentID, enrollmentID int64, req ChangeStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown enrollment status %q", req.Status))
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "enrollment does not belong to student")
	}
	updated, err := s.repo.UpdateStatus(ctx, enrollmentID, req.Status)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	s.recordAudit(models.AuditActionStatusChange, "enrollment", enrollmentID, string(req.Status))
	return updated, nil
}

// SetGrade records a numeric grade. A grade at or above the passing threshold
// forces the status to APPROVED in the same write; a lower grade leaves the
// status untouched, so a later downgrade never demotes an approved
// enrollment.
func (s *EnrollmentService) SetGrade(ctx context.Context, enrollmentID int64, req SetGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	status := enrollment.Status
	if req.Grade >= s.passingGrade {
		status = models.EnrollmentStatusApproved
	}
	updated, err := s.repo.UpdateGrade(ctx, enrollmentID, req.Grade, status)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set grade")
	}
	if status == models.EnrollmentStatusApproved && enrollment.Status != models.EnrollmentStatusApproved {
		if s.metrics != nil {
			s.metrics.GradePromotion()
		}
		s.logger.Info("grade promoted enrollment",
			zap.Int64("enrollment_id", enrollmentID),
			zap.Float64("grade", req.Grade))
	}
	s.recordAudit(models.AuditActionGradeSet, "enrollment", enrollmentID, fmt.Sprintf("grade %.1f", req.Grade))
	return updated, nil
}

// Delete removes an enrollment. Existence is the only requirement.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.recordAudit(models.AuditActionDelete, "enrollment", id, "")
	return nil
}

// courseName resolves a course's display name for error messages, falling
// back to the raw id when the record cannot be loaded.
func (s *EnrollmentService) courseName(ctx context.Context, id int64) string {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil || course.Name == "" {
		return fmt.Sprintf("%d", id)
	}
	return course.Name
}

func (s *EnrollmentService) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.EnrollmentRejected(reason)
	}
}

func (s *EnrollmentService) recordAudit(action, resource string, resourceID int64, detail string) {
	if s.audit != nil {
		s.audit.Record(action, resource, resourceID, detail)
	}
}
