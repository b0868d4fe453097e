package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univcore/academic-records-api/internal/models"
	"github.com/univcore/academic-records-api/internal/repository"
	appErrors "github.com/univcore/academic-records-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	ReplacePrerequisites(ctx context.Context, id int64, prerequisiteIDs []int64) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
	ListByPrerequisite(ctx context.Context, courseID int64) ([]models.Course, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
}

type enrollmentCourseChecker interface {
	ExistsByCourse(ctx context.Context, courseID int64) (bool, error)
}

type courseMetrics interface {
	PrerequisitesAssigned(walkNodes int)
	PrerequisiteCycleRejected()
	DeletionBlocked(entity string)
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Name            string  `json:"name" validate:"required"`
	Year            int     `json:"year" validate:"required,min=1"`
	Term            int     `json:"term" validate:"required,min=1,max=2"`
	InstructorID    *int64  `json:"instructor_id"`
	PrerequisiteIDs []int64 `json:"prerequisite_ids"`
}

// UpdateCourseRequest holds payload for updating courses.
type UpdateCourseRequest struct {
	Name         string `json:"name" validate:"required"`
	Year         int    `json:"year" validate:"required,min=1"`
	Term         int    `json:"term" validate:"required,min=1,max=2"`
	InstructorID *int64 `json:"instructor_id"`
}

// CourseService handles course use-cases, including the correlativity graph.
type CourseService struct {
	repo        courseRepository
	instructors instructorReader
	enrollments enrollmentCourseChecker
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     courseMetrics
	audit       auditRecorder
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, instructors instructorReader, enrollments enrollmentCourseChecker, validate *validator.Validate, logger *zap.Logger, metrics courseMetrics, audit auditRecorder) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:        repo,
		instructors: instructors,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		audit:       audit,
	}
}

// List returns courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course. Prerequisite ids, when supplied, go through
// the same existence and cycle validation as AssignPrerequisites.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "course name already used")
	}
	if req.InstructorID != nil {
		if _, err := s.instructors.FindByID(ctx, *req.InstructorID); err != nil {
			if err == repository.ErrNoRecord {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}
	if len(req.PrerequisiteIDs) > 0 {
		// A new course has no identity yet, so none of the proposed edges can
		// point back at it; existence is still required.
		for _, pid := range req.PrerequisiteIDs {
			if _, err := s.repo.FindByID(ctx, pid); err != nil {
				if err == repository.ErrNoRecord {
					return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("prerequisite course %d not found", pid))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite course")
			}
		}
	}
	course := &models.Course{
		Name:            req.Name,
		Year:            req.Year,
		Term:            req.Term,
		InstructorID:    req.InstructorID,
		PrerequisiteIDs: req.PrerequisiteIDs,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.recordAudit(models.AuditActionCreate, "course", course.ID, course.Name)
	return course, nil
}

// Update modifies an existing course. The prerequisite set is managed solely
// through AssignPrerequisites and is left untouched here.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "course name already used")
	}
	if req.InstructorID != nil {
		if _, err := s.instructors.FindByID(ctx, *req.InstructorID); err != nil {
			if err == repository.ErrNoRecord {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}
	course.Name = req.Name
	course.Year = req.Year
	course.Term = req.Term
	course.InstructorID = req.InstructorID
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.recordAudit(models.AuditActionUpdate, "course", course.ID, course.Name)
	return course, nil
}

// AssignPrerequisites replaces a course's prerequisite set after verifying
// every id exists and none of the proposed edges closes a cycle in the
// correlativity graph. Either the full set is assigned or nothing changes.
func (s *CourseService) AssignPrerequisites(ctx context.Context, courseID int64, prerequisiteIDs []int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	for _, pid := range prerequisiteIDs {
		if pid == courseID {
			continue
		}
		if _, err := s.repo.FindByID(ctx, pid); err != nil {
			if err == repository.ErrNoRecord {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("prerequisite course %d not found", pid))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite course")
		}
	}
	cyclic, walked, err := s.reaches(ctx, courseID, prerequisiteIDs)
	if err != nil {
		return nil, err
	}
	if cyclic {
		if s.metrics != nil {
			s.metrics.PrerequisiteCycleRejected()
		}
		s.logger.Warn("prerequisite assignment rejected",
			zap.Int64("course_id", courseID),
			zap.Int64s("prerequisite_ids", prerequisiteIDs))
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("assigning prerequisites to course %q would create a cycle", course.Name))
	}
	updated, err := s.repo.ReplacePrerequisites(ctx, courseID, prerequisiteIDs)
	if err != nil {
		if err == repository.ErrNoRecord {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign prerequisites")
	}
	if s.metrics != nil {
		s.metrics.PrerequisitesAssigned(walked)
	}
	s.recordAudit(models.AuditActionAssignPrerequisites, "course", courseID, fmt.Sprintf("%d prerequisites", len(prerequisiteIDs)))
	return updated, nil
}

// reaches walks the stored prerequisite edges from each proposed id and
// reports whether courseID is reachable. One visited set covers the whole
// call, so the walk is linear in the size of the graph even when branches
// share ancestors; revisited nodes are skipped, which also terminates the
// walk on an already-malformed graph. Dangling edge targets are ignored.
func (s *CourseService) reaches(ctx context.Context, courseID int64, startIDs []int64) (bool, int, error) {
	visited := make(map[int64]bool, len(startIDs))
	stack := make([]int64, 0, len(startIDs))
	stack = append(stack, startIDs...)

	walked := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == courseID {
			return true, walked, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		walked++

		node, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if err == repository.ErrNoRecord {
				continue
			}
			return false, walked, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to walk prerequisite graph")
		}
		stack = append(stack, node.PrerequisiteIDs...)
	}
	return false, walked, nil
}

// Delete removes a course unless another course lists it as a prerequisite or
// an enrollment references it.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	dependents, err := s.repo.ListByPrerequisite(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check dependent courses")
	}
	if len(dependents) > 0 {
		names := make([]string, 0, len(dependents))
		for _, d := range dependents {
			names = append(names, d.Name)
		}
		if s.metrics != nil {
			s.metrics.DeletionBlocked("course")
		}
		return appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("course is a prerequisite of: %s", strings.Join(names, ", ")))
	}
	hasEnrollments, err := s.enrollments.ExistsByCourse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if hasEnrollments {
		if s.metrics != nil {
			s.metrics.DeletionBlocked("course")
		}
		return appErrors.Clone(appErrors.ErrBusinessRule, "course has enrollments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNoRecord {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.recordAudit(models.AuditActionDelete, "course", id, course.Name)
	return nil
}

func (s *CourseService) recordAudit(action, resource string, resourceID int64, detail string) {
	if s.audit != nil {
		s.audit.Record(action, resource, resourceID, detail)
	}
}
