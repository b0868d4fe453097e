package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univcore/academic-records-api/internal/models"
	"github.com/univcore/academic-records-api/internal/repository"
)

// testEnv wires every service against one real in-memory store.
type testEnv struct {
	store       *repository.Store
	courses     *CourseService
	students    *StudentService
	instructors *InstructorService
	programs    *ProgramService
	enrollments *EnrollmentService
	metrics     *MetricsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewStore()
	courseRepo := repository.NewCourseRepository(store)
	studentRepo := repository.NewStudentRepository(store)
	instructorRepo := repository.NewInstructorRepository(store)
	programRepo := repository.NewProgramRepository(store)
	enrollmentRepo := repository.NewEnrollmentRepository(store)

	validate := validator.New()
	logger := zap.NewNop()
	metrics := NewMetricsService()

	return &testEnv{
		store:       store,
		courses:     NewCourseService(courseRepo, instructorRepo, enrollmentRepo, validate, logger, metrics, nil),
		students:    NewStudentService(studentRepo, programRepo, enrollmentRepo, validate, logger, metrics, nil),
		instructors: NewInstructorService(instructorRepo, courseRepo, validate, logger, metrics, nil),
		programs:    NewProgramService(programRepo, courseRepo, validate, logger, nil),
		enrollments: NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, 7.0, validate, logger, metrics, nil),
		metrics:     metrics,
	}
}

func (e *testEnv) mustCreateCourse(t *testing.T, name string, prereqIDs ...int64) *models.Course {
	t.Helper()
	course, err := e.courses.Create(context.Background(), CreateCourseRequest{
		Name:            name,
		Year:            1,
		Term:            1,
		PrerequisiteIDs: prereqIDs,
	})
	require.NoError(t, err)
	return course
}

func (e *testEnv) mustCreateStudent(t *testing.T, nationalID string) *models.Student {
	t.Helper()
	student, err := e.students.Create(context.Background(), CreateStudentRequest{
		FirstName:  "Ana",
		LastName:   "Gomez",
		NationalID: nationalID,
	})
	require.NoError(t, err)
	return student
}

func (e *testEnv) mustEnroll(t *testing.T, studentID, courseID int64) *models.Enrollment {
	t.Helper()
	enrollment, err := e.enrollments.Enroll(context.Background(), EnrollRequest{StudentID: studentID, CourseID: courseID})
	require.NoError(t, err)
	return enrollment
}
