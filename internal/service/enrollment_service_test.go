package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univcore/academic-records-api/internal/models"
	appErrors "github.com/univcore/academic-records-api/pkg/errors"
)

func TestEnrollmentServiceEnroll(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")

	enrollment := env.mustEnroll(t, student.ID, course.ID)
	assert.Equal(t, models.EnrollmentStatusInProgress, enrollment.Status)
	assert.Nil(t, enrollment.Grade)
}

func TestEnrollmentServiceEnrollNotFound(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	ctx := context.Background()

	_, err := env.enrollments.Enroll(ctx, EnrollRequest{StudentID: 99, CourseID: course.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = env.enrollments.Enroll(ctx, EnrollRequest{StudentID: student.ID, CourseID: 99})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	env.mustEnroll(t, student.ID, course.ID)

	_, err := env.enrollments.Enroll(context.Background(), EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEligibility(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateCourse(t, "Algebra I")
	b := env.mustCreateCourse(t, "Algebra II")
	ctx := context.Background()
	_, err := env.courses.AssignPrerequisites(ctx, b.ID, []int64{a.ID})
	require.NoError(t, err)

	student := env.mustCreateStudent(t, "30111222")
	enrollA := env.mustEnroll(t, student.ID, a.ID)

	// The prerequisite enrollment is still IN_PROGRESS, so B is off limits.
	_, err = env.enrollments.Enroll(ctx, EnrollRequest{StudentID: student.ID, CourseID: b.ID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Contains(t, appErr.Message, `"Algebra I"`)

	_, err = env.enrollments.ChangeStatus(ctx, student.ID, enrollA.ID, ChangeStatusRequest{Status: models.EnrollmentStatusRegular})
	require.NoError(t, err)

	enrollB, err := env.enrollments.Enroll(ctx, EnrollRequest{StudentID: student.ID, CourseID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusInProgress, enrollB.Status)
}

func TestEnrollmentServiceEligibilityMissingEnrollment(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateCourse(t, "Algebra I")
	b := env.mustCreateCourse(t, "Algebra II")
	ctx := context.Background()
	_, err := env.courses.AssignPrerequisites(ctx, b.ID, []int64{a.ID})
	require.NoError(t, err)

	student := env.mustCreateStudent(t, "30111222")

	_, err = env.enrollments.Enroll(ctx, EnrollRequest{StudentID: student.ID, CourseID: b.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceChangeStatus(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)
	ctx := context.Background()

	updated, err := env.enrollments.ChangeStatus(ctx, student.ID, enrollment.ID, ChangeStatusRequest{Status: models.EnrollmentStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)

	// Regressions are allowed; no transition table is enforced.
	updated, err = env.enrollments.ChangeStatus(ctx, student.ID, enrollment.ID, ChangeStatusRequest{Status: models.EnrollmentStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusInProgress, updated.Status)
}

func TestEnrollmentServiceChangeStatusOwnership(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	owner := env.mustCreateStudent(t, "30111222")
	other := env.mustCreateStudent(t, "30111333")
	enrollment := env.mustEnroll(t, owner.ID, course.ID)

	_, err := env.enrollments.ChangeStatus(context.Background(), other.ID, enrollment.ID, ChangeStatusRequest{Status: models.EnrollmentStatusRegular})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceChangeStatusValidation(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)
	ctx := context.Background()

	_, err := env.enrollments.ChangeStatus(ctx, student.ID, enrollment.ID, ChangeStatusRequest{Status: "DROPPED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = env.enrollments.ChangeStatus(ctx, 99, enrollment.ID, ChangeStatusRequest{Status: models.EnrollmentStatusRegular})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = env.enrollments.ChangeStatus(ctx, student.ID, 99, ChangeStatusRequest{Status: models.EnrollmentStatusRegular})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceSetGrade(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)
	ctx := context.Background()

	// A passing grade promotes the enrollment in the same write.
	updated, err := env.enrollments.SetGrade(ctx, enrollment.ID, SetGradeRequest{Grade: 8.0})
	require.NoError(t, err)
	require.NotNil(t, updated.Grade)
	assert.Equal(t, 8.0, *updated.Grade)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)

	// Editing the grade downward later never demotes the status.
	updated, err = env.enrollments.SetGrade(ctx, enrollment.ID, SetGradeRequest{Grade: 5.0})
	require.NoError(t, err)
	require.NotNil(t, updated.Grade)
	assert.Equal(t, 5.0, *updated.Grade)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)
}

func TestEnrollmentServiceSetGradeBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)

	updated, err := env.enrollments.SetGrade(context.Background(), enrollment.ID, SetGradeRequest{Grade: 6.9})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusInProgress, updated.Status)
}

func TestEnrollmentServiceSetGradeExactThreshold(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)

	updated, err := env.enrollments.SetGrade(context.Background(), enrollment.ID, SetGradeRequest{Grade: 7.0})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)
}

func TestEnrollmentServiceSetGradeNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.enrollments.SetGrade(context.Background(), 99, SetGradeRequest{Grade: 8.0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDelete(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	student := env.mustCreateStudent(t, "30111222")
	enrollment := env.mustEnroll(t, student.ID, course.ID)
	ctx := context.Background()

	require.NoError(t, env.enrollments.Delete(ctx, enrollment.ID))

	err := env.enrollments.Delete(ctx, enrollment.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceList(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateCourse(t, "Algebra I")
	b := env.mustCreateCourse(t, "Geometry")
	student := env.mustCreateStudent(t, "30111222")
	env.mustEnroll(t, student.ID, a.ID)
	env.mustEnroll(t, student.ID, b.ID)

	all, err := env.enrollments.List(context.Background(), models.EnrollmentFilter{StudentID: student.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCourse, err := env.enrollments.List(context.Background(), models.EnrollmentFilter{CourseID: b.ID})
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
	assert.Equal(t, b.ID, byCourse[0].CourseID)
}
