package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univcore/academic-records-api/internal/models"
	appErrors "github.com/univcore/academic-records-api/pkg/errors"
)

func TestProgramServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := env.programs.Create(ctx, CreateProgramRequest{Name: "Systems Engineering", DurationTerms: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), program.ID)

	_, err = env.programs.Create(ctx, CreateProgramRequest{Name: "systems engineering", DurationTerms: 8})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestProgramServiceCourseAssociation(t *testing.T) {
	env := newTestEnv(t)
	course := env.mustCreateCourse(t, "Algebra I")
	ctx := context.Background()

	program, err := env.programs.Create(ctx, CreateProgramRequest{
		Name: "Systems Engineering", DurationTerms: 10, CourseIDs: []int64{course.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{course.ID}, program.CourseIDs)

	_, err = env.programs.Update(ctx, program.ID, UpdateProgramRequest{
		Name: "Systems Engineering", DurationTerms: 10, CourseIDs: []int64{99},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgramServiceDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	program, err := env.programs.Create(ctx, CreateProgramRequest{Name: "Systems Engineering", DurationTerms: 10})
	require.NoError(t, err)
	require.NoError(t, env.programs.Delete(ctx, program.ID))

	err = env.programs.Delete(ctx, program.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgramServiceList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.programs.Create(ctx, CreateProgramRequest{Name: "Systems Engineering", DurationTerms: 10})
	require.NoError(t, err)
	_, err = env.programs.Create(ctx, CreateProgramRequest{Name: "Industrial Engineering", DurationTerms: 10})
	require.NoError(t, err)

	programs, err := env.programs.List(ctx, models.ProgramFilter{Search: "systems"})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "Systems Engineering", programs[0].Name)
}
