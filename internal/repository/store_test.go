package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univcore/academic-records-api/internal/models"
)

func TestStoreAssignsMonotonicIdentity(t *testing.T) {
	store := NewStore()
	repo := NewCourseRepository(store)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		course := &models.Course{Name: string(rune('A' - 1 + i)), Year: 1, Term: 1}
		require.NoError(t, repo.Create(ctx, course))
		assert.Equal(t, int64(i), course.ID)
	}

	// Deleting does not recycle identity.
	require.NoError(t, repo.Delete(ctx, 3))
	course := &models.Course{Name: "D", Year: 1, Term: 1}
	require.NoError(t, repo.Create(ctx, course))
	assert.Equal(t, int64(4), course.ID)
}

func TestCourseRepositoryCopiesOnReadAndWrite(t *testing.T) {
	store := NewStore()
	repo := NewCourseRepository(store)
	ctx := context.Background()

	prereqs := []int64{10, 20}
	course := &models.Course{Name: "A", Year: 1, Term: 1, PrerequisiteIDs: prereqs}
	require.NoError(t, repo.Create(ctx, course))

	// Mutating the caller's slice must not leak into the store.
	prereqs[0] = 99
	loaded, err := repo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, loaded.PrerequisiteIDs)

	// Nor must mutating a loaded copy.
	loaded.PrerequisiteIDs[1] = 99
	reloaded, err := repo.FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, reloaded.PrerequisiteIDs)
}

func TestCourseRepositoryListByPrerequisite(t *testing.T) {
	store := NewStore()
	repo := NewCourseRepository(store)
	ctx := context.Background()

	a := &models.Course{Name: "A", Year: 1, Term: 1}
	require.NoError(t, repo.Create(ctx, a))
	b := &models.Course{Name: "B", Year: 1, Term: 2, PrerequisiteIDs: []int64{a.ID}}
	require.NoError(t, repo.Create(ctx, b))
	c := &models.Course{Name: "C", Year: 2, Term: 1, PrerequisiteIDs: []int64{a.ID, b.ID}}
	require.NoError(t, repo.Create(ctx, c))

	dependents, err := repo.ListByPrerequisite(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, dependents, 2)
	assert.Equal(t, "B", dependents[0].Name)
	assert.Equal(t, "C", dependents[1].Name)

	dependents, err = repo.ListByPrerequisite(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, dependents)
}

func TestEnrollmentRepositoryPairUniqueness(t *testing.T) {
	store := NewStore()
	repo := NewEnrollmentRepository(store)
	ctx := context.Background()

	first := &models.Enrollment{StudentID: 1, CourseID: 1, Status: models.EnrollmentStatusInProgress}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.Enrollment{StudentID: 1, CourseID: 1, Status: models.EnrollmentStatusInProgress}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicatePair)

	other := &models.Enrollment{StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusInProgress}
	require.NoError(t, repo.Create(ctx, other))
}

func TestEnrollmentRepositoryPairUniquenessConcurrent(t *testing.T) {
	store := NewStore()
	repo := NewEnrollmentRepository(store)
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	created := make(chan int64, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := &models.Enrollment{StudentID: 7, CourseID: 7, Status: models.EnrollmentStatusInProgress}
			if err := repo.Create(ctx, e); err == nil {
				created <- e.ID
			}
		}()
	}
	wg.Wait()
	close(created)

	var winners []int64
	for id := range created {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1, "exactly one concurrent enroll may win")

	all, err := repo.List(ctx, models.EnrollmentFilter{StudentID: 7, CourseID: 7})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnrollmentRepositoryUpdates(t *testing.T) {
	store := NewStore()
	repo := NewEnrollmentRepository(store)
	ctx := context.Background()

	e := &models.Enrollment{StudentID: 1, CourseID: 1, Status: models.EnrollmentStatusInProgress}
	require.NoError(t, repo.Create(ctx, e))

	updated, err := repo.UpdateStatus(ctx, e.ID, models.EnrollmentStatusRegular)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRegular, updated.Status)

	updated, err = repo.UpdateGrade(ctx, e.ID, 8.5, models.EnrollmentStatusApproved)
	require.NoError(t, err)
	require.NotNil(t, updated.Grade)
	assert.Equal(t, 8.5, *updated.Grade)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)

	_, err = repo.UpdateStatus(ctx, 99, models.EnrollmentStatusRegular)
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestStudentRepositoryNationalIDLookup(t *testing.T) {
	store := NewStore()
	repo := NewStudentRepository(store)
	ctx := context.Background()

	s := &models.Student{FirstName: "Ana", LastName: "Gomez", NationalID: "30111222"}
	require.NoError(t, repo.Create(ctx, s))

	exists, err := repo.ExistsByNationalID(ctx, "30111222", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	// The owning record is excluded when updating in place.
	exists, err = repo.ExistsByNationalID(ctx, "30111222", s.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoriesShareOneArena(t *testing.T) {
	store := NewStore()
	courses := NewCourseRepository(store)
	enrollments := NewEnrollmentRepository(store)
	ctx := context.Background()

	c := &models.Course{Name: "A", Year: 1, Term: 1}
	require.NoError(t, courses.Create(ctx, c))
	e := &models.Enrollment{StudentID: 1, CourseID: c.ID, Status: models.EnrollmentStatusInProgress}
	require.NoError(t, enrollments.Create(ctx, e))

	has, err := enrollments.ExistsByCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = enrollments.ExistsByStudent(ctx, 2)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCourseRepositoryFilters(t *testing.T) {
	store := NewStore()
	repo := NewCourseRepository(store)
	ctx := context.Background()

	instructorID := int64(5)
	require.NoError(t, repo.Create(ctx, &models.Course{Name: "Algebra I", Year: 1, Term: 1, InstructorID: &instructorID}))
	require.NoError(t, repo.Create(ctx, &models.Course{Name: "Geometry", Year: 1, Term: 2}))
	require.NoError(t, repo.Create(ctx, &models.Course{Name: "Algebra II", Year: 2, Term: 1}))

	byName, err := repo.List(ctx, models.CourseFilter{Search: "algebra"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byYear, err := repo.List(ctx, models.CourseFilter{Year: 1})
	require.NoError(t, err)
	assert.Len(t, byYear, 2)

	byInstructor, err := repo.ListByInstructor(ctx, instructorID)
	require.NoError(t, err)
	require.Len(t, byInstructor, 1)
	assert.Equal(t, "Algebra I", byInstructor[0].Name)
}
