package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/deppfellow/student-records/internal/model"
	"github.com/deppfellow/student-records/internal/repository"
	"github.com/deppfellow/student-records/internal/sqlerr"
	"github.com/deppfellow/student-records/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudent(n int, year, class string) *model.Student {
	return &model.Student{
		FirstName:      fmt.Sprintf("First%d", n),
		LastName:       fmt.Sprintf("Last%d", n),
		Email:          fmt.Sprintf("student%d@example.com", n),
		EnrollmentYear: 2020 + n%5,
		ClassName:      class,
		Year:           year,
	}
}

func setup(t *testing.T) (*repository.StudentRepository, context.Context) {
	t.Helper()
	s := testutil.NewServer(t, nil)
	return repository.NewRepositories(s).Student, context.Background()
}

func listAll(t *testing.T, repo *repository.StudentRepository) []model.Student {
	t.Helper()
	students, err := repo.List(context.Background(), model.StudentFilter{Limit: 1000})
	require.NoError(t, err)
	return students
}

func TestStudentRepository_CreateAndGet(t *testing.T) {
	repo, ctx := setup(t)

	student := newStudent(1, "Freshman", "10A")
	student.DOB = model.ParseDate("2005-06-07")
	require.NoError(t, repo.Create(ctx, student))
	require.NotZero(t, student.ID)

	got, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.Email, got.Email)
	assert.Equal(t, "2005-06-07", *model.FormatDate(got.DOB))

	byEmail, err := repo.GetByEmail(ctx, student.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, student.ID, byEmail.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, student.ID+100)
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)
}

func TestStudentRepository_DuplicateEmail(t *testing.T) {
	repo, ctx := setup(t)

	require.NoError(t, repo.Create(ctx, newStudent(1, "Freshman", "10A")))

	err := repo.Create(ctx, newStudent(1, "Senior", "12B"))
	require.Error(t, err)
	assert.True(t, sqlerr.IsUniqueViolation(err))

	stored, err := repo.GetByEmail(ctx, "student1@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Freshman", stored.Year)
	assert.Len(t, listAll(t, repo), 1)
}

func TestStudentRepository_List(t *testing.T) {
	repo, ctx := setup(t)

	for i := 1; i <= 6; i++ {
		year := "Freshman"
		if i%2 == 0 {
			year = "Senior"
		}
		class := "10A"
		if i > 3 {
			class = "11B"
		}
		require.NoError(t, repo.Create(ctx, newStudent(i, year, class)))
	}

	ids := func(students []model.Student) []int64 {
		out := make([]int64, len(students))
		for i, s := range students {
			out[i] = s.ID
		}
		return out
	}

	all, err := repo.List(ctx, model.StudentFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(all))

	page, err := repo.List(ctx, model.StudentFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids(page))

	seniors, err := repo.List(ctx, model.StudentFilter{Year: "Senior", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6}, ids(seniors))

	both, err := repo.List(ctx, model.StudentFilter{Year: "Senior", Class: "11B", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6}, ids(both))

	none, err := repo.List(ctx, model.StudentFilter{Class: "99Z", Limit: 100})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	empty, err := repo.List(ctx, model.StudentFilter{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStudentRepository_Update(t *testing.T) {
	repo, ctx := setup(t)

	student := newStudent(1, "Freshman", "10A")
	major := "Physics"
	student.Major = &major
	require.NoError(t, repo.Create(ctx, student))

	err := repo.Update(ctx, student.ID, map[string]any{
		"major":      nil,
		"class_name": "11C",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Major)
	assert.Equal(t, "11C", got.ClassName)
	assert.Equal(t, student.FirstName, got.FirstName)

	require.NoError(t, repo.Update(ctx, student.ID, map[string]any{}))

	assert.ErrorIs(t, repo.Update(ctx, 999, map[string]any{"year": "Senior"}), repository.ErrStudentNotFound)
	assert.ErrorIs(t, repo.Update(ctx, 999, map[string]any{}), repository.ErrStudentNotFound)
}

func TestStudentRepository_Delete(t *testing.T) {
	repo, ctx := setup(t)

	first := newStudent(1, "Freshman", "10A")
	require.NoError(t, repo.Create(ctx, first))
	second := newStudent(2, "Freshman", "10A")
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.ErrorIs(t, repo.Delete(ctx, second.ID), repository.ErrStudentNotFound)

	_, err := repo.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, repository.ErrStudentNotFound)

	third := newStudent(3, "Freshman", "10A")
	require.NoError(t, repo.Create(ctx, third))
	assert.Greater(t, third.ID, second.ID, "ids of deleted students are not reused")

	assert.Len(t, listAll(t, repo), 2)
}
