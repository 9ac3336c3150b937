package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRepositoryListByDepartmentsAndLevels(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "title", "level", "department_id", "department_name"}).
		AddRow("c-1", "CSC101", "Intro to Computing", 100, "dept-1", "Computer Science").
		AddRow("c-2", "CSC102", "Discrete Structures", 100, "dept-1", "Computer Science")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.department_id = ANY($1) AND c.level = ANY($2)")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	courses, err := repo.ListByDepartmentsAndLevels(context.Background(), []string{"dept-1"}, []int{100})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Computer Science", courses[0].DepartmentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListSkipsEmptyFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	courses, err := repo.ListByDepartmentsAndLevels(context.Background(), nil, []int{100})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, faculty_id FROM departments WHERE id = $1")).
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "faculty_id"}).AddRow("dept-1", "Computer Science", "CSC", "fac-1"))

	department, err := repo.FindByID(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, "CSC", department.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
