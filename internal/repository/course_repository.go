package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/emrs-app/exam-timetable-api/internal/models"
)

// CourseRepository reads courses maintained by the catalogue service.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `c.id, c.code, c.title, c.level, c.department_id, d.name AS department_name`

// FindByID returns a course joined with its department name.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c JOIN departments d ON d.id = c.department_id WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByDepartmentsAndLevels returns every course in the cross product of departments and levels.
func (r *CourseRepository) ListByDepartmentsAndLevels(ctx context.Context, departmentIDs []string, levels []int) ([]models.Course, error) {
	if len(departmentIDs) == 0 || len(levels) == 0 {
		return []models.Course{}, nil
	}
	lv := make([]int64, len(levels))
	for i, l := range levels {
		lv[i] = int64(l)
	}
	query := `SELECT ` + courseColumns + ` FROM courses c JOIN departments d ON d.id = c.department_id
WHERE c.department_id = ANY($1) AND c.level = ANY($2) ORDER BY c.department_id ASC, c.level ASC, c.code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(departmentIDs), pq.Array(lv)); err != nil {
		return nil, fmt.Errorf("list courses by department and level: %w", err)
	}
	return courses, nil
}

// DepartmentRepository reads department records.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new repository instance.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID returns a department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, faculty_id FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}
