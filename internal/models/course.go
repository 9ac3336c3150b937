package models

// Department groups courses under a faculty.
type Department struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Code      string `db:"code" json:"code"`
	FacultyID string `db:"faculty_id" json:"facultyId"`
}

// Course is a schedulable unit belonging to one department and level.
type Course struct {
	ID             string `db:"id" json:"id"`
	Code           string `db:"code" json:"code"`
	Title          string `db:"title" json:"title"`
	Level          int    `db:"level" json:"level"`
	DepartmentID   string `db:"department_id" json:"departmentId"`
	DepartmentName string `db:"department_name" json:"departmentName"`
}
