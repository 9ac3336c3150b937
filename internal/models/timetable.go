package models

import "time"

// Timetable is an exam period owned by administrators and published to students.
type Timetable struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	EndDate     time.Time `db:"end_date" json:"endDate"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// TimetableFilter captures list options for timetables.
type TimetableFilter struct {
	Published *bool
	Page      int
	PageSize  int
}

// TimetableDetail bundles a timetable with its hydrated exam slots.
type TimetableDetail struct {
	Timetable
	ExamSlots []ExamSlotDetail `json:"examSlots"`
}

// ExamSlot places one course exam on a date and time slot inside a timetable.
type ExamSlot struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetableId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	Date        time.Time `db:"date" json:"date"`
	TimeSlot    string    `db:"time_slot" json:"timeSlot"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ExamSlotDetail is an exam slot joined with its course and department.
type ExamSlotDetail struct {
	ID             string    `db:"id" json:"id"`
	TimetableID    string    `db:"timetable_id" json:"timetableId"`
	CourseID       string    `db:"course_id" json:"courseId"`
	Date           time.Time `db:"date" json:"date"`
	TimeSlot       string    `db:"time_slot" json:"timeSlot"`
	TimeSlotLabel  string    `db:"-" json:"timeSlotLabel"`
	CourseCode     string    `db:"course_code" json:"courseCode"`
	CourseTitle    string    `db:"course_title" json:"courseTitle"`
	Level          int       `db:"level" json:"level"`
	DepartmentID   string    `db:"department_id" json:"departmentId"`
	DepartmentName string    `db:"department_name" json:"departmentName"`
	DepartmentCode string    `db:"department_code" json:"departmentCode"`
	Color          string    `db:"-" json:"color"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
