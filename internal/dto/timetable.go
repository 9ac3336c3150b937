package dto

// CreateTimetableRequest opens a new exam period.
type CreateTimetableRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// UpdateTimetableRequest patches an unpublished timetable. At least one field must be set.
type UpdateTimetableRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=200"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// TimetableQuery filters timetable listings.
type TimetableQuery struct {
	Published *bool `form:"published" json:"published"`
	Page      int   `form:"page" json:"page"`
	PageSize  int   `form:"pageSize" json:"pageSize"`
}

// AddExamSlotRequest places a single exam manually.
type AddExamSlotRequest struct {
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"timeSlot" validate:"required,oneof=SLOT_8_10 SLOT_10_12 SLOT_1_3 SLOT_3_5"`
	CourseID string `json:"courseId" validate:"required"`
}

// ExportQuery selects the export format for a timetable.
type ExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}
