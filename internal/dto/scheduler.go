package dto

import (
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/internal/scheduler"
)

// AutoScheduleRequest selects the department-level groups to place into a timetable.
type AutoScheduleRequest struct {
	DepartmentIDs []string `json:"departmentIds" validate:"required,min=1,dive,required"`
	Levels        []int    `json:"levels" validate:"required,min=1,dive,oneof=100 200 300 400"`
}

// AutoScheduleStats summarises how the placement phases went.
// AlreadyScheduled counts selected courses skipped because they hold a slot in the timetable.
type AutoScheduleStats struct {
	Requested        int `json:"requested"`
	AlreadyScheduled int `json:"alreadyScheduled"`
	Placed           int `json:"placed"`
	Unscheduled      int `json:"unscheduled"`
	PreferredPlaced  int `json:"preferredPlaced"`
	FallbackPlaced   int `json:"fallbackPlaced"`
}

// AutoScheduleResponse reports created exam slots and courses left out.
type AutoScheduleResponse struct {
	Message     string                        `json:"message"`
	ExamSlots   []models.ExamSlotDetail       `json:"examSlots"`
	Unscheduled []scheduler.UnscheduledCourse `json:"unscheduled"`
	Stats       AutoScheduleStats             `json:"stats"`
}
