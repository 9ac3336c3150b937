package scheduler

import "time"

// SlotRequest is a persistable exam-slot creation request.
type SlotRequest struct {
	CourseID string
	Date     time.Time
	TimeSlot TimeSlot
}

// UnscheduledCourse summarises a course left for manual placement.
type UnscheduledCourse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Title        string `json:"title"`
	DepartmentID string `json:"departmentId"`
	Level        int    `json:"level"`
}

// Assembly is the caller-facing shape of a Result.
type Assembly struct {
	SlotRequests []SlotRequest
	Unscheduled  []UnscheduledCourse
}

// Assemble converts engine output into slot requests and unscheduled summaries.
func Assemble(result *Result) Assembly {
	if result == nil {
		return Assembly{SlotRequests: []SlotRequest{}, Unscheduled: []UnscheduledCourse{}}
	}
	out := Assembly{
		SlotRequests: make([]SlotRequest, 0, len(result.Placements)),
		Unscheduled:  make([]UnscheduledCourse, 0, len(result.Unscheduled)),
	}
	for _, p := range result.Placements {
		out.SlotRequests = append(out.SlotRequests, SlotRequest{
			CourseID: p.Course.ID,
			Date:     p.Date,
			TimeSlot: p.TimeSlot,
		})
	}
	for _, c := range result.Unscheduled {
		out.Unscheduled = append(out.Unscheduled, UnscheduledCourse{
			ID:           c.ID,
			Code:         c.Code,
			Title:        c.Title,
			DepartmentID: c.DepartmentID,
			Level:        c.Level,
		})
	}
	return out
}
