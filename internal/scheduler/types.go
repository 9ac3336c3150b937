package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// TimeSlot identifies one of the fixed exam periods inside a day.
type TimeSlot string

const (
	Slot8To10  TimeSlot = "SLOT_8_10"
	Slot10To12 TimeSlot = "SLOT_10_12"
	Slot1To3   TimeSlot = "SLOT_1_3"
	Slot3To5   TimeSlot = "SLOT_3_5"
)

// TimeSlots lists every slot in chronological order.
var TimeSlots = []TimeSlot{Slot8To10, Slot10To12, Slot1To3, Slot3To5}

var timeSlotLabels = map[TimeSlot]string{
	Slot8To10:  "8:00 AM - 10:00 AM",
	Slot10To12: "10:00 AM - 12:00 PM",
	Slot1To3:   "1:00 PM - 3:00 PM",
	Slot3To5:   "3:00 PM - 5:00 PM",
}

// Valid reports whether the slot is one of TimeSlots.
func (s TimeSlot) Valid() bool {
	_, ok := timeSlotLabels[s]
	return ok
}

// Label returns the display range for the slot.
func (s TimeSlot) Label() string {
	if label, ok := timeSlotLabels[s]; ok {
		return label
	}
	return string(s)
}

// ValidLevels enumerates the academic levels accepted by the engine.
var ValidLevels = []int{100, 200, 300, 400}

// ValidLevel reports whether level is one of ValidLevels.
func ValidLevel(level int) bool {
	for _, l := range ValidLevels {
		if l == level {
			return true
		}
	}
	return false
}

// DeptLevel is the cohort unit that must not have conflicting exams.
type DeptLevel struct {
	DepartmentID string
	Level        int
}

func (k DeptLevel) String() string {
	return fmt.Sprintf("%s-%d", k.DepartmentID, k.Level)
}

// Course is a candidate for placement.
type Course struct {
	ID           string
	Code         string
	Title        string
	DepartmentID string
	Level        int
}

// Key returns the department-level the course belongs to.
func (c Course) Key() DeptLevel {
	return DeptLevel{DepartmentID: c.DepartmentID, Level: c.Level}
}

// ExistingSlot is an exam already placed on the timetable.
type ExistingSlot struct {
	Date         time.Time
	TimeSlot     TimeSlot
	DepartmentID string
	Level        int
}

// Placement assigns a course to a day and slot.
type Placement struct {
	Course   Course
	Date     time.Time
	TimeSlot TimeSlot
}

// Input carries everything a single engine run consumes.
type Input struct {
	Days     []time.Time
	Courses  []Course
	Existing []ExistingSlot
}

// Result holds the outcome of a run. Every input course is in exactly one of the two lists.
type Result struct {
	Placements  []Placement
	Unscheduled []Course
	Stats       Stats
}

var (
	ErrEmptyHorizon    = errors.New("no weekdays available in the scheduling horizon")
	ErrNoCourses       = errors.New("no candidate courses supplied")
	ErrInvalidLevel    = errors.New("levels must be 100, 200, 300, or 400")
	ErrDuplicateCourse = errors.New("duplicate candidate course")
)

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// Normalize truncates t to midnight UTC of its calendar date.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
