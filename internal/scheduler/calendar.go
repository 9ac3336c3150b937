package scheduler

import "time"

// SchedulingDays returns every Monday-Friday date between start and end inclusive,
// normalised to midnight UTC and in increasing order.
func SchedulingDays(start, end time.Time) []time.Time {
	from := Normalize(start)
	to := Normalize(end)
	var days []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if IsWeekday(day) {
			days = append(days, day)
		}
	}
	return days
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}
