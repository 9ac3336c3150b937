package scheduler

import "time"

type restKey struct {
	key DeptLevel
	day string
}

// RestDays holds single-use markers for days a department-level must skip.
// A marker is removed the first time a scan passes over the day because of it.
type RestDays struct {
	blocked map[restKey]struct{}
}

// NewRestDays returns an empty marker set.
func NewRestDays() *RestDays {
	return &RestDays{blocked: make(map[restKey]struct{})}
}

// SeedRestDays blocks the following scheduling day for every department-level that already
// holds two or more exams on a day of the horizon.
func SeedRestDays(days []time.Time, occupancy *Occupancy) *RestDays {
	r := NewRestDays()
	index := make(map[string]int, len(days))
	for i, day := range days {
		index[dayKey(Normalize(day))] = i
	}
	for k, count := range occupancy.counts {
		if count < 2 {
			continue
		}
		if i, ok := index[k.day]; ok && i+1 < len(days) {
			r.Block(k.key, days[i+1])
		}
	}
	return r
}

// IsBlocked reports whether key must skip day.
func (r *RestDays) IsBlocked(key DeptLevel, day time.Time) bool {
	_, ok := r.blocked[restKey{key: key, day: dayKey(Normalize(day))}]
	return ok
}

// Block marks day as a rest day for key.
func (r *RestDays) Block(key DeptLevel, day time.Time) {
	r.blocked[restKey{key: key, day: dayKey(Normalize(day))}] = struct{}{}
}

// UnblockOnce consumes the marker for (key, day) if present.
func (r *RestDays) UnblockOnce(key DeptLevel, day time.Time) {
	delete(r.blocked, restKey{key: key, day: dayKey(Normalize(day))})
}

// Len returns the number of outstanding markers.
func (r *RestDays) Len() int {
	return len(r.blocked)
}
