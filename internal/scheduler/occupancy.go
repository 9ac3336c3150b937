package scheduler

import "time"

type occupancyKey struct {
	day string
	key DeptLevel
}

// Occupancy indexes how many exams each department-level holds per day and which slots they use.
// It is owned by a single run and is not safe for concurrent use.
type Occupancy struct {
	counts map[occupancyKey]int
	used   map[occupancyKey]map[TimeSlot]struct{}
}

// BuildOccupancy replays already placed exam slots into a fresh tracker.
func BuildOccupancy(existing []ExistingSlot) *Occupancy {
	o := &Occupancy{
		counts: make(map[occupancyKey]int),
		used:   make(map[occupancyKey]map[TimeSlot]struct{}),
	}
	for _, slot := range existing {
		o.Record(slot.Date, DeptLevel{DepartmentID: slot.DepartmentID, Level: slot.Level}, slot.TimeSlot)
	}
	return o
}

// CountFor returns the number of exams key has on day.
func (o *Occupancy) CountFor(day time.Time, key DeptLevel) int {
	return o.counts[o.keyFor(day, key)]
}

// UsedSlotsFor returns the slots key already occupies on day, in chronological slot order.
func (o *Occupancy) UsedSlotsFor(day time.Time, key DeptLevel) []TimeSlot {
	used := o.used[o.keyFor(day, key)]
	if len(used) == 0 {
		return nil
	}
	result := make([]TimeSlot, 0, len(used))
	for _, slot := range TimeSlots {
		if _, ok := used[slot]; ok {
			result = append(result, slot)
		}
	}
	return result
}

// IsSlotUsed reports whether key already sits an exam in slot on day.
func (o *Occupancy) IsSlotUsed(day time.Time, key DeptLevel, slot TimeSlot) bool {
	_, ok := o.used[o.keyFor(day, key)][slot]
	return ok
}

// FreeSlotsFor returns the slots key can still use on day.
func (o *Occupancy) FreeSlotsFor(day time.Time, key DeptLevel) []TimeSlot {
	used := o.used[o.keyFor(day, key)]
	free := make([]TimeSlot, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		if _, ok := used[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}

// Record counts one more exam for key on day in slot.
// Recording the same (day, key, slot) twice double counts; callers must not do that.
func (o *Occupancy) Record(day time.Time, key DeptLevel, slot TimeSlot) {
	k := o.keyFor(day, key)
	o.counts[k]++
	if o.used[k] == nil {
		o.used[k] = make(map[TimeSlot]struct{})
	}
	o.used[k][slot] = struct{}{}
}

func (o *Occupancy) keyFor(day time.Time, key DeptLevel) occupancyKey {
	return occupancyKey{day: dayKey(Normalize(day)), key: key}
}
