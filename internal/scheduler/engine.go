package scheduler

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	// PreferredDailyCap is the per-day exam limit for a department-level in the first pass.
	PreferredDailyCap = 2
	// FallbackDailyCap is the hard per-day limit used for courses the first pass could not place.
	FallbackDailyCap = 3
	// restTrigger is the same-day count that forces the next scheduling day to be exam-free.
	restTrigger = 2
)

// Options configures an Engine.
type Options struct {
	// Seed fixes the random source. Zero seeds from the clock on every run.
	Seed   int64
	Logger *zap.Logger
}

// Engine places candidate courses into (day, slot) pairs. An Engine holds no per-run state,
// so one instance may serve concurrent runs for different timetables.
type Engine struct {
	seed   int64
	logger *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{seed: opts.Seed, logger: opts.Logger}
}

// Stats summarises how a run placed its courses.
type Stats struct {
	Groups              int `json:"groups"`
	PreferredPlaced     int `json:"preferredPlaced"`
	FallbackPlaced      int `json:"fallbackPlaced"`
	RestDaysOutstanding int `json:"restDaysOutstanding"`
}

// Run validates the input and schedules every course it can. Courses that cannot be placed are
// reported in Result.Unscheduled; that is not an error.
func (e *Engine) Run(in Input) (*Result, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	days := normalizeDays(in.Days)
	occupancy := BuildOccupancy(in.Existing)
	st := &runState{
		days:      days,
		occupancy: occupancy,
		rest:      SeedRestDays(days, occupancy),
		rng:       rand.New(rand.NewSource(e.nextSeed())),
	}

	groups := groupCourses(in.Courses)
	result := &Result{
		Placements:  make([]Placement, 0, len(in.Courses)),
		Unscheduled: make([]Course, 0),
	}
	for _, group := range groups {
		placed, unscheduled := st.scheduleGroup(group.key, group.courses)
		result.Placements = append(result.Placements, placed...)
		result.Unscheduled = append(result.Unscheduled, unscheduled...)

		e.logger.Debug("department-level scheduled",
			zap.String("dept_level", group.key.String()),
			zap.Int("courses", len(group.courses)),
			zap.Int("placed", len(placed)),
			zap.Int("unscheduled", len(unscheduled)),
		)
		for _, course := range unscheduled {
			e.logger.Warn("could not schedule course even as third exam",
				zap.String("course_id", course.ID),
				zap.String("course_code", course.Code),
				zap.String("dept_level", group.key.String()),
			)
		}
	}

	result.Stats = Stats{
		Groups:              len(groups),
		PreferredPlaced:     st.preferred,
		FallbackPlaced:      st.fallback,
		RestDaysOutstanding: st.rest.Len(),
	}
	return result, nil
}

func (e *Engine) nextSeed() int64 {
	if e.seed != 0 {
		return e.seed
	}
	return time.Now().UnixNano()
}

type courseGroup struct {
	key     DeptLevel
	courses []Course
}

type runState struct {
	days      []time.Time
	occupancy *Occupancy
	rest      *RestDays
	rng       *rand.Rand

	preferred int
	fallback  int
}

func (s *runState) scheduleGroup(key DeptLevel, courses []Course) ([]Placement, []Course) {
	shuffled := make([]Course, len(courses))
	copy(shuffled, courses)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	placements := make([]Placement, 0, len(shuffled))
	var deferred []Course

	// First pass: round-robin over the horizon, resuming where the previous course stopped.
	n := len(s.days)
	pointer := 0
	for _, course := range shuffled {
		placed := false
		for tries := 0; tries < n; tries, pointer = tries+1, pointer+1 {
			idx := pointer % n
			if slot, ok := s.tryDay(key, idx, PreferredDailyCap); ok {
				placements = append(placements, Placement{Course: course, Date: s.days[idx], TimeSlot: slot})
				s.preferred++
				placed = true
				break
			}
		}
		if !placed {
			deferred = append(deferred, course)
		}
	}

	// Second pass: chronological scan allowing a third exam per day.
	var unscheduled []Course
	for _, course := range deferred {
		placed := false
		for idx := range s.days {
			if slot, ok := s.tryDay(key, idx, FallbackDailyCap); ok {
				placements = append(placements, Placement{Course: course, Date: s.days[idx], TimeSlot: slot})
				s.fallback++
				placed = true
				break
			}
		}
		if !placed {
			unscheduled = append(unscheduled, course)
		}
	}
	return placements, unscheduled
}

// tryDay commits one exam for key on days[idx] if every constraint allows it.
func (s *runState) tryDay(key DeptLevel, idx, limit int) (TimeSlot, bool) {
	day := s.days[idx]
	if s.rest.IsBlocked(key, day) {
		s.rest.UnblockOnce(key, day)
		return "", false
	}

	count := s.occupancy.CountFor(day, key)
	if count >= limit {
		return "", false
	}
	if !s.restRespected(key, idx, count) {
		return "", false
	}

	free := s.occupancy.FreeSlotsFor(day, key)
	if len(free) == 0 {
		return "", false
	}
	slot := free[s.rng.Intn(len(free))]

	s.occupancy.Record(day, key, slot)
	if count+1 == restTrigger && idx+1 < len(s.days) {
		s.rest.Block(key, s.days[idx+1])
	}
	return slot, true
}

// restRespected keeps the rest-day rule true once markers have been consumed: the previous day
// must not be a heavy day, and a day may only become heavy while the next day is still empty.
func (s *runState) restRespected(key DeptLevel, idx, count int) bool {
	if idx > 0 && s.occupancy.CountFor(s.days[idx-1], key) >= restTrigger {
		return false
	}
	if count+1 >= restTrigger && idx+1 < len(s.days) && s.occupancy.CountFor(s.days[idx+1], key) > 0 {
		return false
	}
	return true
}

func validateInput(in Input) error {
	if len(in.Days) == 0 {
		return ErrEmptyHorizon
	}
	if len(in.Courses) == 0 {
		return ErrNoCourses
	}
	seen := make(map[string]struct{}, len(in.Courses))
	for _, course := range in.Courses {
		if !ValidLevel(course.Level) {
			return fmt.Errorf("%w: course %s has level %d", ErrInvalidLevel, course.Code, course.Level)
		}
		if _, dup := seen[course.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCourse, course.ID)
		}
		seen[course.ID] = struct{}{}
	}
	return nil
}

func normalizeDays(days []time.Time) []time.Time {
	unique := make(map[string]time.Time, len(days))
	for _, day := range days {
		d := Normalize(day)
		unique[dayKey(d)] = d
	}
	result := make([]time.Time, 0, len(unique))
	for _, d := range unique {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}

func groupCourses(courses []Course) []courseGroup {
	index := make(map[DeptLevel]int)
	var groups []courseGroup
	for _, course := range courses {
		key := course.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, courseGroup{key: key})
		}
		groups[i].courses = append(groups[i].courses, course)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].key.DepartmentID == groups[j].key.DepartmentID {
			return groups[i].key.Level < groups[j].key.Level
		}
		return groups[i].key.DepartmentID < groups[j].key.DepartmentID
	})
	return groups
}
