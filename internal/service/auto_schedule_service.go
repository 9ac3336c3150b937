package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/internal/scheduler"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type placementEngine interface {
	Run(in scheduler.Input) (*scheduler.Result, error)
}

const (
	scheduledMessage   = "Successfully scheduled %d exams."
	noScheduledMessage = "No exams could be scheduled (all date/timeSlot combinations are full)."
)

// AutoScheduleConfig governs the auto-scheduler.
type AutoScheduleConfig struct {
	Enabled bool
	Timeout time.Duration
	LockTTL time.Duration
	Seed    int64
}

// AutoScheduleService fills a timetable with exams for the requested department-levels.
type AutoScheduleService struct {
	timetables timetableFinder
	courses    courseReader
	slots      examSlotRepository
	locker     timetableLocker
	tx         txProvider
	engine     placementEngine
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AutoScheduleConfig
}

// NewAutoScheduleService wires auto-scheduler dependencies. A nil engine builds one from cfg.Seed.
func NewAutoScheduleService(
	timetables timetableFinder,
	courses courseReader,
	slots examSlotRepository,
	locker timetableLocker,
	tx txProvider,
	engine placementEngine,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AutoScheduleConfig,
) *AutoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if engine == nil {
		engine = scheduler.NewEngine(scheduler.Options{Seed: cfg.Seed, Logger: logger.Named("scheduler")})
	}
	return &AutoScheduleService{
		timetables: timetables,
		courses:    courses,
		slots:      slots,
		locker:     locker,
		tx:         tx,
		engine:     engine,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run schedules every course of the requested department-levels that fits into the timetable.
// Placements are written in one transaction; courses that do not fit are reported, not failed.
func (s *AutoScheduleService) Run(ctx context.Context, timetableID string, req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrSchedulerDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "departmentIds and levels (100, 200, 300, 400) are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	var resp *dto.AutoScheduleResponse
	err := withTimetableLock(ctx, s.locker, timetableID, s.cfg.LockTTL, s.logger, func() error {
		var runErr error
		resp, runErr = s.run(ctx, timetableID, req)
		return runErr
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, appErrors.ErrSchedulerBusy) {
			outcome = "busy"
		}
		s.metrics.ObserveSchedulerRun(outcome, 0, 0, 0, time.Since(started))
		return nil, err
	}

	outcome := "success"
	if len(resp.ExamSlots) == 0 {
		outcome = "empty"
	}
	s.metrics.ObserveSchedulerRun(outcome, resp.Stats.PreferredPlaced, resp.Stats.FallbackPlaced, resp.Stats.Unscheduled, time.Since(started))
	s.logger.Info("auto-schedule finished",
		zap.String("timetable_id", timetableID),
		zap.Int("placed", resp.Stats.Placed),
		zap.Int("unscheduled", resp.Stats.Unscheduled),
		zap.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}

func (s *AutoScheduleService) run(ctx context.Context, timetableID string, req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	timetable, err := findTimetable(ctx, s.timetables, timetableID)
	if err != nil {
		return nil, err
	}
	if timetable.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrPublished, "cannot auto-schedule a published timetable")
	}

	courses, err := s.courses.ListByDepartmentsAndLevels(ctx, dedupeStrings(req.DepartmentIDs), dedupeInts(req.Levels))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no courses found for the selected departments and levels")
	}

	days := scheduler.SchedulingDays(timetable.StartDate, timetable.EndDate)
	if len(days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable has no weekdays to schedule on")
	}

	existing, err := s.slots.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slots")
	}

	placed := make(map[string]struct{}, len(existing))
	for _, slot := range existing {
		placed[slot.CourseID] = struct{}{}
	}
	candidates := make([]scheduler.Course, 0, len(courses))
	for _, c := range courses {
		if _, ok := placed[c.ID]; ok {
			continue
		}
		candidates = append(candidates, scheduler.Course{ID: c.ID, Code: c.Code, Title: c.Title, DepartmentID: c.DepartmentID, Level: c.Level})
	}
	if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "every selected course already has an exam slot in this timetable")
	}
	result, err := s.engine.Run(scheduler.Input{Days: days, Courses: candidates, Existing: existingSlots(existing)})
	if err != nil {
		return nil, mapEngineError(err)
	}
	assembly := scheduler.Assemble(result)

	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "auto-schedule timed out")
	}

	ids, err := s.persist(ctx, timetableID, assembly.SlotRequests)
	if err != nil {
		return nil, err
	}

	created := []models.ExamSlotDetail{}
	if len(ids) > 0 {
		_ = s.cache.InvalidateTimetable(ctx, timetableID)
		details, listErr := s.slots.ListByIDs(ctx, ids)
		if listErr != nil {
			return nil, appErrors.Wrap(listErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created exam slots")
		}
		created = hydrateSlots(details)
	}

	message := noScheduledMessage
	if len(ids) > 0 {
		message = fmt.Sprintf(scheduledMessage, len(ids))
	}
	return &dto.AutoScheduleResponse{
		Message:     message,
		ExamSlots:   created,
		Unscheduled: assembly.Unscheduled,
		Stats: dto.AutoScheduleStats{
			Requested:        len(candidates),
			AlreadyScheduled: len(courses) - len(candidates),
			Placed:           len(ids),
			Unscheduled:      len(assembly.Unscheduled),
			PreferredPlaced:  result.Stats.PreferredPlaced,
			FallbackPlaced:   result.Stats.FallbackPlaced,
		},
	}, nil
}

// persist writes all placements atomically and returns the new slot ids.
func (s *AutoScheduleService) persist(ctx context.Context, timetableID string, requests []scheduler.SlotRequest) ([]string, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	records := make([]models.ExamSlot, 0, len(requests))
	for _, r := range requests {
		records = append(records, models.ExamSlot{
			TimetableID: timetableID,
			CourseID:    r.CourseID,
			Date:        r.Date,
			TimeSlot:    string(r.TimeSlot),
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insertStart := time.Now()
	err = s.slots.BulkCreateWithTx(ctx, tx, records)
	s.metrics.ObserveDBQuery("exam_slots_bulk_insert", time.Since(insertStart))
	if err != nil {
		s.logger.Error("auto-schedule persistence failed", zap.String("timetable_id", timetableID), zap.Error(err))
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist exam slots")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit exam slots")
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrEmptyHorizon),
		errors.Is(err, scheduler.ErrNoCourses),
		errors.Is(err, scheduler.ErrInvalidLevel),
		errors.Is(err, scheduler.ErrDuplicateCourse):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "auto-schedule failed")
	}
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupeInts(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
