package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/internal/scheduler"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

type examSlotRepository interface {
	ListByTimetable(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.ExamSlotDetail, error)
	FindByID(ctx context.Context, timetableID, id string) (*models.ExamSlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.ExamSlot) error
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByDepartmentsAndLevels(ctx context.Context, departmentIDs []string, levels []int) ([]models.Course, error)
}

// ExamSlotService handles manual placement and removal of exams.
type ExamSlotService struct {
	timetables timetableFinder
	courses    courseReader
	slots      examSlotRepository
	locker     timetableLocker
	lockTTL    time.Duration
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewExamSlotService wires exam slot dependencies.
func NewExamSlotService(timetables timetableFinder, courses courseReader, slots examSlotRepository, locker timetableLocker, lockTTL time.Duration, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExamSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &ExamSlotService{
		timetables: timetables,
		courses:    courses,
		slots:      slots,
		locker:     locker,
		lockTTL:    lockTTL,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// List returns the hydrated exam slots of a timetable.
func (s *ExamSlotService) List(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error) {
	if _, err := findTimetable(ctx, s.timetables, timetableID); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam slots")
	}
	return hydrateSlots(slots), nil
}

// Add places one exam by hand under the same rules the auto-scheduler honours for capacity and slot use.
func (s *ExamSlotService) Add(ctx context.Context, timetableID string, req dto.AddExamSlotRequest) (*models.ExamSlotDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date, time slot, and course id are required")
	}
	timetable, err := findTimetable(ctx, s.timetables, timetableID)
	if err != nil {
		return nil, err
	}
	if timetable.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrPublished, "cannot update a published timetable")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if date.Before(scheduler.Normalize(timetable.StartDate)) || date.After(scheduler.Normalize(timetable.EndDate)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be within timetable start and end dates")
	}
	if !scheduler.IsWeekday(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exams can only be scheduled on weekdays")
	}
	slot := scheduler.TimeSlot(req.TimeSlot)
	if !slot.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid time slot")
	}

	var created models.ExamSlot
	err = withTimetableLock(ctx, s.locker, timetableID, s.lockTTL, s.logger, func() error {
		existing, listErr := s.slots.ListByTimetable(ctx, timetableID)
		if listErr != nil {
			return appErrors.Wrap(listErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slots")
		}
		occupancy := scheduler.BuildOccupancy(existingSlots(existing))
		key := scheduler.DeptLevel{DepartmentID: course.DepartmentID, Level: course.Level}
		if occupancy.IsSlotUsed(date, key, slot) {
			return appErrors.Clone(appErrors.ErrConflict, "this time slot is already taken")
		}
		if occupancy.CountFor(date, key) >= scheduler.FallbackDailyCap {
			return appErrors.Clone(appErrors.ErrValidation, "maximum number of exams (3) for this department-level on this date has been reached")
		}
		created = models.ExamSlot{TimetableID: timetableID, CourseID: course.ID, Date: date, TimeSlot: string(slot)}
		if createErr := s.slots.Create(ctx, nil, &created); createErr != nil {
			return appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.InvalidateTimetable(ctx, timetableID)
	s.logger.Info("exam slot added", zap.String("timetable_id", timetableID), zap.String("exam_slot_id", created.ID), zap.String("course_id", course.ID))

	details, err := s.slots.ListByIDs(ctx, []string{created.ID})
	if err != nil || len(details) == 0 {
		// the row is committed; fall back to what we already know
		detail := models.ExamSlotDetail{
			ID:             created.ID,
			TimetableID:    created.TimetableID,
			CourseID:       course.ID,
			Date:           created.Date,
			TimeSlot:       created.TimeSlot,
			CourseCode:     course.Code,
			CourseTitle:    course.Title,
			Level:          course.Level,
			DepartmentID:   course.DepartmentID,
			DepartmentName: course.DepartmentName,
			CreatedAt:      created.CreatedAt,
		}
		details = []models.ExamSlotDetail{detail}
	}
	hydrated := hydrateSlots(details)
	return &hydrated[0], nil
}

// Remove deletes an exam slot from an unpublished timetable.
func (s *ExamSlotService) Remove(ctx context.Context, timetableID, slotID string) error {
	timetable, err := findTimetable(ctx, s.timetables, timetableID)
	if err != nil {
		return err
	}
	if timetable.IsPublished {
		return appErrors.Clone(appErrors.ErrPublished, "cannot update a published timetable")
	}
	err = withTimetableLock(ctx, s.locker, timetableID, s.lockTTL, s.logger, func() error {
		if _, err := s.slots.FindByID(ctx, timetableID, slotID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "exam slot not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot")
		}
		if err := s.slots.Delete(ctx, slotID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam slot")
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.cache.InvalidateTimetable(ctx, timetableID)
	s.logger.Info("exam slot removed", zap.String("timetable_id", timetableID), zap.String("exam_slot_id", slotID))
	return nil
}

func existingSlots(details []models.ExamSlotDetail) []scheduler.ExistingSlot {
	out := make([]scheduler.ExistingSlot, 0, len(details))
	for _, d := range details {
		out = append(out, scheduler.ExistingSlot{
			Date:         d.Date,
			TimeSlot:     scheduler.TimeSlot(d.TimeSlot),
			DepartmentID: d.DepartmentID,
			Level:        d.Level,
		})
	}
	return out
}
