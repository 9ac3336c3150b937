package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/internal/scheduler"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindLatestPublished(ctx context.Context) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	Update(ctx context.Context, timetable *models.Timetable) error
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) error
}

type examSlotReader interface {
	ListByTimetable(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error)
	ListByDepartmentLevel(ctx context.Context, timetableID, departmentID string, level int) ([]models.ExamSlotDetail, error)
	CountByTimetable(ctx context.Context, timetableID string) (int, error)
}

type departmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// TimetableService manages the lifecycle of exam timetables.
type TimetableService struct {
	timetables  timetableRepository
	slots       examSlotReader
	departments departmentReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(timetables timetableRepository, slots examSlotReader, departments departmentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		timetables:  timetables,
		slots:       slots,
		departments: departments,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Create opens a new unpublished timetable.
func (s *TimetableService) Create(ctx context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, start date and end date are required")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}

	timetable := &models.Timetable{Title: strings.TrimSpace(req.Title), StartDate: start, EndDate: end}
	if err := s.timetables.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	s.logger.Info("timetable created", zap.String("timetable_id", timetable.ID))
	return timetable, nil
}

// List returns timetables newest first.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, *models.Pagination, error) {
	filter := models.TimetableFilter{Published: query.Published, Page: query.Page, PageSize: query.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	list, total, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a timetable with its exam slots. The bool reports a cache hit.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.TimetableDetail, bool, error) {
	var cached models.TimetableDetail
	if hit, _ := s.cache.Get(ctx, TimetableCacheKey(id), &cached); hit {
		return &cached, true, nil
	}

	timetable, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	slots, err := s.slots.ListByTimetable(ctx, id)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slots")
	}
	detail := &models.TimetableDetail{Timetable: *timetable, ExamSlots: hydrateSlots(slots)}
	_ = s.cache.Set(ctx, TimetableCacheKey(id), detail, 0)
	return detail, false, nil
}

// Update changes title or date range of an unpublished timetable.
func (s *TimetableService) Update(ctx context.Context, id string, req dto.UpdateTimetableRequest) (*models.Timetable, error) {
	if req.Title == nil && req.StartDate == nil && req.EndDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one field to update is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	timetable, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if timetable.IsPublished {
		s.logger.Warn("update of published timetable rejected", zap.String("timetable_id", id))
		return nil, appErrors.Clone(appErrors.ErrPublished, "cannot update a published timetable")
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		timetable.Title = strings.TrimSpace(*req.Title)
	}
	if req.StartDate != nil {
		if timetable.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if timetable.EndDate, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if !timetable.StartDate.Before(timetable.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}

	if err := s.timetables.Update(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}
	_ = s.cache.InvalidateTimetable(ctx, id)
	return timetable, nil
}

// Delete removes a timetable together with its exam slots.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.timetables.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	_ = s.cache.InvalidateTimetable(ctx, id)
	s.logger.Info("timetable deleted", zap.String("timetable_id", id))
	return nil
}

// Publish makes a non-empty timetable visible to students.
func (s *TimetableService) Publish(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.slots.CountByTimetable(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count exam slots")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot publish an empty timetable")
	}
	if timetable.IsPublished {
		return timetable, nil
	}
	if err := s.timetables.SetPublished(ctx, id, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	timetable.IsPublished = true
	_ = s.cache.InvalidateTimetable(ctx, id)
	s.logger.Info("timetable published", zap.String("timetable_id", id), zap.Int("exam_slots", count))
	return timetable, nil
}

// PublishedFor returns the latest published timetable narrowed to one department-level.
func (s *TimetableService) PublishedFor(ctx context.Context, departmentID string, level int) (*models.TimetableDetail, bool, error) {
	if !scheduler.ValidLevel(level) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "level must be 100, 200, 300, or 400")
	}
	key := PublishedCacheKey(departmentID, level)
	var cached models.TimetableDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	timetable, err := s.timetables.FindLatestPublished(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no published timetable found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}
	slots, err := s.slots.ListByDepartmentLevel(ctx, timetable.ID, departmentID, level)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slots")
	}
	detail := &models.TimetableDetail{Timetable: *timetable, ExamSlots: hydrateSlots(slots)}
	_ = s.cache.Set(ctx, key, detail, 0)
	return detail, false, nil
}

func (s *TimetableService) load(ctx context.Context, id string) (*models.Timetable, error) {
	return findTimetable(ctx, s.timetables, id)
}

type timetableFinder interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

func findTimetable(ctx context.Context, repo timetableFinder, id string) (*models.Timetable, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	timetable, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// parseDate accepts calendar dates and RFC3339 timestamps and returns UTC midnight.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return scheduler.Normalize(t), nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format")
}

// hydrateSlots fills display fields derived from stored columns.
func hydrateSlots(slots []models.ExamSlotDetail) []models.ExamSlotDetail {
	if slots == nil {
		return []models.ExamSlotDetail{}
	}
	for i := range slots {
		slots[i].TimeSlotLabel = scheduler.TimeSlot(slots[i].TimeSlot).Label()
		slots[i].Color = models.DepartmentLevelColor(slots[i].DepartmentID, slots[i].Level)
	}
	return slots
}
