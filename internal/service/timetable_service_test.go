package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	"github.com/emrs-app/exam-timetable-api/internal/scheduler"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

type timetableFixture struct {
	service    *TimetableService
	timetables *timetableRepoStub
	slots      *examSlotRepoStub
	cacheRepo  *cacheRepoStub
}

func newTimetableFixture(items ...models.Timetable) *timetableFixture {
	timetables := newTimetableRepoStub(items...)
	courses := &courseRepoStub{courses: append(makeCourses("csc", 100, 3), makeCourses("mth", 200, 2)...)}
	slots := &examSlotRepoStub{courses: courses}
	departments := &departmentRepoStub{departments: map[string]models.Department{
		"csc": {ID: "csc", Name: "Computer Science", Code: "CSC"},
		"mth": {ID: "mth", Name: "Mathematics", Code: "MTH"},
	}}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewTimetableService(timetables, slots, departments, cache, nil, zap.NewNop())
	return &timetableFixture{service: svc, timetables: timetables, slots: slots, cacheRepo: cacheRepo}
}

func strPtr(v string) *string { return &v }

func TestTimetableServiceCreate(t *testing.T) {
	fx := newTimetableFixture()

	created, err := fx.service.Create(context.Background(), dto.CreateTimetableRequest{
		Title:     "  Second Semester  ",
		StartDate: "2025-05-12",
		EndDate:   "2025-05-23T00:00:00Z",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Second Semester", created.Title)
	assert.Equal(t, date(2025, 5, 12), created.StartDate)
	assert.Equal(t, date(2025, 5, 23), created.EndDate)
	assert.False(t, created.IsPublished)
}

func TestTimetableServiceCreateRejectsBadInput(t *testing.T) {
	fx := newTimetableFixture()

	cases := map[string]dto.CreateTimetableRequest{
		"missing title": {StartDate: "2025-05-12", EndDate: "2025-05-23"},
		"bad date":      {Title: "Exams", StartDate: "12/05/2025", EndDate: "2025-05-23"},
		"reversed":      {Title: "Exams", StartDate: "2025-05-23", EndDate: "2025-05-12"},
		"same day":      {Title: "Exams", StartDate: "2025-05-12", EndDate: "2025-05-12"},
	}
	for name, req := range cases {
		_, err := fx.service.Create(context.Background(), req)
		require.Error(t, err, name)
		assert.Equal(t, appErrors.ErrValidation.Code, errCode(err), name)
	}
}

func TestTimetableServiceListDefaultsPaging(t *testing.T) {
	published := true
	fx := newTimetableFixture(
		models.Timetable{ID: "tt-1", Title: "A", IsPublished: true},
		models.Timetable{ID: "tt-2", Title: "B"},
	)

	list, pagination, err := fx.service.List(context.Background(), dto.TimetableQuery{Published: &published, PageSize: 500})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tt-1", list[0].ID)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestTimetableServiceGetUsesCache(t *testing.T) {
	fx := newTimetableFixture(twoWeekTimetable())
	fx.slots.slots = []models.ExamSlot{{ID: "s1", TimetableID: "tt-1", CourseID: "csc-100-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)}}

	detail, hit, err := fx.service.Get(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, detail.ExamSlots, 1)
	assert.Equal(t, "8:00 AM - 10:00 AM", detail.ExamSlots[0].TimeSlotLabel)
	assert.Equal(t, models.DepartmentLevelColor("csc", 100), detail.ExamSlots[0].Color)

	_, hit, err = fx.service.Get(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestTimetableServiceGetNotFound(t *testing.T) {
	fx := newTimetableFixture()

	_, _, err := fx.service.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestTimetableServiceUpdate(t *testing.T) {
	fx := newTimetableFixture(twoWeekTimetable())
	fx.cacheRepo.entries[TimetableCacheKey("tt-1")] = &models.TimetableDetail{}

	updated, err := fx.service.Update(context.Background(), "tt-1", dto.UpdateTimetableRequest{Title: strPtr("Renamed"), EndDate: strPtr("2025-05-30")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, date(2025, 5, 30), updated.EndDate)
	assert.NotContains(t, fx.cacheRepo.entries, TimetableCacheKey("tt-1"))
}

func TestTimetableServiceUpdateRules(t *testing.T) {
	published := twoWeekTimetable()
	published.ID = "tt-pub"
	published.IsPublished = true
	fx := newTimetableFixture(twoWeekTimetable(), published)

	_, err := fx.service.Update(context.Background(), "tt-1", dto.UpdateTimetableRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = fx.service.Update(context.Background(), "tt-1", dto.UpdateTimetableRequest{StartDate: strPtr("2025-06-01")})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, err = fx.service.Update(context.Background(), "tt-pub", dto.UpdateTimetableRequest{Title: strPtr("Nope")})
	assert.Equal(t, appErrors.ErrPublished.Code, errCode(err))
}

func TestTimetableServicePublish(t *testing.T) {
	fx := newTimetableFixture(twoWeekTimetable())

	_, err := fx.service.Publish(context.Background(), "tt-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err), "empty timetable cannot be published")

	fx.slots.slots = []models.ExamSlot{{ID: "s1", TimetableID: "tt-1", CourseID: "csc-100-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)}}
	fx.cacheRepo.entries[PublishedCacheKey("csc", 100)] = &models.TimetableDetail{}

	published, err := fx.service.Publish(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.True(t, fx.timetables.items["tt-1"].IsPublished)
	assert.Empty(t, fx.cacheRepo.entries)

	again, err := fx.service.Publish(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.True(t, again.IsPublished)
}

func TestTimetableServiceDelete(t *testing.T) {
	fx := newTimetableFixture(twoWeekTimetable())

	require.NoError(t, fx.service.Delete(context.Background(), "tt-1"))
	assert.NotContains(t, fx.timetables.items, "tt-1")

	err := fx.service.Delete(context.Background(), "tt-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestTimetableServicePublishedFor(t *testing.T) {
	older := models.Timetable{ID: "tt-old", Title: "Old", IsPublished: true, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	latest := models.Timetable{ID: "tt-new", Title: "New", IsPublished: true, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	fx := newTimetableFixture(older, latest)
	fx.slots.slots = []models.ExamSlot{
		{ID: "s1", TimetableID: "tt-new", CourseID: "csc-100-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)},
		{ID: "s2", TimetableID: "tt-new", CourseID: "mth-200-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)},
		{ID: "s3", TimetableID: "tt-old", CourseID: "csc-100-c2", Date: date(2024, 5, 12), TimeSlot: string(scheduler.Slot8To10)},
	}

	detail, hit, err := fx.service.PublishedFor(context.Background(), "csc", 100)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "tt-new", detail.ID)
	require.Len(t, detail.ExamSlots, 1)
	assert.Equal(t, "s1", detail.ExamSlots[0].ID)

	_, hit, err = fx.service.PublishedFor(context.Background(), "csc", 100)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestTimetableServicePublishedForErrors(t *testing.T) {
	fx := newTimetableFixture(twoWeekTimetable())

	_, _, err := fx.service.PublishedFor(context.Background(), "csc", 500)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	_, _, err = fx.service.PublishedFor(context.Background(), "bio", 100)
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))

	_, _, err = fx.service.PublishedFor(context.Background(), "csc", 100)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
	assert.Equal(t, "no published timetable found", appErrors.FromError(err).Message)
}
