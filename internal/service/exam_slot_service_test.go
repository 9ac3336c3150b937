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

type examSlotFixture struct {
	service *ExamSlotService
	slots   *examSlotRepoStub
	locker  *lockerStub
}

func newExamSlotFixture(items ...models.Timetable) *examSlotFixture {
	timetables := newTimetableRepoStub(items...)
	courses := &courseRepoStub{courses: append(makeCourses("csc", 100, 5), makeCourses("mth", 100, 2)...)}
	slots := &examSlotRepoStub{courses: courses}
	locker := &lockerStub{}
	svc := NewExamSlotService(timetables, courses, slots, locker, time.Minute, nil, nil, zap.NewNop())
	return &examSlotFixture{service: svc, slots: slots, locker: locker}
}

func addReq(day, slot, course string) dto.AddExamSlotRequest {
	return dto.AddExamSlotRequest{Date: day, TimeSlot: slot, CourseID: course}
}

func TestExamSlotServiceAdd(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())

	detail, err := fx.service.Add(context.Background(), "tt-1", addReq("2025-05-12", string(scheduler.Slot1To3), "csc-100-c1"))
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, date(2025, 5, 12), detail.Date)
	assert.Equal(t, "1:00 PM - 3:00 PM", detail.TimeSlotLabel)
	assert.Equal(t, "csc", detail.DepartmentID)
	assert.Equal(t, models.DepartmentLevelColor("csc", 100), detail.Color)
	assert.Len(t, fx.slots.slots, 1)
	assert.Equal(t, 1, fx.locker.acquired)
	assert.Equal(t, 1, fx.locker.released)
}

func TestExamSlotServiceAddRejectsTakenSlot(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	ctx := context.Background()
	_, err := fx.service.Add(ctx, "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), "csc-100-c1"))
	require.NoError(t, err)

	_, err = fx.service.Add(ctx, "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), "csc-100-c2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(err))

	// other department-levels may share the slot
	_, err = fx.service.Add(ctx, "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), "mth-100-c1"))
	require.NoError(t, err)
}

func TestExamSlotServiceAddEnforcesDailyCap(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	ctx := context.Background()
	for i, slot := range []scheduler.TimeSlot{scheduler.Slot8To10, scheduler.Slot10To12, scheduler.Slot1To3} {
		_, err := fx.service.Add(ctx, "tt-1", addReq("2025-05-13", string(slot), makeCourses("csc", 100, 5)[i].ID))
		require.NoError(t, err)
	}

	_, err := fx.service.Add(ctx, "tt-1", addReq("2025-05-13", string(scheduler.Slot3To5), "csc-100-c4"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
	assert.Contains(t, appErrors.FromError(err).Message, "maximum number of exams (3)")
}

func TestExamSlotServiceAddValidation(t *testing.T) {
	published := twoWeekTimetable()
	published.ID = "tt-pub"
	published.IsPublished = true
	fx := newExamSlotFixture(twoWeekTimetable(), published)
	ctx := context.Background()

	cases := []struct {
		name      string
		timetable string
		req       dto.AddExamSlotRequest
		code      string
	}{
		{"missing course", "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), ""), appErrors.ErrValidation.Code},
		{"unknown slot", "tt-1", addReq("2025-05-12", "SLOT_6_8", "csc-100-c1"), appErrors.ErrValidation.Code},
		{"out of range", "tt-1", addReq("2025-06-02", string(scheduler.Slot8To10), "csc-100-c1"), appErrors.ErrValidation.Code},
		{"weekend", "tt-1", addReq("2025-05-17", string(scheduler.Slot8To10), "csc-100-c1"), appErrors.ErrValidation.Code},
		{"unknown course", "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), "bio-100-c1"), appErrors.ErrNotFound.Code},
		{"unknown timetable", "missing", addReq("2025-05-12", string(scheduler.Slot8To10), "csc-100-c1"), appErrors.ErrNotFound.Code},
		{"published", "tt-pub", addReq("2025-05-12", string(scheduler.Slot8To10), "csc-100-c1"), appErrors.ErrPublished.Code},
	}
	for _, tc := range cases {
		_, err := fx.service.Add(ctx, tc.timetable, tc.req)
		require.Error(t, err, tc.name)
		assert.Equal(t, tc.code, errCode(err), tc.name)
	}
	assert.Empty(t, fx.slots.slots)
}

func TestExamSlotServiceAddBusy(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	fx.locker.busy = true

	_, err := fx.service.Add(context.Background(), "tt-1", addReq("2025-05-12", string(scheduler.Slot8To10), "csc-100-c1"))
	assert.Equal(t, appErrors.ErrSchedulerBusy.Code, errCode(err))
	assert.Empty(t, fx.slots.slots)
}

func TestExamSlotServiceRemove(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	fx.slots.slots = []models.ExamSlot{{ID: "s1", TimetableID: "tt-1", CourseID: "csc-100-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)}}

	err := fx.service.Remove(context.Background(), "tt-1", "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))

	require.NoError(t, fx.service.Remove(context.Background(), "tt-1", "s1"))
	assert.Empty(t, fx.slots.slots)
	assert.Equal(t, 2, fx.locker.acquired)
	assert.Equal(t, 2, fx.locker.released)
}

func TestExamSlotServiceRemoveBusy(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	fx.slots.slots = []models.ExamSlot{{ID: "s1", TimetableID: "tt-1", CourseID: "csc-100-c1", Date: date(2025, 5, 12), TimeSlot: string(scheduler.Slot8To10)}}
	fx.locker.busy = true

	err := fx.service.Remove(context.Background(), "tt-1", "s1")
	assert.Equal(t, appErrors.ErrSchedulerBusy.Code, errCode(err))
	assert.Len(t, fx.slots.slots, 1)
}

func TestExamSlotServiceList(t *testing.T) {
	fx := newExamSlotFixture(twoWeekTimetable())
	fx.slots.slots = []models.ExamSlot{{ID: "s1", TimetableID: "tt-1", CourseID: "mth-100-c2", Date: date(2025, 5, 14), TimeSlot: string(scheduler.Slot3To5)}}

	list, err := fx.service.List(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3:00 PM - 5:00 PM", list[0].TimeSlotLabel)
	assert.Equal(t, "MTH", list[0].DepartmentName)
}
