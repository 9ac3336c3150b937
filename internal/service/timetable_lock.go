package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

type timetableLocker interface {
	Acquire(ctx context.Context, timetableID, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, timetableID, token string) error
}

// withTimetableLock runs fn while holding the scheduling lock of timetableID.
// A busy lock fails fast with ErrSchedulerBusy.
func withTimetableLock(ctx context.Context, locker timetableLocker, timetableID string, ttl time.Duration, logger *zap.Logger, fn func() error) error {
	if locker == nil {
		return fn()
	}
	token := uuid.NewString()
	ok, err := locker.Acquire(ctx, timetableID, token, ttl)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire timetable lock")
	}
	if !ok {
		return appErrors.ErrSchedulerBusy
	}
	defer func() {
		// release on a fresh context so a cancelled request still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := locker.Release(releaseCtx, timetableID, token); err != nil {
			logger.Warn("failed to release timetable lock", zap.String("timetable_id", timetableID), zap.Error(err))
		}
	}()
	return fn()
}
