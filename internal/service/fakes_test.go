package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/emrs-app/exam-timetable-api/internal/models"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return appErrors.FromError(err).Code
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type timetableRepoStub struct {
	mu     sync.Mutex
	items  map[string]*models.Timetable
	seq    int
	failOn string
}

func newTimetableRepoStub(items ...models.Timetable) *timetableRepoStub {
	repo := &timetableRepoStub{items: make(map[string]*models.Timetable)}
	for i := range items {
		item := items[i]
		repo.items[item.ID] = &item
	}
	return repo
}

func (r *timetableRepoStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Timetable
	for _, item := range r.items {
		if filter.Published != nil && item.IsPublished != *filter.Published {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *timetableRepoStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *timetableRepoStub) FindLatestPublished(ctx context.Context) (*models.Timetable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Timetable
	for _, item := range r.items {
		if item.IsPublished && (latest == nil || item.CreatedAt.After(latest.CreatedAt)) {
			latest = item
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (r *timetableRepoStub) Create(ctx context.Context, timetable *models.Timetable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "create" {
		return fmt.Errorf("insert failed")
	}
	r.seq++
	timetable.ID = fmt.Sprintf("tt-%d", r.seq)
	timetable.CreatedAt = time.Now()
	copied := *timetable
	r.items[timetable.ID] = &copied
	return nil
}

func (r *timetableRepoStub) Update(ctx context.Context, timetable *models.Timetable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *timetable
	r.items[timetable.ID] = &copied
	return nil
}

func (r *timetableRepoStub) SetPublished(ctx context.Context, id string, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.IsPublished = published
	return nil
}

func (r *timetableRepoStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type courseRepoStub struct {
	courses []models.Course
}

func (r *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range r.courses {
		if r.courses[i].ID == id {
			c := r.courses[i]
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *courseRepoStub) ListByDepartmentsAndLevels(ctx context.Context, departmentIDs []string, levels []int) ([]models.Course, error) {
	depts := make(map[string]bool)
	for _, d := range departmentIDs {
		depts[d] = true
	}
	lvls := make(map[int]bool)
	for _, l := range levels {
		lvls[l] = true
	}
	out := []models.Course{}
	for _, c := range r.courses {
		if depts[c.DepartmentID] && lvls[c.Level] {
			out = append(out, c)
		}
	}
	return out, nil
}

func makeCourses(dept string, level, n int) []models.Course {
	out := make([]models.Course, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Course{
			ID:             fmt.Sprintf("%s-%d-c%d", dept, level, i),
			Code:           fmt.Sprintf("%s%d", strings.ToUpper(dept), level+i),
			Title:          fmt.Sprintf("Course %d", i),
			Level:          level,
			DepartmentID:   dept,
			DepartmentName: strings.ToUpper(dept),
		})
	}
	return out
}

type departmentRepoStub struct {
	departments map[string]models.Department
}

func (r *departmentRepoStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	d, ok := r.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

// examSlotRepoStub keeps slots in memory and hydrates them from the course stub.
type examSlotRepoStub struct {
	mu       sync.Mutex
	courses  *courseRepoStub
	slots    []models.ExamSlot
	seq      int
	bulkErr  error
	listErr  error
	bulkSize int
}

func (r *examSlotRepoStub) detail(slot models.ExamSlot) models.ExamSlotDetail {
	d := models.ExamSlotDetail{
		ID:          slot.ID,
		TimetableID: slot.TimetableID,
		CourseID:    slot.CourseID,
		Date:        slot.Date,
		TimeSlot:    slot.TimeSlot,
		CreatedAt:   slot.CreatedAt,
	}
	if c, err := r.courses.FindByID(context.Background(), slot.CourseID); err == nil {
		d.CourseCode = c.Code
		d.CourseTitle = c.Title
		d.Level = c.Level
		d.DepartmentID = c.DepartmentID
		d.DepartmentName = c.DepartmentName
	}
	return d
}

func (r *examSlotRepoStub) ListByTimetable(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []models.ExamSlotDetail{}
	for _, s := range r.slots {
		if s.TimetableID == timetableID {
			out = append(out, r.detail(s))
		}
	}
	return out, nil
}

func (r *examSlotRepoStub) ListByDepartmentLevel(ctx context.Context, timetableID, departmentID string, level int) ([]models.ExamSlotDetail, error) {
	all, err := r.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	out := []models.ExamSlotDetail{}
	for _, d := range all {
		if d.DepartmentID == departmentID && d.Level == level {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *examSlotRepoStub) ListByIDs(ctx context.Context, ids []string) ([]models.ExamSlotDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []models.ExamSlotDetail{}
	for _, s := range r.slots {
		if want[s.ID] {
			out = append(out, r.detail(s))
		}
	}
	return out, nil
}

func (r *examSlotRepoStub) CountByTimetable(ctx context.Context, timetableID string) (int, error) {
	all, err := r.ListByTimetable(ctx, timetableID)
	return len(all), err
}

func (r *examSlotRepoStub) FindByID(ctx context.Context, timetableID, id string) (*models.ExamSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.ID == id && s.TimetableID == timetableID {
			copied := s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *examSlotRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if slot.ID == "" {
		slot.ID = fmt.Sprintf("slot-%d", r.seq)
	}
	slot.CreatedAt = time.Now()
	r.slots = append(r.slots, *slot)
	return nil
}

func (r *examSlotRepoStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.ExamSlot) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if r.bulkErr != nil {
		return r.bulkErr
	}
	r.bulkSize = len(slots)
	for i := range slots {
		if err := r.Create(ctx, tx, &slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *examSlotRepoStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.slots {
		if s.ID == id {
			r.slots = append(r.slots[:i], r.slots[i+1:]...)
			return nil
		}
	}
	return nil
}

// cacheRepoStub is an in-memory CacheRepository that stores values as-is.
type cacheRepoStub struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deleted []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string]interface{})}
}

func (r *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	src, ok := v.(*models.TimetableDetail)
	target, okDest := dest.(*models.TimetableDetail)
	if !ok || !okDest {
		return fmt.Errorf("unexpected cache types %T %T", v, dest)
	}
	*target = *src
	return nil
}

func (r *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
	return nil
}

func (r *cacheRepoStub) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.entries, k)
		r.deleted = append(r.deleted, k)
	}
	return nil
}

func (r *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range r.entries {
		if strings.HasPrefix(k, prefix) {
			delete(r.entries, k)
			r.deleted = append(r.deleted, k)
		}
	}
	return nil
}

type lockerStub struct {
	busy     bool
	acquired int
	released int
}

func (l *lockerStub) Acquire(ctx context.Context, timetableID, token string, ttl time.Duration) (bool, error) {
	if l.busy {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *lockerStub) Release(ctx context.Context, timetableID, token string) error {
	l.released++
	return nil
}
