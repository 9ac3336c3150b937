package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/emrs-app/exam-timetable-api/internal/models"
)

// ExamSlotRepository manages exam slots of a timetable.
type ExamSlotRepository struct {
	db *sqlx.DB
}

// NewExamSlotRepository builds repository.
func NewExamSlotRepository(db *sqlx.DB) *ExamSlotRepository {
	return &ExamSlotRepository{db: db}
}

func (r *ExamSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const examSlotDetailSelect = `SELECT s.id, s.timetable_id, s.course_id, s.date, s.time_slot, s.created_at,
c.code AS course_code, c.title AS course_title, c.level, c.department_id, d.name AS department_name, d.code AS department_code
FROM exam_slots s
JOIN courses c ON c.id = s.course_id
JOIN departments d ON d.id = c.department_id`

// ListByTimetable returns hydrated slots ordered by date and time slot.
func (r *ExamSlotRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error) {
	query := examSlotDetailSelect + ` WHERE s.timetable_id = $1 ORDER BY s.date ASC, s.time_slot ASC`
	var slots []models.ExamSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list exam slots: %w", err)
	}
	return slots, nil
}

// ListByDepartmentLevel returns hydrated slots of one department-level inside a timetable.
func (r *ExamSlotRepository) ListByDepartmentLevel(ctx context.Context, timetableID, departmentID string, level int) ([]models.ExamSlotDetail, error) {
	query := examSlotDetailSelect + ` WHERE s.timetable_id = $1 AND c.department_id = $2 AND c.level = $3 ORDER BY s.date ASC, s.time_slot ASC`
	var slots []models.ExamSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, timetableID, departmentID, level); err != nil {
		return nil, fmt.Errorf("list exam slots by department level: %w", err)
	}
	return slots, nil
}

// ListByIDs returns hydrated slots for the given ids.
func (r *ExamSlotRepository) ListByIDs(ctx context.Context, ids []string) ([]models.ExamSlotDetail, error) {
	if len(ids) == 0 {
		return []models.ExamSlotDetail{}, nil
	}
	query := examSlotDetailSelect + ` WHERE s.id = ANY($1) ORDER BY s.date ASC, s.time_slot ASC`
	var slots []models.ExamSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list exam slots by ids: %w", err)
	}
	return slots, nil
}

// FindByID returns one slot scoped to its timetable.
func (r *ExamSlotRepository) FindByID(ctx context.Context, timetableID, id string) (*models.ExamSlot, error) {
	const query = `SELECT id, timetable_id, course_id, date, time_slot, created_at FROM exam_slots WHERE id = $1 AND timetable_id = $2`
	var slot models.ExamSlot
	if err := r.db.GetContext(ctx, &slot, query, id, timetableID); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a single slot.
func (r *ExamSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.ExamSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_slots (id, timetable_id, course_id, date, time_slot, created_at) VALUES (:id, :timetable_id, :course_id, :date, :time_slot, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create exam slot: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts all slots inside the supplied transaction.
func (r *ExamSlotRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, slots []models.ExamSlot) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	for i := range slots {
		if err := r.Create(ctx, tx, &slots[i]); err != nil {
			return fmt.Errorf("bulk insert exam slot: %w", err)
		}
	}
	return nil
}

// Delete removes a slot.
func (r *ExamSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exam_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam slot: %w", err)
	}
	return nil
}

// CountByTimetable returns how many slots a timetable holds.
func (r *ExamSlotRepository) CountByTimetable(ctx context.Context, timetableID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM exam_slots WHERE timetable_id = $1`, timetableID); err != nil {
		return 0, fmt.Errorf("count exam slots: %w", err)
	}
	return count, nil
}
