package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotRepository управляет слотами расписания в базе данных
type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// SlotPatch содержит частичные изменения слота, nil-поля не трогаются
type SlotPatch struct {
	Date      *model.Date
	StartTime *string
	EndTime   *string
	CourseID  *int64
	Status    *model.SlotStatus
	Notes     *string
}

const slotColumns = `id, tutor_id, course_id, slot_date, start_time, end_time, time_zone, status, recurrence_id, notes, created_at, updated_at`

// Create создаёт новый слот. ID генерируется клиентом, поэтому повтор
// вставки после сетевой ошибки не создаёт дубликат.
func (r *SlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO availability_slots (id, tutor_id, course_id, slot_date, start_time, end_time, time_zone, status, recurrence_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET updated_at = now()
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.ID,
		slot.TutorID,
		slot.CourseID,
		pgDate(slot.Date),
		slot.StartTime,
		slot.EndTime,
		slot.TimeZone,
		slot.Status,
		slot.RecurrenceID,
		slot.Notes,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// CreateBatch создаёт пачку слотов одним обращением к базе.
// Возвращает количество успешно созданных слотов.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []*model.TimeSlot) (int, error) {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO availability_slots (id, tutor_id, course_id, slot_date, start_time, end_time, time_zone, status, recurrence_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	for _, slot := range slots {
		batch.Queue(query,
			slot.ID,
			slot.TutorID,
			slot.CourseID,
			pgDate(slot.Date),
			slot.StartTime,
			slot.EndTime,
			slot.TimeZone,
			slot.Status,
			slot.RecurrenceID,
			slot.Notes,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return created, fmt.Errorf("create slot batch: %w", err)
		}
		created += int(tag.RowsAffected())
	}

	return created, nil
}

// GetByID получает слот по ID, nil если слот не найден
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE id = $1
	`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ListByTutor получает слоты репетитора в диапазоне дат (включительно)
func (r *SlotRepository) ListByTutor(ctx context.Context, tutorID int64, from, to model.Date) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE tutor_id = $1
		  AND slot_date >= $2
		  AND slot_date <= $3
		ORDER BY slot_date, start_time
	`

	rows, err := r.pool.Query(ctx, query, tutorID, pgDate(from), pgDate(to))
	if err != nil {
		return nil, fmt.Errorf("list slots by tutor: %w", err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// ListByDate получает все слоты репетитора на конкретную дату
func (r *SlotRepository) ListByDate(ctx context.Context, tutorID int64, date model.Date) ([]*model.TimeSlot, error) {
	return r.ListByTutor(ctx, tutorID, date, date)
}

// ExistsAt проверяет существование слота репетитора с данным началом.
// Используется материализатором чтобы не плодить дубликаты инстансов.
// Cancelled-строки учитываются наравне с живыми: отменённый инстанс
// служит надгробием и подавляет повторную материализацию на своём месте.
func (r *SlotRepository) ExistsAt(ctx context.Context, tutorID int64, date model.Date, startTime string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM availability_slots
			WHERE tutor_id = $1 AND slot_date = $2 AND start_time = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, tutorID, pgDate(date), startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}

// Update применяет частичные изменения к слоту с учётом каскада.
// Хранилище владеет авторитетным набором инстансов серии, поэтому
// каскад future/all раскрывается здесь, а не в сервисе.
func (r *SlotRepository) Update(ctx context.Context, id uuid.UUID, patch SlotPatch, cascade model.CascadeOption) ([]*model.TimeSlot, error) {
	where, args, err := r.cascadeScope(ctx, id, cascade)
	if err != nil {
		return nil, err
	}

	var patchDate *time.Time
	if patch.Date != nil {
		d := pgDate(*patch.Date)
		patchDate = &d
	}

	n := len(args)
	query := fmt.Sprintf(`
		UPDATE availability_slots
		SET slot_date  = COALESCE($%d, slot_date),
		    start_time = COALESCE($%d, start_time),
		    end_time   = COALESCE($%d, end_time),
		    course_id  = COALESCE($%d, course_id),
		    status     = COALESCE($%d, status),
		    notes      = COALESCE($%d, notes),
		    updated_at = now()
		WHERE %s
		RETURNING `+slotColumns,
		n+1, n+2, n+3, n+4, n+5, n+6, where)

	args = append(args, patchDate, patch.StartTime, patch.EndTime, patch.CourseID, patch.Status, patch.Notes)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	defer rows.Close()

	updated, err := scanSlots(rows)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("slot not found")
	}

	return updated, nil
}

// Delete удаляет слот с учётом каскада, возвращает число удалённых
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (int, error) {
	where, args, err := r.cascadeScope(ctx, id, cascade)
	if err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM availability_slots WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete slot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("slot not found")
	}

	return int(tag.RowsAffected()), nil
}

// CountBooked считает забронированные слоты в области каскада.
// Нужен для предупреждения перед удалением серии с бронированиями.
func (r *SlotRepository) CountBooked(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (int, error) {
	where, args, err := r.cascadeScope(ctx, id, cascade)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM availability_slots WHERE status = 'booked' AND " + where

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count booked slots: %w", err)
	}

	return count, nil
}

// cascadeScope строит WHERE-условие для области каскада относительно
// слота-якоря. Для одиночного слота future/all вырождаются в single.
func (r *SlotRepository) cascadeScope(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (string, []any, error) {
	anchor, err := r.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if anchor == nil {
		return "", nil, fmt.Errorf("slot not found")
	}

	if cascade == model.CascadeSingle || anchor.RecurrenceID == nil {
		return "id = $1", []any{id}, nil
	}

	switch cascade {
	case model.CascadeFuture:
		return "recurrence_id = $1 AND slot_date >= $2", []any{*anchor.RecurrenceID, pgDate(anchor.Date)}, nil
	case model.CascadeAll:
		return "recurrence_id = $1", []any{*anchor.RecurrenceID}, nil
	default:
		return "", nil, fmt.Errorf("unknown cascade option %q", cascade)
	}
}

func scanSlot(row pgx.Row) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	var date time.Time
	err := row.Scan(
		&slot.ID,
		&slot.TutorID,
		&slot.CourseID,
		&date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.TimeZone,
		&slot.Status,
		&slot.RecurrenceID,
		&slot.Notes,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	slot.Date = model.DateOf(date)
	return &slot, nil
}

func scanSlots(rows pgx.Rows) ([]*model.TimeSlot, error) {
	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// pgDate конвертирует календарную дату в параметр колонки типа date.
// UTC-полночь существует только на границе с базой; внутрь модели даты
// возвращаются как поля (model.DateOf), без поясной арифметики.
func pgDate(d model.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}
