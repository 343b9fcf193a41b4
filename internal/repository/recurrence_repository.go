package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RecurrenceRepository управляет правилами регулярного расписания.
// Weekdays в таблице хранятся строго в нумерации хранилища (0 = понедельник);
// конвертацию в UI-нумерацию выполняет сервис на своей границе.
type RecurrenceRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewRecurrenceRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecurrenceRepository {
	return &RecurrenceRepository{
		pool:   pool,
		logger: logger,
	}
}

const ruleColumns = `id, tutor_id, course_id, start_date, end_date, weekdays, start_time, end_time, time_zone, is_active, created_at, updated_at`

// Create сохраняет правило повторения
func (r *RecurrenceRepository) Create(ctx context.Context, rule *model.RecurrenceRule) error {
	query := `
		INSERT INTO recurrence_rules (id, tutor_id, course_id, start_date, end_date, weekdays, start_time, end_time, time_zone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	var endDate *time.Time
	if rule.EndDate != nil {
		d := pgDate(*rule.EndDate)
		endDate = &d
	}

	err := r.pool.QueryRow(
		ctx, query,
		rule.ID,
		rule.TutorID,
		rule.CourseID,
		pgDate(rule.StartDate),
		endDate,
		toInt32s(rule.Weekdays),
		rule.StartTime,
		rule.EndTime,
		rule.TimeZone,
		rule.IsActive,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurrence rule: %w", err)
	}

	r.logger.Info("Recurrence rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.Int64("tutor_id", rule.TutorID),
		zap.Ints("weekdays", rule.Weekdays),
	)

	return nil
}

// GetByID получает правило по ID, nil если правило не найдено
func (r *RecurrenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurrenceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurrence_rules
		WHERE id = $1
	`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurrence rule by id: %w", err)
	}

	return rule, nil
}

// GetByTutorID получает все правила репетитора
func (r *RecurrenceRepository) GetByTutorID(ctx context.Context, tutorID int64) ([]*model.RecurrenceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurrence_rules
		WHERE tutor_id = $1
		ORDER BY start_date, start_time
	`

	rows, err := r.pool.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get recurrence rules by tutor: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetAllActive получает все активные правила
func (r *RecurrenceRepository) GetAllActive(ctx context.Context) ([]*model.RecurrenceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurrence_rules
		WHERE is_active = true
		ORDER BY start_date, start_time
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all active recurrence rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// SetEndDate обрезает горизонт правила по новой дате окончания.
// Инстансы за пределами новой даты больше не материализуются.
func (r *RecurrenceRepository) SetEndDate(ctx context.Context, id uuid.UUID, end model.Date) error {
	query := `
		UPDATE recurrence_rules
		SET end_date = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, pgDate(end))
	if err != nil {
		return fmt.Errorf("set recurrence rule end date: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recurrence rule not found")
	}

	r.logger.Info("Recurrence rule horizon capped",
		zap.String("rule_id", id.String()),
		zap.String("end_date", end.String()),
	)

	return nil
}

// Deactivate выключает правило, не трогая уже созданные слоты
func (r *RecurrenceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE recurrence_rules
		SET is_active = false, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate recurrence rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recurrence rule not found")
	}

	return nil
}

// Delete удаляет правило
func (r *RecurrenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recurrence_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recurrence rule: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recurrence rule not found")
	}

	return nil
}

func scanRule(row pgx.Row) (*model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	var startDate time.Time
	var endDate *time.Time
	var weekdays []int32

	err := row.Scan(
		&rule.ID,
		&rule.TutorID,
		&rule.CourseID,
		&startDate,
		&endDate,
		&weekdays,
		&rule.StartTime,
		&rule.EndTime,
		&rule.TimeZone,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.StartDate = model.DateOf(startDate)
	if endDate != nil {
		d := model.DateOf(*endDate)
		rule.EndDate = &d
	}
	rule.Weekdays = fromInt32s(weekdays)

	return &rule, nil
}

func scanRules(rows pgx.Rows) ([]*model.RecurrenceRule, error) {
	var rules []*model.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurrence rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func toInt32s(days []int) []int32 {
	result := make([]int32, len(days))
	for i, d := range days {
		result[i] = int32(d)
	}
	return result
}

func fromInt32s(days []int32) []int {
	result := make([]int, len(days))
	for i, d := range days {
		result[i] = int(d)
	}
	return result
}
