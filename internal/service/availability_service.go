package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/repository"
	"github.com/Freeeeeet/tutor_availability/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService оркестрирует жизненный цикл слотов: валидация,
// рекомендательная проверка пересечений, развёртка правил повторения
// и каскадные операции через хранилище. Сервис не повторяет упавшие
// обращения к хранилищу - решение о повторе принимает вызывающий.
type AvailabilityService struct {
	slots  SlotStore
	rules  RuleStore
	logger *zap.Logger
}

func NewAvailabilityService(slots SlotStore, rules RuleStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		slots:  slots,
		rules:  rules,
		logger: logger,
	}
}

// DeleteResult описывает исход удаления с каскадом
type DeleteResult struct {
	Deleted        int    `json:"deleted"`
	BookedAffected int    `json:"booked_affected"`
	Warning        string `json:"warning,omitempty"`
}

// CreateSlot создаёт одиночный слот: валидация -> рекомендательная
// проверка пересечений -> сохранение. Найденные пересечения операцию
// не блокируют - они возвращаются вызывающему вместе со слотом.
func (s *AvailabilityService) CreateSlot(ctx context.Context, tutorID int64, input SlotFormInput, notes string, now time.Time) (*model.TimeSlot, *model.ConflictCheckResult, error) {
	if fields := s.ValidateSlotForm(input, now); len(fields) > 0 {
		return nil, nil, &ValidationError{Fields: fields}
	}

	date, _ := model.ParseDate(input.Date)
	startMinutes, _ := schedule.ParseClock(input.StartTime)
	endMinutes, _ := schedule.ParseClock(input.EndTime)

	conflicts := s.advisoryConflictCheck(ctx, tutorID, date, startMinutes, endMinutes, uuid.Nil)

	slot := &model.TimeSlot{
		ID:        uuid.New(),
		TutorID:   tutorID,
		CourseID:  input.CourseID,
		Date:      date,
		StartTime: schedule.FormatClock(startMinutes),
		EndTime:   schedule.FormatClock(endMinutes),
		TimeZone:  input.TimeZone,
		Status:    model.SlotStatusAvailable,
		Notes:     notes,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		s.logger.Error("Failed to create slot",
			zap.Int64("tutor_id", tutorID),
			zap.String("date", date.String()),
			zap.Error(err))
		return nil, nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.Int64("tutor_id", tutorID),
		zap.String("date", date.String()),
		zap.String("time", slot.StartTime+"-"+slot.EndTime),
		zap.Bool("has_conflicts", conflicts.HasConflicts))

	return slot, conflicts, nil
}

// CreateRecurring создаёт правило повторения и материализует все его
// инстансы. Weekdays правила приходят в UI-нумерации и конвертируются
// в нумерацию хранилища непосредственно перед сохранением.
// Возвращает количество созданных слотов.
func (s *AvailabilityService) CreateRecurring(ctx context.Context, rule *model.RecurrenceRule, now time.Time) (int, error) {
	if fields := s.validateRuleForm(rule, now); len(fields) > 0 {
		return 0, &ValidationError{Fields: fields}
	}

	dates := schedule.ExpandRule(rule.StartDate, rule.EndDate, rule.Weekdays)
	if len(dates) == 0 {
		return 0, &ValidationError{Fields: map[string]string{
			"weekdays": schedule.ErrEmptyRule.Error(),
		}}
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.IsActive = true

	startMinutes, _ := schedule.ParseClock(rule.StartTime)
	endMinutes, _ := schedule.ParseClock(rule.EndTime)
	rule.StartTime = schedule.FormatClock(startMinutes)
	rule.EndTime = schedule.FormatClock(endMinutes)

	// Хранилище видит дни недели только в своей нумерации
	stored := *rule
	stored.Weekdays = schedule.ToStorageWeekdays(rule.Weekdays)

	if err := s.rules.Create(ctx, &stored); err != nil {
		s.logger.Error("Failed to create recurrence rule",
			zap.Int64("tutor_id", rule.TutorID),
			zap.Error(err))
		return 0, fmt.Errorf("create recurrence rule: %w", err)
	}
	rule.CreatedAt = stored.CreatedAt
	rule.UpdatedAt = stored.UpdatedAt

	today := model.DateOf(now)
	slots := make([]*model.TimeSlot, 0, len(dates))
	for _, date := range dates {
		if date.Before(today) {
			continue
		}
		ruleID := rule.ID
		slots = append(slots, &model.TimeSlot{
			ID:           uuid.New(),
			TutorID:      rule.TutorID,
			CourseID:     rule.CourseID,
			Date:         date,
			StartTime:    rule.StartTime,
			EndTime:      rule.EndTime,
			TimeZone:     rule.TimeZone,
			Status:       model.SlotStatusAvailable,
			RecurrenceID: &ruleID,
		})
	}

	created, err := s.slots.CreateBatch(ctx, slots)
	if err != nil {
		s.logger.Error("Failed to materialize recurrence rule",
			zap.String("rule_id", rule.ID.String()),
			zap.Int("created", created),
			zap.Error(err))
		return created, fmt.Errorf("materialize recurrence rule: %w", err)
	}

	s.logger.Info("Recurrence rule materialized",
		zap.String("rule_id", rule.ID.String()),
		zap.Int64("tutor_id", rule.TutorID),
		zap.Ints("weekdays", rule.Weekdays),
		zap.Int("instances", created))

	return created, nil
}

// UpdateSlot применяет частичные изменения с каскадом single/future/all.
// Область каскада вычисляет хранилище - сервис только передаёт опцию.
func (s *AvailabilityService) UpdateSlot(ctx context.Context, id uuid.UUID, patch repository.SlotPatch, cascade model.CascadeOption) ([]*model.TimeSlot, error) {
	if patch.StartTime != nil || patch.EndTime != nil {
		anchor, err := s.slots.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get slot: %w", err)
		}
		if anchor == nil {
			return nil, fmt.Errorf("slot not found")
		}

		start := anchor.StartTime
		if patch.StartTime != nil {
			start = *patch.StartTime
		}
		end := anchor.EndTime
		if patch.EndTime != nil {
			end = *patch.EndTime
		}

		if fields := s.validateClockPair(start, end); len(fields) > 0 {
			return nil, &ValidationError{Fields: fields}
		}
	}

	updated, err := s.slots.Update(ctx, id, patch, cascade)
	if err != nil {
		s.logger.Error("Failed to update slot",
			zap.String("slot_id", id.String()),
			zap.String("cascade", string(cascade)),
			zap.Error(err))
		return nil, fmt.Errorf("update slot: %w", err)
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", id.String()),
		zap.String("cascade", string(cascade)),
		zap.Int("affected", len(updated)))

	return updated, nil
}

// CountBookedInCascade возвращает число бронирований, которые затронет
// удаление с данным каскадом. Вызывается до подтверждения удаления.
func (s *AvailabilityService) CountBookedInCascade(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (int, error) {
	return s.slots.CountBooked(ctx, id, cascade)
}

// DeleteSlot удаляет слот (или серию, по каскаду). Удаление серии
// обязано пережить следующий проход материализатора: single превращает
// инстанс в cancelled-надгробие, future обрезает горизонт правила по
// дате якоря, all деактивирует правило целиком. Удаление при живых
// бронированиях разрешено, но результат несёт предупреждение с их числом.
func (s *AvailabilityService) DeleteSlot(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (*DeleteResult, error) {
	anchor, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if anchor == nil {
		return nil, fmt.Errorf("slot not found")
	}

	booked, err := s.slots.CountBooked(ctx, id, cascade)
	if err != nil {
		return nil, fmt.Errorf("count booked slots: %w", err)
	}

	if anchor.IsRecurring() && cascade == model.CascadeSingle {
		// Жёсткое удаление не оставило бы следа, и материализатор
		// воссоздал бы инстанс на том же месте
		cancelled := model.SlotStatusCancelled
		if _, err := s.slots.Update(ctx, id, repository.SlotPatch{Status: &cancelled}, model.CascadeSingle); err != nil {
			return nil, fmt.Errorf("cancel slot: %w", err)
		}

		result := &DeleteResult{Deleted: 1, BookedAffected: booked}
		if booked > 0 {
			result.Warning = fmt.Sprintf("%d booked slot(s) were removed", booked)
		}

		s.logger.Info("Series instance cancelled",
			zap.String("slot_id", id.String()),
			zap.Int("booked_affected", booked))

		return result, nil
	}

	// Сначала правило, потом инстансы: проход материализатора между
	// этими шагами не должен успеть воссоздать удаляемое
	if anchor.IsRecurring() {
		if err := s.retireRule(ctx, *anchor.RecurrenceID, anchor.Date, cascade); err != nil {
			return nil, err
		}
	}

	deleted, err := s.slots.Delete(ctx, id, cascade)
	if err != nil {
		s.logger.Error("Failed to delete slot",
			zap.String("slot_id", id.String()),
			zap.String("cascade", string(cascade)),
			zap.Error(err))
		return nil, fmt.Errorf("delete slot: %w", err)
	}

	result := &DeleteResult{
		Deleted:        deleted,
		BookedAffected: booked,
	}
	if booked > 0 {
		result.Warning = fmt.Sprintf("%d booked slot(s) were removed", booked)
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", id.String()),
		zap.String("cascade", string(cascade)),
		zap.Int("deleted", deleted),
		zap.Int("booked_affected", booked))

	return result, nil
}

// CheckConflicts проверяет интервал-кандидат на пересечения со слотами
// репетитора. Проверка рекомендательная: если список слотов получить не
// удалось, результат деградирует до "пересечений нет" с предупреждением,
// а не валит операцию.
func (s *AvailabilityService) CheckConflicts(ctx context.Context, tutorID int64, date model.Date, startTime, endTime string, excludeID uuid.UUID) (*model.ConflictCheckResult, error) {
	startMinutes, err := schedule.ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	endMinutes, err := schedule.ParseClock(endTime)
	if err != nil {
		return nil, err
	}

	return s.advisoryConflictCheck(ctx, tutorID, date, startMinutes, endMinutes, excludeID), nil
}

// ComputeStats вычисляет метрики дашборда по списку слотов
func (s *AvailabilityService) ComputeStats(slots []*model.TimeSlot, now time.Time, hourlyRate float64) *model.AvailabilityStats {
	return schedule.ComputeStats(slots, now, hourlyRate)
}

// GetStats загружает слоты репетитора за период и считает метрики
func (s *AvailabilityService) GetStats(ctx context.Context, tutorID int64, from, to model.Date, now time.Time, hourlyRate float64) (*model.AvailabilityStats, error) {
	slots, err := s.slots.ListByTutor(ctx, tutorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return schedule.ComputeStats(slots, now, hourlyRate), nil
}

// ExpandRecurrence разворачивает правило в упорядоченный список дат,
// не сохраняя ничего
func (s *AvailabilityService) ExpandRecurrence(rule *model.RecurrenceRule) ([]model.Date, error) {
	if err := schedule.ValidateRule(rule); err != nil {
		return nil, err
	}

	dates := schedule.ExpandRule(rule.StartDate, rule.EndDate, rule.Weekdays)
	if len(dates) == 0 {
		return nil, schedule.ErrEmptyRule
	}

	return dates, nil
}

// ListSlots возвращает слоты репетитора в диапазоне дат
func (s *AvailabilityService) ListSlots(ctx context.Context, tutorID int64, from, to model.Date) ([]*model.TimeSlot, error) {
	return s.slots.ListByTutor(ctx, tutorID, from, to)
}

// GetRules возвращает правила репетитора, дни недели - в UI-нумерации
func (s *AvailabilityService) GetRules(ctx context.Context, tutorID int64) ([]*model.RecurrenceRule, error) {
	rules, err := s.rules.GetByTutorID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get recurrence rules: %w", err)
	}

	for _, rule := range rules {
		rule.Weekdays = schedule.ToUIWeekdays(rule.Weekdays)
	}

	return rules, nil
}

// MaterializeActiveRules досоздаёт недостающие инстансы всех активных
// правил. Идемпотентна: уже существующие слоты пропускаются по
// (репетитор, дата, время начала). Вызывается фоновым материализатором.
func (s *AvailabilityService) MaterializeActiveRules(ctx context.Context, now time.Time) (int, error) {
	rules, err := s.rules.GetAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("get active recurrence rules: %w", err)
	}

	today := model.DateOf(now)
	total := 0

	for _, rule := range rules {
		uiWeekdays := schedule.ToUIWeekdays(rule.Weekdays)

		count := 0
		for _, date := range schedule.ExpandRule(rule.StartDate, rule.EndDate, uiWeekdays) {
			if date.Before(today) {
				continue
			}

			exists, err := s.slots.ExistsAt(ctx, rule.TutorID, date, rule.StartTime)
			if err != nil {
				s.logger.Warn("Failed to check slot existence",
					zap.String("rule_id", rule.ID.String()),
					zap.String("date", date.String()),
					zap.Error(err))
				continue
			}
			if exists {
				continue
			}

			ruleID := rule.ID
			slot := &model.TimeSlot{
				ID:           uuid.New(),
				TutorID:      rule.TutorID,
				CourseID:     rule.CourseID,
				Date:         date,
				StartTime:    rule.StartTime,
				EndTime:      rule.EndTime,
				TimeZone:     rule.TimeZone,
				Status:       model.SlotStatusAvailable,
				RecurrenceID: &ruleID,
			}

			if err := s.slots.Create(ctx, slot); err != nil {
				s.logger.Warn("Failed to create slot instance",
					zap.String("rule_id", rule.ID.String()),
					zap.String("date", date.String()),
					zap.Error(err))
				continue
			}
			count++
		}

		total += count
	}

	s.logger.Info("Materialized active recurrence rules",
		zap.Int("rules", len(rules)),
		zap.Int("slots_created", total))

	return total, nil
}

// retireRule гасит правило при каскадном удалении серии: all деактивирует
// его, future обрезает дату окончания до дня перед якорем. Якорь в начале
// серии вырождает future в полную деактивацию.
func (s *AvailabilityService) retireRule(ctx context.Context, ruleID uuid.UUID, anchorDate model.Date, cascade model.CascadeOption) error {
	switch cascade {
	case model.CascadeAll:
		if err := s.rules.Deactivate(ctx, ruleID); err != nil {
			return fmt.Errorf("deactivate recurrence rule: %w", err)
		}

		s.logger.Info("Recurrence rule deactivated",
			zap.String("rule_id", ruleID.String()),
			zap.String("cascade", string(cascade)))

	case model.CascadeFuture:
		rule, err := s.rules.GetByID(ctx, ruleID)
		if err != nil {
			return fmt.Errorf("get recurrence rule: %w", err)
		}
		if rule == nil {
			return nil
		}

		if !anchorDate.After(rule.StartDate) {
			if err := s.rules.Deactivate(ctx, ruleID); err != nil {
				return fmt.Errorf("deactivate recurrence rule: %w", err)
			}
			return nil
		}

		newEnd := anchorDate.PrevDay()
		if err := s.rules.SetEndDate(ctx, ruleID, newEnd); err != nil {
			return fmt.Errorf("cap recurrence rule: %w", err)
		}

		s.logger.Info("Recurrence rule horizon capped",
			zap.String("rule_id", ruleID.String()),
			zap.String("end_date", newEnd.String()))
	}

	return nil
}

// advisoryConflictCheck - общая рекомендательная проверка пересечений.
// Ошибка загрузки слотов логируется и деградирует в предупреждение.
func (s *AvailabilityService) advisoryConflictCheck(ctx context.Context, tutorID int64, date model.Date, startMinutes, endMinutes int, excludeID uuid.UUID) *model.ConflictCheckResult {
	existing, err := s.slots.ListByDate(ctx, tutorID, date)
	if err != nil {
		s.logger.Warn("Conflict check degraded: slot list unavailable",
			zap.Int64("tutor_id", tutorID),
			zap.String("date", date.String()),
			zap.Error(err))
		return &model.ConflictCheckResult{
			HasConflicts: false,
			Message:      "conflict check unavailable: " + err.Error(),
		}
	}

	return schedule.CheckConflicts(date, startMinutes, endMinutes, existing, excludeID)
}

// validateRuleForm собирает ошибки формы правила повторения по полям
func (s *AvailabilityService) validateRuleForm(rule *model.RecurrenceRule, now time.Time) map[string]string {
	fields := make(map[string]string)

	if len(rule.Weekdays) == 0 {
		fields["weekdays"] = schedule.ErrEmptyRule.Error()
	} else {
		for _, day := range rule.Weekdays {
			if day < 0 || day > 6 {
				fields["weekdays"] = fmt.Sprintf("invalid weekday index %d", day)
				break
			}
		}
	}

	if !rule.StartDate.IsValid() {
		fields["startDate"] = "invalid start date"
	} else {
		local := now
		if loc, err := time.LoadLocation(rule.TimeZone); err == nil && rule.TimeZone != "" {
			local = now.In(loc)
		}
		if rule.StartDate.Before(model.DateOf(local)) {
			fields["startDate"] = schedule.ErrPastDate.Error()
		}
	}

	if rule.EndDate != nil {
		if !rule.EndDate.IsValid() {
			fields["endDate"] = "invalid end date"
		} else if !rule.EndDate.After(rule.StartDate) {
			fields["endDate"] = "end date must be after start date"
		}
	}

	for field, message := range s.validateClockPair(rule.StartTime, rule.EndTime) {
		fields[field] = message
	}

	return fields
}

// validateClockPair проверяет пару времени начала/конца слота
func (s *AvailabilityService) validateClockPair(startTime, endTime string) map[string]string {
	fields := make(map[string]string)

	startMinutes, err := schedule.ParseClock(startTime)
	if err != nil {
		fields["startTime"] = err.Error()
	} else if err := schedule.ValidateStartMinutes(startMinutes); err != nil {
		fields["startTime"] = err.Error()
	}

	endMinutes, err := schedule.ParseClock(endTime)
	if err != nil {
		fields["endTime"] = err.Error()
	} else if err := schedule.ValidateEndMinutes(endMinutes); err != nil {
		fields["endTime"] = err.Error()
	}

	if len(fields) == 0 {
		if err := schedule.ValidateClockRange(startMinutes, endMinutes); err != nil {
			fields["endTime"] = err.Error()
		}
	}

	return fields
}
