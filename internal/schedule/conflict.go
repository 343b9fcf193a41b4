package schedule

import (
	"fmt"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/google/uuid"
)

// CheckConflicts сравнивает интервал-кандидат со списком существующих
// слотов и возвращает пересечения. excludeID исключает слот из проверки -
// при редактировании слот не должен конфликтовать сам с собой.
//
// Функция чистая: список существующих слотов подгружает вызывающий.
// Отменённые слоты пересечением не считаются.
func CheckConflicts(date model.Date, startMinutes, endMinutes int, existing []*model.TimeSlot, excludeID uuid.UUID) *model.ConflictCheckResult {
	var conflicts []*model.TimeSlot

	for _, slot := range existing {
		if excludeID != uuid.Nil && slot.ID == excludeID {
			continue
		}
		if slot.Status == model.SlotStatusCancelled {
			continue
		}
		if !slot.Date.Equal(date) {
			continue
		}

		slotStart, err := ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		slotEnd, err := ParseClock(slot.EndTime)
		if err != nil {
			continue
		}

		if Overlaps(startMinutes, endMinutes, slotStart, slotEnd) {
			conflicts = append(conflicts, slot)
		}
	}

	result := &model.ConflictCheckResult{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}

	if result.HasConflicts {
		result.Message = fmt.Sprintf("found %d overlapping slot(s) on %s", len(conflicts), date)
	} else {
		result.Message = "no conflicts"
	}

	return result
}
