package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/schedule"
)

// ValidationError возвращается вместо обращения к хранилищу, когда
// данные формы не проходят проверки. Каждое сообщение привязано к
// имени поля.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// SlotFormInput - сырые данные формы создания/редактирования слота
type SlotFormInput struct {
	Date      string `json:"date"`       // "2006-01-02"
	StartTime string `json:"start_time"` // "HH:MM"
	EndTime   string `json:"end_time"`   // "HH:MM"
	TimeZone  string `json:"time_zone"`  // IANA-имя зоны
	CourseID  int64  `json:"course_id"`
}

// ValidateSlotForm проверяет данные формы и возвращает карту ошибок по
// полям. Пустая карта = форма валидна. "Сейчас" передаётся явно ради
// детерминированных тестов.
func (s *AvailabilityService) ValidateSlotForm(input SlotFormInput, now time.Time) map[string]string {
	fields := make(map[string]string)

	date, err := model.ParseDate(input.Date)
	if err != nil {
		fields["date"] = err.Error()
	}

	startMinutes, err := schedule.ParseClock(input.StartTime)
	if err != nil {
		fields["startTime"] = err.Error()
	} else if err := schedule.ValidateStartMinutes(startMinutes); err != nil {
		fields["startTime"] = err.Error()
	}

	endMinutes, err := schedule.ParseClock(input.EndTime)
	if err != nil {
		fields["endTime"] = err.Error()
	} else if err := schedule.ValidateEndMinutes(endMinutes); err != nil {
		fields["endTime"] = err.Error()
	}

	if _, ok := fields["startTime"]; !ok {
		if _, ok := fields["endTime"]; !ok {
			if err := schedule.ValidateClockRange(startMinutes, endMinutes); err != nil {
				fields["endTime"] = err.Error()
			}
		}
	}

	if input.CourseID == 0 {
		fields["courseId"] = "course is required"
	}

	// Слот должен быть в будущем относительно "сейчас" в зоне слота
	if _, ok := fields["date"]; !ok {
		local := now
		if loc, err := time.LoadLocation(input.TimeZone); err == nil && input.TimeZone != "" {
			local = now.In(loc)
		}
		today := model.DateOf(local)

		if date.Before(today) {
			fields["date"] = schedule.ErrPastDate.Error()
		} else if date.Equal(today) {
			if _, ok := fields["startTime"]; !ok {
				nowMinutes := local.Hour()*60 + local.Minute()
				if startMinutes <= nowMinutes {
					fields["startTime"] = schedule.ErrPastDate.Error()
				}
			}
		}
	}

	return fields
}
