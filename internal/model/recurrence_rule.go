package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurrenceRule представляет шаблон регулярного расписания.
// Weekdays хранятся в UI-нумерации (0 = воскресенье); перед сохранением
// в хранилище они конвертируются в нумерацию хранилища (0 = понедельник).
type RecurrenceRule struct {
	ID        uuid.UUID `json:"id"` // общий идентификатор серии
	TutorID   int64     `json:"tutor_id"`
	CourseID  int64     `json:"course_id"`
	StartDate Date      `json:"start_date"`
	EndDate   *Date     `json:"end_date"` // nil = StartDate + 3 календарных месяца
	Weekdays  []int     `json:"weekdays"`
	StartTime string    `json:"start_time"` // "HH:MM"
	EndTime   string    `json:"end_time"`   // "HH:MM"
	TimeZone  string    `json:"time_zone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
