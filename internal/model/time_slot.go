package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCompleted SlotStatus = "completed"
	SlotStatusCancelled SlotStatus = "cancelled"
	SlotStatusConflict  SlotStatus = "conflict"
)

// CascadeOption определяет область действия редактирования/удаления
// для слотов регулярного расписания
type CascadeOption string

const (
	CascadeSingle CascadeOption = "single" // только этот слот
	CascadeFuture CascadeOption = "future" // этот слот и все последующие в серии
	CascadeAll    CascadeOption = "all"    // все слоты серии, включая прошедшие
)

// TimeSlot представляет один слот расписания репетитора.
// ID генерируется на стороне клиента (uuid.Nil - слот ещё не сохранён),
// что позволяет хранилищу безопасно повторять создание.
type TimeSlot struct {
	ID           uuid.UUID  `json:"id"`
	TutorID      int64      `json:"tutor_id"`
	CourseID     int64      `json:"course_id"`
	Date         Date       `json:"date"`
	StartTime    string     `json:"start_time"` // "HH:MM" местного времени
	EndTime      string     `json:"end_time"`   // "HH:MM" местного времени
	TimeZone     string     `json:"time_zone"`  // IANA-имя зоны, только для отображения
	Status       SlotStatus `json:"status"`
	RecurrenceID *uuid.UUID `json:"recurrence_id"` // nil для одиночных слотов
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsRecurring проверяет что слот принадлежит серии регулярного расписания
func (s *TimeSlot) IsRecurring() bool {
	return s.RecurrenceID != nil
}
