package service

import (
	"context"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/repository"
	"github.com/google/uuid"
)

// SlotStore - интерфейс хранилища слотов. Сервис никогда не держит
// собственную копию набора инстансов: авторитетный набор принадлежит
// хранилищу, включая раскрытие каскадов future/all.
type SlotStore interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	CreateBatch(ctx context.Context, slots []*model.TimeSlot) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	ListByTutor(ctx context.Context, tutorID int64, from, to model.Date) ([]*model.TimeSlot, error)
	ListByDate(ctx context.Context, tutorID int64, date model.Date) ([]*model.TimeSlot, error)
	ExistsAt(ctx context.Context, tutorID int64, date model.Date, startTime string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, patch repository.SlotPatch, cascade model.CascadeOption) ([]*model.TimeSlot, error)
	Delete(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (int, error)
	CountBooked(ctx context.Context, id uuid.UUID, cascade model.CascadeOption) (int, error)
}

// RuleStore - интерфейс хранилища правил повторения
type RuleStore interface {
	Create(ctx context.Context, rule *model.RecurrenceRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecurrenceRule, error)
	GetByTutorID(ctx context.Context, tutorID int64) ([]*model.RecurrenceRule, error)
	GetAllActive(ctx context.Context) ([]*model.RecurrenceRule, error)
	SetEndDate(ctx context.Context, id uuid.UUID, end model.Date) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
