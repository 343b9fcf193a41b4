package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/repository"
	"github.com/Freeeeeet/tutor_availability/internal/schedule"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testNow - среда 2025-01-01 12:00 UTC
var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeSlotStore struct {
	created     []*model.TimeSlot
	batched     [][]*model.TimeSlot
	byDate      []*model.TimeSlot
	listErr     error
	anchor      *model.TimeSlot
	updated     []*model.TimeSlot
	deleted     int
	deleteCalls int
	deleteErr   error
	booked      int
	bookedErr   error
	exists      bool
	lastCascade model.CascadeOption
	lastPatch   repository.SlotPatch
}

func (f *fakeSlotStore) Create(_ context.Context, slot *model.TimeSlot) error {
	f.created = append(f.created, slot)
	return nil
}

func (f *fakeSlotStore) CreateBatch(_ context.Context, slots []*model.TimeSlot) (int, error) {
	f.batched = append(f.batched, slots)
	return len(slots), nil
}

func (f *fakeSlotStore) GetByID(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	return f.anchor, nil
}

func (f *fakeSlotStore) ListByTutor(_ context.Context, _ int64, _, _ model.Date) ([]*model.TimeSlot, error) {
	return f.byDate, f.listErr
}

func (f *fakeSlotStore) ListByDate(_ context.Context, _ int64, _ model.Date) ([]*model.TimeSlot, error) {
	return f.byDate, f.listErr
}

func (f *fakeSlotStore) ExistsAt(_ context.Context, _ int64, _ model.Date, _ string) (bool, error) {
	return f.exists, nil
}

func (f *fakeSlotStore) Update(_ context.Context, _ uuid.UUID, patch repository.SlotPatch, cascade model.CascadeOption) ([]*model.TimeSlot, error) {
	f.lastPatch = patch
	f.lastCascade = cascade
	return f.updated, nil
}

func (f *fakeSlotStore) Delete(_ context.Context, _ uuid.UUID, cascade model.CascadeOption) (int, error) {
	f.deleteCalls++
	f.lastCascade = cascade
	return f.deleted, f.deleteErr
}

func (f *fakeSlotStore) CountBooked(_ context.Context, _ uuid.UUID, _ model.CascadeOption) (int, error) {
	return f.booked, f.bookedErr
}

type fakeRuleStore struct {
	created     []*model.RecurrenceRule
	createErr   error
	active      []*model.RecurrenceRule
	byTutor     []*model.RecurrenceRule
	byID        map[uuid.UUID]*model.RecurrenceRule
	deactivated []uuid.UUID
	cappedEnd   map[uuid.UUID]model.Date
}

func (f *fakeRuleStore) Create(_ context.Context, rule *model.RecurrenceRule) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, rule)
	return nil
}

func (f *fakeRuleStore) GetByID(_ context.Context, id uuid.UUID) (*model.RecurrenceRule, error) {
	return f.byID[id], nil
}

func (f *fakeRuleStore) GetByTutorID(_ context.Context, _ int64) ([]*model.RecurrenceRule, error) {
	return f.byTutor, nil
}

func (f *fakeRuleStore) GetAllActive(_ context.Context) ([]*model.RecurrenceRule, error) {
	return f.active, nil
}

func (f *fakeRuleStore) SetEndDate(_ context.Context, id uuid.UUID, end model.Date) error {
	if f.cappedEnd == nil {
		f.cappedEnd = make(map[uuid.UUID]model.Date)
	}
	f.cappedEnd[id] = end
	for _, rule := range f.active {
		if rule.ID == id {
			d := end
			rule.EndDate = &d
		}
	}
	return nil
}

func (f *fakeRuleStore) Deactivate(_ context.Context, id uuid.UUID) error {
	f.deactivated = append(f.deactivated, id)
	kept := f.active[:0]
	for _, rule := range f.active {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	f.active = kept
	return nil
}

func (f *fakeRuleStore) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func newTestService(slots *fakeSlotStore, rules *fakeRuleStore) *AvailabilityService {
	return NewAvailabilityService(slots, rules, zap.NewNop())
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func validInput() SlotFormInput {
	return SlotFormInput{
		Date:      "2025-01-06",
		StartTime: "09:00",
		EndTime:   "10:00",
		TimeZone:  "Europe/Moscow",
		CourseID:  10,
	}
}

func TestValidateSlotForm(t *testing.T) {
	svc := newTestService(&fakeSlotStore{}, &fakeRuleStore{})

	assert.Empty(t, svc.ValidateSlotForm(validInput(), testNow))

	tests := []struct {
		name    string
		mutate  func(*SlotFormInput)
		field   string
	}{
		{"bad date", func(in *SlotFormInput) { in.Date = "06.01.2025" }, "date"},
		{"past date", func(in *SlotFormInput) { in.Date = "2024-12-31" }, "date"},
		{"bad start format", func(in *SlotFormInput) { in.StartTime = "9am" }, "startTime"},
		{"start before opening", func(in *SlotFormInput) { in.StartTime = "05:00" }, "startTime"},
		{"start after last start", func(in *SlotFormInput) { in.StartTime = "21:00" }, "startTime"},
		{"end after closing", func(in *SlotFormInput) { in.EndTime = "22:30" }, "endTime"},
		{"end before start", func(in *SlotFormInput) { in.StartTime = "10:00"; in.EndTime = "09:00" }, "endTime"},
		{"too long", func(in *SlotFormInput) { in.EndTime = "10:30" }, "endTime"},
		{"missing course", func(in *SlotFormInput) { in.CourseID = 0 }, "courseId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			fields := svc.ValidateSlotForm(input, testNow)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateSlotFormElapsedToday(t *testing.T) {
	svc := newTestService(&fakeSlotStore{}, &fakeRuleStore{})

	input := validInput()
	input.Date = "2025-01-01"
	input.TimeZone = "UTC"

	// 09:00 сегодняшнего дня уже прошло относительно 12:00 UTC
	fields := svc.ValidateSlotForm(input, testNow)
	assert.Contains(t, fields, "startTime")

	input.StartTime = "14:00"
	input.EndTime = "15:00"
	assert.Empty(t, svc.ValidateSlotForm(input, testNow))
}

func TestCreateSlot(t *testing.T) {
	slots := &fakeSlotStore{}
	svc := newTestService(slots, &fakeRuleStore{})

	slot, conflicts, err := svc.CreateSlot(context.Background(), 7, validInput(), "first lesson", testNow)
	require.NoError(t, err)
	require.Len(t, slots.created, 1)

	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.Equal(t, int64(7), slot.TutorID)
	assert.Equal(t, mustDate(t, "2025-01-06"), slot.Date)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)
	assert.Nil(t, slot.RecurrenceID)
	assert.False(t, conflicts.HasConflicts)
}

func TestCreateSlotNormalizesTime(t *testing.T) {
	slots := &fakeSlotStore{}
	svc := newTestService(slots, &fakeRuleStore{})

	input := validInput()
	input.StartTime = "9:00"
	input.EndTime = "9:45"

	slot, _, err := svc.CreateSlot(context.Background(), 7, input, "", testNow)
	require.NoError(t, err)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, "09:45", slot.EndTime)
}

func TestCreateSlotValidationBlocksPersistence(t *testing.T) {
	slots := &fakeSlotStore{}
	svc := newTestService(slots, &fakeRuleStore{})

	input := validInput()
	input.Date = "2024-01-01"

	_, _, err := svc.CreateSlot(context.Background(), 7, input, "", testNow)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "date")
	// До хранилища ошибка валидации не доходит
	assert.Empty(t, slots.created)
}

func TestCreateSlotAdvisoryConflict(t *testing.T) {
	existing := &model.TimeSlot{
		ID:        uuid.New(),
		Date:      model.Date{Year: 2025, Month: 1, Day: 6},
		StartTime: "09:30",
		EndTime:   "10:30",
		Status:    model.SlotStatusBooked,
	}
	slots := &fakeSlotStore{byDate: []*model.TimeSlot{existing}}
	svc := newTestService(slots, &fakeRuleStore{})

	// Пересечение найдено, но операцию оно не блокирует
	slot, conflicts, err := svc.CreateSlot(context.Background(), 7, validInput(), "", testNow)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, conflicts.HasConflicts)
	assert.Len(t, slots.created, 1)
}

func TestCreateSlotConflictCheckDegrades(t *testing.T) {
	slots := &fakeSlotStore{listErr: errors.New("connection refused")}
	svc := newTestService(slots, &fakeRuleStore{})

	// Недоступность списка слотов деградирует в предупреждение
	slot, conflicts, err := svc.CreateSlot(context.Background(), 7, validInput(), "", testNow)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.False(t, conflicts.HasConflicts)
	assert.Contains(t, conflicts.Message, "unavailable")
	assert.Len(t, slots.created, 1)
}

func TestCreateRecurring(t *testing.T) {
	slots := &fakeSlotStore{}
	rules := &fakeRuleStore{}
	svc := newTestService(slots, rules)

	end := mustDate(t, "2025-01-20")
	rule := &model.RecurrenceRule{
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2025-01-06"),
		EndDate:   &end,
		Weekdays:  []int{1}, // понедельник в UI-нумерации
		StartTime: "9:00",
		EndTime:   "10:00",
		TimeZone:  "Europe/Moscow",
	}

	count, err := svc.CreateRecurring(context.Background(), rule, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Правило ушло в хранилище с днями в нумерации хранилища
	require.Len(t, rules.created, 1)
	assert.Equal(t, []int{0}, rules.created[0].Weekdays)

	// Инстансы ссылаются на правило и несут нормализованное время
	require.Len(t, slots.batched, 1)
	instances := slots.batched[0]
	require.Len(t, instances, 3)
	for _, slot := range instances {
		require.NotNil(t, slot.RecurrenceID)
		assert.Equal(t, rule.ID, *slot.RecurrenceID)
		assert.Equal(t, "09:00", slot.StartTime)
		assert.Equal(t, model.SlotStatusAvailable, slot.Status)
	}
	assert.Equal(t, mustDate(t, "2025-01-06"), instances[0].Date)
	assert.Equal(t, mustDate(t, "2025-01-13"), instances[1].Date)
	assert.Equal(t, mustDate(t, "2025-01-20"), instances[2].Date)
}

func TestCreateRecurringEmptyRule(t *testing.T) {
	rules := &fakeRuleStore{}
	svc := newTestService(&fakeSlotStore{}, rules)

	// Один день диапазона, день недели не совпадает - ноль инстансов
	end := mustDate(t, "2025-01-07")
	rule := &model.RecurrenceRule{
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2025-01-06"),
		EndDate:   &end,
		Weekdays:  []int{5}, // пятница
		StartTime: "09:00",
		EndTime:   "10:00",
	}

	_, err := svc.CreateRecurring(context.Background(), rule, testNow)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "weekdays")
	assert.Empty(t, rules.created)
}

func TestCreateRecurringPersistenceErrorSurfaced(t *testing.T) {
	rules := &fakeRuleStore{createErr: errors.New("duplicate key")}
	svc := newTestService(&fakeSlotStore{}, rules)

	rule := &model.RecurrenceRule{
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2025-01-06"),
		Weekdays:  []int{1},
		StartTime: "09:00",
		EndTime:   "10:00",
	}

	_, err := svc.CreateRecurring(context.Background(), rule, testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestUpdateSlotValidatesTimePair(t *testing.T) {
	anchor := &model.TimeSlot{
		ID:        uuid.New(),
		Date:      mustDate(t, "2025-01-06"),
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	slots := &fakeSlotStore{anchor: anchor, updated: []*model.TimeSlot{anchor}}
	svc := newTestService(slots, &fakeRuleStore{})

	// Новый конец против старого начала: длительность превышена
	badEnd := "10:30"
	_, err := svc.UpdateSlot(context.Background(), anchor.ID, repository.SlotPatch{EndTime: &badEnd}, model.CascadeSingle)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "endTime")

	goodEnd := "09:45"
	updated, err := svc.UpdateSlot(context.Background(), anchor.ID, repository.SlotPatch{EndTime: &goodEnd}, model.CascadeFuture)
	require.NoError(t, err)
	assert.Len(t, updated, 1)
	assert.Equal(t, model.CascadeFuture, slots.lastCascade)
}

// seriesFixture - активное правило "понедельники 09:00-10:00" с якорным
// инстансом на заданную дату
func seriesFixture(t *testing.T, anchorDate string) (*fakeSlotStore, *fakeRuleStore, *model.TimeSlot) {
	t.Helper()

	end := mustDate(t, "2025-01-20")
	rule := &model.RecurrenceRule{
		ID:        uuid.New(),
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2025-01-06"),
		EndDate:   &end,
		Weekdays:  []int{0}, // понедельник в нумерации хранилища
		StartTime: "09:00",
		EndTime:   "10:00",
		IsActive:  true,
	}
	rules := &fakeRuleStore{
		active: []*model.RecurrenceRule{rule},
		byID:   map[uuid.UUID]*model.RecurrenceRule{rule.ID: rule},
	}

	anchor := &model.TimeSlot{
		ID:           uuid.New(),
		TutorID:      7,
		CourseID:     10,
		Date:         mustDate(t, anchorDate),
		StartTime:    "09:00",
		EndTime:      "10:00",
		Status:       model.SlotStatusAvailable,
		RecurrenceID: &rule.ID,
	}
	slots := &fakeSlotStore{anchor: anchor}

	return slots, rules, anchor
}

func TestDeleteSlotWarnsAboutBookings(t *testing.T) {
	slots, rules, anchor := seriesFixture(t, "2025-01-06")
	slots.deleted = 5
	slots.booked = 2
	svc := newTestService(slots, rules)

	result, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeAll)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Deleted)
	assert.Equal(t, 2, result.BookedAffected)
	assert.Contains(t, result.Warning, "2 booked")
	assert.Equal(t, model.CascadeAll, slots.lastCascade)
}

func TestDeleteSlotNoBookingsNoWarning(t *testing.T) {
	anchor := &model.TimeSlot{
		ID:        uuid.New(),
		TutorID:   7,
		Date:      mustDate(t, "2025-01-06"),
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	slots := &fakeSlotStore{anchor: anchor, deleted: 1}
	svc := newTestService(slots, &fakeRuleStore{})

	result, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeSingle)
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 1, slots.deleteCalls)
}

func TestDeleteSeriesAllStaysDeleted(t *testing.T) {
	slots, rules, anchor := seriesFixture(t, "2025-01-06")
	slots.deleted = 3
	svc := newTestService(slots, rules)

	result, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeAll)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Deleted)

	// Каскад all гасит само правило
	require.Len(t, rules.deactivated, 1)
	assert.Equal(t, *anchor.RecurrenceID, rules.deactivated[0])

	// Следующий проход материализатора серию не воскрешает
	created, err := svc.MaterializeActiveRules(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, slots.created)
}

func TestDeleteSeriesFutureCapsRuleHorizon(t *testing.T) {
	slots, rules, anchor := seriesFixture(t, "2025-01-13")
	slots.deleted = 2
	svc := newTestService(slots, rules)

	_, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeFuture)
	require.NoError(t, err)

	// Горизонт правила обрезан днём перед якорем
	ruleID := *anchor.RecurrenceID
	assert.Equal(t, mustDate(t, "2025-01-12"), rules.cappedEnd[ruleID])
	assert.Empty(t, rules.deactivated)

	// Материализатор досоздаёт только инстансы до нового горизонта
	created, err := svc.MaterializeActiveRules(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	assert.Equal(t, mustDate(t, "2025-01-06"), slots.created[0].Date)
}

func TestDeleteSeriesFutureFromStartDeactivates(t *testing.T) {
	slots, rules, anchor := seriesFixture(t, "2025-01-06")
	slots.deleted = 3
	svc := newTestService(slots, rules)

	// Якорь в начале серии: future вырождается в полную деактивацию
	_, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeFuture)
	require.NoError(t, err)
	require.Len(t, rules.deactivated, 1)
	assert.Empty(t, rules.cappedEnd)

	created, err := svc.MaterializeActiveRules(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestDeleteSingleSeriesInstanceLeavesTombstone(t *testing.T) {
	slots, rules, anchor := seriesFixture(t, "2025-01-13")
	svc := newTestService(slots, rules)

	result, err := svc.DeleteSlot(context.Background(), anchor.ID, model.CascadeSingle)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)

	// Инстанс серии не удаляется физически, а отменяется: cancelled-строка
	// подавляет повторную материализацию на этой дате
	assert.Zero(t, slots.deleteCalls)
	require.NotNil(t, slots.lastPatch.Status)
	assert.Equal(t, model.SlotStatusCancelled, *slots.lastPatch.Status)

	// Правило живо: остальные инстансы серии не затронуты
	assert.Empty(t, rules.deactivated)
	assert.Empty(t, rules.cappedEnd)
}

func TestExpandRecurrence(t *testing.T) {
	svc := newTestService(&fakeSlotStore{}, &fakeRuleStore{})

	end := mustDate(t, "2025-01-20")
	rule := &model.RecurrenceRule{
		StartDate: mustDate(t, "2025-01-06"),
		EndDate:   &end,
		Weekdays:  []int{1},
	}

	dates, err := svc.ExpandRecurrence(rule)
	require.NoError(t, err)
	assert.Len(t, dates, 3)

	rule.Weekdays = []int{5}
	end = mustDate(t, "2025-01-07")
	_, err = svc.ExpandRecurrence(rule)
	assert.ErrorIs(t, err, schedule.ErrEmptyRule)
}

func TestGetRulesConvertsWeekdaysToUI(t *testing.T) {
	rules := &fakeRuleStore{byTutor: []*model.RecurrenceRule{
		{Weekdays: []int{0, 6}}, // понедельник и воскресенье в нумерации хранилища
	}}
	svc := newTestService(&fakeSlotStore{}, rules)

	got, err := svc.GetRules(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int{0, 1}, got[0].Weekdays)
}

func TestMaterializeActiveRules(t *testing.T) {
	end := mustDate(t, "2025-01-20")
	rules := &fakeRuleStore{active: []*model.RecurrenceRule{{
		ID:        uuid.New(),
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2024-12-29"),
		EndDate:   &end,
		Weekdays:  []int{0}, // понедельник в нумерации хранилища
		StartTime: "09:00",
		EndTime:   "10:00",
		IsActive:  true,
	}}}
	slots := &fakeSlotStore{}
	svc := newTestService(slots, rules)

	created, err := svc.MaterializeActiveRules(context.Background(), testNow)
	require.NoError(t, err)

	// Понедельники в [2024-12-29, 2025-01-20], но не раньше "сегодня" 2025-01-01
	assert.Equal(t, 3, created)
	require.Len(t, slots.created, 3)
	assert.Equal(t, mustDate(t, "2025-01-06"), slots.created[0].Date)
}

func TestMaterializeSkipsExisting(t *testing.T) {
	end := mustDate(t, "2025-01-20")
	rules := &fakeRuleStore{active: []*model.RecurrenceRule{{
		ID:        uuid.New(),
		TutorID:   7,
		CourseID:  10,
		StartDate: mustDate(t, "2025-01-06"),
		EndDate:   &end,
		Weekdays:  []int{0},
		StartTime: "09:00",
		EndTime:   "10:00",
		IsActive:  true,
	}}}
	slots := &fakeSlotStore{exists: true}
	svc := newTestService(slots, rules)

	created, err := svc.MaterializeActiveRules(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, slots.created)
}
