package main

// Утилита для ручной проверки отрисовки недельной сетки:
// генерирует тестовые слоты и сохраняет PNG в week_grid.png

import (
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/render"
	"github.com/Freeeeeet/tutor_availability/internal/schedule"
	"github.com/google/uuid"
)

func main() {
	// Начинаем с ближайшего понедельника
	weekStart := model.DateOf(time.Now())
	if iso := schedule.ToStorageWeekday(weekStart.Weekday()); iso != 0 {
		weekStart = weekStart.AddDays(7 - iso)
	}

	slots := []*model.TimeSlot{
		slot(weekStart, "09:00", "10:00", model.SlotStatusAvailable),
		slot(weekStart, "14:00", "15:00", model.SlotStatusBooked),
		slot(weekStart.AddDays(1), "10:00", "11:00", model.SlotStatusAvailable),
		slot(weekStart.AddDays(1), "16:00", "17:00", model.SlotStatusCancelled),
		slot(weekStart.AddDays(2), "11:00", "12:00", model.SlotStatusCompleted),
		slot(weekStart.AddDays(4), "18:00", "19:00", model.SlotStatusConflict),
		slot(weekStart.AddDays(5), "09:00", "10:00", model.SlotStatusAvailable),
	}

	png, err := render.WeekGrid(slots, weekStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render week grid: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("week_grid.png", png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write week_grid.png: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("week_grid.png written")
}

func slot(date model.Date, start, end string, status model.SlotStatus) *model.TimeSlot {
	return &model.TimeSlot{
		ID:        uuid.New(),
		TutorID:   1,
		CourseID:  1,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		TimeZone:  "Europe/Moscow",
		Status:    status,
	}
}
