package schedule

import (
	"math"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/model"
)

// Периоды дня для пиковой загрузки, по часу начала слота:
// [6,12) - morning, [12,18) - afternoon, [18,21] - evening.
const (
	PeakPeriodMorning   = "morning"
	PeakPeriodAfternoon = "afternoon"
	PeakPeriodEvening   = "evening"
)

// ComputeStats вычисляет производные метрики расписания по списку слотов.
// Чистая функция: "сейчас" и почасовая ставка передаются явно, никакого
// скрытого состояния - два вызова на одном списке дают одинаковый результат.
func ComputeStats(slots []*model.TimeSlot, now time.Time, hourlyRate float64) *model.AvailabilityStats {
	stats := &model.AvailabilityStats{
		TotalSlots:     len(slots),
		PeakPeriod:     "N/A",
		MostActiveHour: "N/A",
		MostActiveDay:  "N/A",
	}

	today := model.DateOf(now)
	weekEnd := today.AddDays(7)

	var availableHours, weeklyHours float64
	var morningHours, afternoonHours, eveningHours float64
	courses := make(map[int64]bool)

	for _, slot := range slots {
		courses[slot.CourseID] = true

		switch slot.Status {
		case model.SlotStatusBooked:
			stats.BookedSlots++
		case model.SlotStatusCompleted:
			stats.CompletedSessions++
		case model.SlotStatusConflict:
			stats.Conflicts++
		}

		if slot.IsRecurring() {
			stats.RecurringSlots++
		}

		startMinutes, err := ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		endMinutes, err := ParseClock(slot.EndTime)
		if err != nil {
			continue
		}

		hours := float64(endMinutes-startMinutes) / 60.0
		availableHours += hours

		// Гистограмма часов: слот 09:30-10:30 затрагивает часы 9 и 10
		for h := startMinutes / 60; h <= (endMinutes-1)/60 && h < 24; h++ {
			stats.HourlyBreakdown[h]++
		}

		stats.DailyHours[ToStorageWeekday(slot.Date.Weekday())] += hours

		switch startHour := startMinutes / 60; {
		case startHour >= 6 && startHour < 12:
			morningHours += hours
		case startHour >= 12 && startHour < 18:
			afternoonHours += hours
		case startHour >= 18 && startHour <= 21:
			eveningHours += hours
		}

		if !slot.Date.Before(today) && !slot.Date.After(weekEnd) {
			stats.UpcomingSlots++
			weeklyHours += hours
		}
	}

	stats.CourseTypes = len(courses)
	stats.AvailableHours = roundHours(availableHours)
	stats.WeeklyHours = roundHours(weeklyHours)
	stats.EstimatedWeeklyEarnings = stats.WeeklyHours * hourlyRate

	if stats.TotalSlots > 0 {
		stats.UtilizationRate = roundPercent(stats.BookedSlots, stats.TotalSlots)
	}
	if stats.BookedSlots > 0 {
		stats.CompletionRate = roundPercent(stats.CompletedSessions, stats.BookedSlots)
	}

	stats.MostActiveHour = mostActiveHour(stats.HourlyBreakdown)
	stats.MostActiveDay = mostActiveDay(stats.DailyHours)
	stats.PeakPeriod = peakPeriod(morningHours, afternoonHours, eveningHours)

	return stats
}

// mostActiveHour - первый максимум при проходе по возрастанию часа
func mostActiveHour(breakdown [24]int) string {
	best, bestHour := 0, -1
	for h := 0; h < 24; h++ {
		if breakdown[h] > best {
			best = breakdown[h]
			bestHour = h
		}
	}
	if bestHour < 0 {
		return "N/A"
	}
	return FormatClock(bestHour * 60)
}

// mostActiveDay - первый максимум при проходе от понедельника
// (DailyHours индексированы в ISO-нумерации, 0 = понедельник)
func mostActiveDay(daily [7]float64) string {
	best, bestDay := 0.0, -1
	for day := 0; day < 7; day++ {
		if daily[day] > best {
			best = daily[day]
			bestDay = day
		}
	}
	if bestDay < 0 {
		return "N/A"
	}
	return UIWeekdayName(ToUIWeekday(bestDay))
}

// peakPeriod выбирает период с наибольшей суммой часов.
// При равенстве побеждает afternoon, затем morning, затем evening -
// порядок сохранён ради совместимости поведения.
func peakPeriod(morning, afternoon, evening float64) string {
	if morning == 0 && afternoon == 0 && evening == 0 {
		return "N/A"
	}

	period, best := PeakPeriodAfternoon, afternoon
	if morning > best {
		period, best = PeakPeriodMorning, morning
	}
	if evening > best {
		period = PeakPeriodEvening
	}
	return period
}

func roundHours(hours float64) float64 {
	return math.Round(hours*10) / 10
}

func roundPercent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
