package model

// ConflictCheckResult содержит результат проверки пересечений кандидата
// с существующими слотами. Проверка носит рекомендательный характер:
// Message заполняется и при деградации (когда список слотов недоступен).
type ConflictCheckResult struct {
	HasConflicts bool        `json:"has_conflicts"`
	Conflicts    []*TimeSlot `json:"conflicts"`
	Message      string      `json:"message"`
}

// AvailabilityStats содержит производные метрики расписания для дашборда.
// Никогда не сохраняется - это чистая функция от текущего списка слотов,
// момента "сейчас" и почасовой ставки.
type AvailabilityStats struct {
	TotalSlots        int `json:"total_slots"`
	BookedSlots       int `json:"booked_slots"`
	CompletedSessions int `json:"completed_sessions"`
	RecurringSlots    int `json:"recurring_slots"`
	UpcomingSlots     int `json:"upcoming_slots"`
	Conflicts         int `json:"conflicts"`
	CourseTypes       int `json:"course_types"`

	AvailableHours float64 `json:"available_hours"` // одна десятичная
	WeeklyHours    float64 `json:"weekly_hours"`    // одна десятичная

	UtilizationRate int `json:"utilization_rate"` // проценты, целое
	CompletionRate  int `json:"completion_rate"`  // проценты, целое

	EstimatedWeeklyEarnings float64 `json:"estimated_weekly_earnings"`

	PeakPeriod     string `json:"peak_period"`      // morning / afternoon / evening
	MostActiveHour string `json:"most_active_hour"` // "09:00" или "N/A"
	MostActiveDay  string `json:"most_active_day"`  // "Monday" или "N/A"

	// HourlyBreakdown[h] - сколько слотов затрагивают час h.
	HourlyBreakdown [24]int `json:"hourly_breakdown"`
	// DailyHours в ISO-нумерации дней (0 = понедельник).
	DailyHours [7]float64 `json:"daily_hours"`
}
