package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

// Рабочее окно репетитора и ограничение длительности слота.
// Все сравнения времени ведутся в минутах от полуночи - никаких
// дат и часовых поясов на этом уровне.
const (
	OperatingOpenMinutes   = 6 * 60  // 06:00 - раньше слоты не начинаются
	LastStartMinutes       = 21 * 60 // начало строго до 21:00
	OperatingCloseMinutes  = 22 * 60 // конец не позже 22:00
	MaxSlotDurationMinutes = 60
)

// maxDurationHours - допуск 0.01 часа гасит погрешность плавающей
// точки при пересчёте минут в десятичные часы
const maxDurationHours = 1.01

var clockRe = regexp.MustCompile(`^([0-2]?[0-9]):([0-5][0-9])$`)

// ParseClock разбирает время "HH:MM" в минуты от полуночи
func ParseClock(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrTimeFormat, s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrTimeFormat, s)
	}

	return hour*60 + minute, nil
}

// FormatClock форматирует минуты от полуночи как "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidateStartMinutes проверяет что начало слота попадает в рабочее окно [06:00, 21:00)
func ValidateStartMinutes(minutes int) error {
	if minutes < OperatingOpenMinutes || minutes >= LastStartMinutes {
		return fmt.Errorf("%w: start %s, want [%s, %s)", ErrTimeOutOfRange,
			FormatClock(minutes), FormatClock(OperatingOpenMinutes), FormatClock(LastStartMinutes))
	}
	return nil
}

// ValidateEndMinutes проверяет что конец слота попадает в рабочее окно (06:00, 22:00]
func ValidateEndMinutes(minutes int) error {
	if minutes <= OperatingOpenMinutes || minutes > OperatingCloseMinutes {
		return fmt.Errorf("%w: end %s, want (%s, %s]", ErrTimeOutOfRange,
			FormatClock(minutes), FormatClock(OperatingOpenMinutes), FormatClock(OperatingCloseMinutes))
	}
	return nil
}

// ValidateClockRange проверяет порядок и длительность интервала
func ValidateClockRange(startMinutes, endMinutes int) error {
	if startMinutes >= endMinutes {
		return fmt.Errorf("%w: %s >= %s", ErrTimeOrder,
			FormatClock(startMinutes), FormatClock(endMinutes))
	}

	hours := float64(endMinutes-startMinutes) / 60.0
	if hours > maxDurationHours {
		return fmt.Errorf("%w: %.2fh", ErrDuration, hours)
	}

	return nil
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов.
// Соприкасающиеся границы (endA == startB) пересечением не считаются.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && endA > startB
}
