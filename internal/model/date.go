package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date представляет календарную дату без времени и часового пояса.
// Вся арифметика выполняется по полям даты (год/месяц/день), без
// преобразования в time.Time - это исключает сдвиг дня на границах поясов.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// ParseDate разбирает дату в формате "2006-01-02"
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	d := Date{Year: year, Month: month, Day: day}
	if !d.IsValid() {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}

	return d, nil
}

// DateOf возвращает календарную дату момента t в его собственной локации
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: int(month), Day: day}
}

// IsValid проверяет что дата существует в календаре
func (d Date) IsValid() bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	return d.Day >= 1 && d.Day <= daysInMonth(d.Year, d.Month)
}

// String форматирует дату как "2006-01-02"
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// NextDay возвращает следующий календарный день с переносом через
// границы месяца и года
func (d Date) NextDay() Date {
	d.Day++
	if d.Day > daysInMonth(d.Year, d.Month) {
		d.Day = 1
		d.Month++
		if d.Month > 12 {
			d.Month = 1
			d.Year++
		}
	}
	return d
}

// PrevDay возвращает предыдущий календарный день с переносом через
// границы месяца и года
func (d Date) PrevDay() Date {
	d.Day--
	if d.Day < 1 {
		d.Month--
		if d.Month < 1 {
			d.Month = 12
			d.Year--
		}
		d.Day = daysInMonth(d.Year, d.Month)
	}
	return d
}

// AddDays возвращает дату через n дней (n >= 0)
func (d Date) AddDays(n int) Date {
	for i := 0; i < n; i++ {
		d = d.NextDay()
	}
	return d
}

// AddMonths возвращает дату через n календарных месяцев.
// День обрезается до последнего дня месяца (31 января + 1 месяц = 28/29 февраля).
func (d Date) AddMonths(n int) Date {
	month := d.Month - 1 + n
	year := d.Year + month/12
	month = month%12 + 1

	day := d.Day
	if max := daysInMonth(year, month); day > max {
		day = max
	}

	return Date{Year: year, Month: month, Day: day}
}

// Weekday возвращает день недели в UI-нумерации (0 = воскресенье, как у
// браузерного Date.getDay), вычисленный по формуле Сакамото - только из
// полей даты, без участия часовых поясов
func (d Date) Weekday() int {
	t := [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}
	y := d.Year
	if d.Month < 3 {
		y--
	}
	return (y + y/4 - y/100 + y/400 + t[d.Month-1] + d.Day) % 7
}

// Compare возвращает -1, 0 или 1 при сравнении дат
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(d.Month - other.Month)
	default:
		return sign(d.Day - other.Day)
	}
}

// Before проверяет что дата строго раньше other
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After проверяет что дата строго позже other
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Equal проверяет что даты совпадают
func (d Date) Equal(other Date) bool {
	return d == other
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
