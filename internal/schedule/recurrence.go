package schedule

import (
	"fmt"

	"github.com/Freeeeeet/tutor_availability/internal/model"
)

// defaultRuleMonths - горизонт правила без явной даты окончания
const defaultRuleMonths = 3

// ResolveEndDate возвращает дату окончания правила: явную, либо
// startDate + 3 календарных месяца. Вычисляется один раз перед
// развёрткой, а не на каждом шаге.
func ResolveEndDate(startDate model.Date, endDate *model.Date) model.Date {
	if endDate != nil {
		return *endDate
	}
	return startDate.AddMonths(defaultRuleMonths)
}

// ExpandRule разворачивает правило повторения в упорядоченный список
// календарных дат от startDate до endDate включительно.
//
// Развёртка идёт чистой арифметикой полей даты: кандидаты перебираются
// по одному календарному дню, день недели каждого кандидата вычисляется
// из самих полей даты. Ни одна дата не проходит через time.Time -
// конвертация в момент времени с часовым поясом сдвигает день на
// границе суток, и именно этот дефект здесь запрещён.
//
// weekdays задаются в UI-нумерации (0 = воскресенье). Пустой результат
// не является ошибкой развёртки - вызывающий обязан трактовать его как
// ErrEmptyRule.
func ExpandRule(startDate model.Date, endDate *model.Date, weekdays []int) []model.Date {
	wanted := make(map[int]bool, len(weekdays))
	for _, day := range weekdays {
		assertWeekday(day)
		wanted[day] = true
	}

	end := ResolveEndDate(startDate, endDate)

	var dates []model.Date
	for d := startDate; !d.After(end); d = d.NextDay() {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}

	return dates
}

// ValidateRule проверяет форму правила повторения до развёртки
func ValidateRule(rule *model.RecurrenceRule) error {
	if len(rule.Weekdays) == 0 {
		return fmt.Errorf("%w: weekdays are empty", ErrEmptyRule)
	}
	for _, day := range rule.Weekdays {
		if day < 0 || day > 6 {
			return fmt.Errorf("invalid weekday index %d", day)
		}
	}

	if !rule.StartDate.IsValid() {
		return fmt.Errorf("invalid start date %s", rule.StartDate)
	}
	if rule.EndDate != nil {
		if !rule.EndDate.IsValid() {
			return fmt.Errorf("invalid end date %s", rule.EndDate)
		}
		if !rule.EndDate.After(rule.StartDate) {
			return fmt.Errorf("end date %s is not after start date %s", rule.EndDate, rule.StartDate)
		}
	}

	return nil
}
