package schedule

import (
	"fmt"
	"sort"
)

// Две несовместимые нумерации дней недели живут в соседних подсистемах:
// фронтенд использует нумерацию браузерного Date.getDay (0 = воскресенье),
// хранилище - ISO-нумерацию (0 = понедельник). Вся конвертация изолирована
// здесь, ни одна из нумераций не должна просачиваться за свой слой.

// ToStorageWeekday конвертирует день недели из UI-нумерации в нумерацию хранилища
func ToStorageWeekday(uiIndex int) int {
	assertWeekday(uiIndex)
	return (uiIndex + 6) % 7
}

// ToUIWeekday конвертирует день недели из нумерации хранилища в UI-нумерацию
func ToUIWeekday(storageIndex int) int {
	assertWeekday(storageIndex)
	return (storageIndex + 1) % 7
}

// ToStorageWeekdays конвертирует список дней в нумерацию хранилища.
// Результат отсортирован по возрастанию - порядок не несёт смысла,
// но детерминированный вывод проще сравнивать.
func ToStorageWeekdays(uiIndexes []int) []int {
	result := make([]int, 0, len(uiIndexes))
	for _, day := range uiIndexes {
		result = append(result, ToStorageWeekday(day))
	}
	sort.Ints(result)
	return result
}

// ToUIWeekdays конвертирует список дней в UI-нумерацию, результат отсортирован
func ToUIWeekdays(storageIndexes []int) []int {
	result := make([]int, 0, len(storageIndexes))
	for _, day := range storageIndexes {
		result = append(result, ToUIWeekday(day))
	}
	sort.Ints(result)
	return result
}

// UIWeekdayName возвращает английское название дня в UI-нумерации (0 = Sunday)
func UIWeekdayName(uiIndex int) string {
	assertWeekday(uiIndex)
	names := []string{
		"Sunday",
		"Monday",
		"Tuesday",
		"Wednesday",
		"Thursday",
		"Friday",
		"Saturday",
	}
	return names[uiIndex]
}

// assertWeekday - индексы вне [0,6] это нарушение контракта вызывающим
func assertWeekday(index int) {
	if index < 0 || index > 6 {
		panic(fmt.Sprintf("weekday index out of range: %d", index))
	}
}
