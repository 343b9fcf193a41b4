package schedule

import "errors"

// Ошибки валидации расписания. Все они разрешаются локально и
// возвращаются вызывающему до какого-либо обращения к хранилищу.
var (
	ErrTimeFormat     = errors.New("invalid time format, want HH:MM")
	ErrTimeOutOfRange = errors.New("time outside operating hours")
	ErrTimeOrder      = errors.New("end time must be after start time")
	ErrDuration       = errors.New("slot duration exceeds one hour")
	ErrEmptyRule      = errors.New("recurrence rule produces no instances")
	ErrPastDate       = errors.New("date is in the past")
)
