package workday

import (
	"github.com/verlofplanner/verlof/pkg/date"
)

// HolidaySet is a lookup of non-working holiday dates.
type HolidaySet map[date.Date]struct{}

func NewHolidaySet(holidays []date.Date) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return set
}

func (s HolidaySet) Contains(d date.Date) bool {
	_, ok := s[d]
	return ok
}

// IsWorkingDay reports whether d is neither a weekend day nor a holiday.
func IsWorkingDay(d date.Date, holidays HolidaySet) bool {
	return !d.IsWeekend() && !holidays.Contains(d)
}

// CalculateWorkingDays counts the days in the inclusive range [start, end] that are not
// Saturday, Sunday or one of holidays. It returns 0 when start is after end.
func CalculateWorkingDays(start, end date.Date, holidays []date.Date) int {
	return CountWorkingDays(start, end, NewHolidaySet(holidays))
}

// CountWorkingDays is CalculateWorkingDays for a prepared HolidaySet.
func CountWorkingDays(start, end date.Date, holidays HolidaySet) int {
	workingDays := 0
	for current := start; !current.After(end); current = current.AddDays(1) {
		if IsWorkingDay(current, holidays) {
			workingDays++
		}
	}
	return workingDays
}
