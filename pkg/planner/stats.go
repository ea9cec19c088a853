package planner

import (
	"github.com/shopspring/decimal"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/holiday"
	"github.com/verlofplanner/verlof/pkg/workday"
)

// holidayCalendar lazily collects public holidays per year.
type holidayCalendar struct {
	set   workday.HolidaySet
	years map[int]bool
}

func newHolidayCalendar() *holidayCalendar {
	return &holidayCalendar{set: workday.HolidaySet{}, years: map[int]bool{}}
}

func (c *holidayCalendar) covering(from, to int) workday.HolidaySet {
	for year := from; year <= to; year++ {
		if c.years[year] {
			continue
		}
		c.years[year] = true
		for _, d := range holiday.Dates(holiday.PublicHolidays(year)) {
			c.set[d] = struct{}{}
		}
	}
	return c.set
}

// ComputeLeaveDayStats sums the working days of every event not classified under an
// excluded type. Each event's range is checked against the public holidays of the years
// it spans. Events with invalid dates are skipped.
func ComputeLeaveDayStats(s Snapshot) LeaveDayStats {
	planned := decimal.Zero
	holidays := newHolidayCalendar()

	for _, e := range s.Events {
		resolved := ResolveType(e, s.EventTypes)
		if IsExcluded(resolved) {
			continue
		}
		start, end, ok := e.Range()
		if !ok {
			continue
		}
		days := workday.CountWorkingDays(start, end, holidays.covering(start.Year(), end.Year()))
		planned = planned.Add(Weight(resolved).Mul(decimal.NewFromInt(int64(days))))
	}

	return LeaveDayStats{
		Total:     s.Budget,
		Planned:   planned,
		Remaining: s.Budget.Sub(planned),
	}
}

// ComputeMonthlyLeaveStats distributes the counted working days of year over its months.
// Days of an event outside year are ignored.
func ComputeMonthlyLeaveStats(s Snapshot, year int) MonthlyStats {
	var stats MonthlyStats
	for i := range stats {
		stats[i] = decimal.Zero
	}
	holidays := workday.NewHolidaySet(holiday.Dates(holiday.PublicHolidays(year)))
	first, last := date.StartOfYear(year), date.EndOfYear(year)

	for _, e := range s.Events {
		resolved := ResolveType(e, s.EventTypes)
		if IsExcluded(resolved) {
			continue
		}
		start, end, ok := e.Range()
		if !ok {
			continue
		}
		if start.Before(first) {
			start = first
		}
		if end.After(last) {
			end = last
		}
		weight := Weight(resolved)
		for d := start; !d.After(end); d = d.AddDays(1) {
			if workday.IsWorkingDay(d, holidays) {
				stats[d.Month()-1] = stats[d.Month()-1].Add(weight)
			}
		}
	}
	return stats
}

// Total returns the sum over all months.
func (m MonthlyStats) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}
