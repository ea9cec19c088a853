// Package holiday generates the Belgian public holidays and the Flemish school-vacation
// ranges for a given year. All functions are pure.
package holiday

import (
	"time"

	"github.com/verlofplanner/verlof/pkg/date"
)

// Holiday is a single named public holiday.
type Holiday struct {
	Name string    `json:"name"`
	Date date.Date `json:"date"`
}

// Range is a named inclusive date range, used for school vacations.
type Range struct {
	Name      string    `json:"name"`
	StartDate date.Date `json:"startDate"`
	EndDate   date.Date `json:"endDate"`
}

// Easter returns Gregorian Easter Sunday using Oudin's congruence (integer arithmetic only).
func Easter(year int) date.Date {
	g := year % 19
	c := year / 100
	// epact
	h := (c - c/4 - (8*c+13)/25 + 19*g + 15) % 30
	// days from March 21 to the Paschal full moon
	i := h - (h/28)*(1-(29/(h+1))*((21-g)/11))
	// weekday of the Paschal full moon
	j := (year + year/4 + i + 2 - c + c/4) % 7
	l := i - j

	month := 3 + (l+40)/44
	day := l + 28 - 31*(month/4)

	return date.New(year, time.Month(month), day)
}

// PublicHolidays returns the twelve public holidays of year in calendar order.
func PublicHolidays(year int) []Holiday {
	easter := Easter(year)
	return []Holiday{
		{Name: "Nieuwjaar", Date: date.New(year, time.January, 1)},
		{Name: "Pasen", Date: easter},
		{Name: "Paasmaandag", Date: easter.AddDays(1)},
		{Name: "Dag van de Arbeid", Date: date.New(year, time.May, 1)},
		{Name: "O.L.H. Hemelvaart", Date: easter.AddDays(39)},
		{Name: "Pinksteren", Date: easter.AddDays(49)},
		{Name: "Pinkstermaandag", Date: easter.AddDays(50)},
		{Name: "Nationale feestdag", Date: date.New(year, time.July, 21)},
		{Name: "O.L.V. Hemelvaart", Date: date.New(year, time.August, 15)},
		{Name: "Allerheiligen", Date: date.New(year, time.November, 1)},
		{Name: "Wapenstilstand", Date: date.New(year, time.November, 11)},
		{Name: "Kerstmis", Date: date.New(year, time.December, 25)},
	}
}

// SchoolHolidays returns the five school vacations of year.
func SchoolHolidays(year int) []Range {
	easter := Easter(year)

	var springStart date.Date
	if easter.After(date.New(year, time.April, 15)) {
		springStart = easter.AddDays(1)
	} else {
		springStart = firstMonday(date.New(year, time.April, 1))
	}

	christmas := date.New(year, time.December, 25)
	christmasStart := christmas.AddDays(-mondayOffset(christmas))

	return []Range{
		span("Krokusvakantie", ISOWeekStart(year, 9), 7),
		span("Paasvakantie", springStart, 14),
		{Name: "Zomervakantie", StartDate: date.New(year, time.July, 1), EndDate: date.New(year, time.August, 31)},
		span("Herfstvakantie", ISOWeekStart(year, 44), 7),
		span("Kerstvakantie", christmasStart, 14),
	}
}

// ISOWeekStart returns the Monday of the given ISO week. Week 1 is the week containing January 4.
func ISOWeekStart(year, week int) date.Date {
	jan4 := date.New(year, time.January, 4)
	week1 := jan4.AddDays(-mondayOffset(jan4))
	return week1.AddDays((week - 1) * 7)
}

// Dates returns the dates of the given holidays.
func Dates(holidays []Holiday) []date.Date {
	dates := make([]date.Date, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return dates
}

// PublicHolidayDates returns the public holiday dates of every year in [fromYear, toYear].
func PublicHolidayDates(fromYear, toYear int) []date.Date {
	var dates []date.Date
	for year := fromYear; year <= toYear; year++ {
		dates = append(dates, Dates(PublicHolidays(year))...)
	}
	return dates
}

// mondayOffset is the number of days since the last Monday (Monday=0 .. Sunday=6).
func mondayOffset(d date.Date) int {
	return (int(d.Weekday()) + 6) % 7
}

func firstMonday(d date.Date) date.Date {
	return d.AddDays((7 - mondayOffset(d)) % 7)
}

func span(name string, start date.Date, days int) Range {
	return Range{Name: name, StartDate: start, EndDate: start.AddDays(days - 1)}
}
