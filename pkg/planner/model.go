package planner

import (
	"github.com/shopspring/decimal"
	"github.com/verlofplanner/verlof/pkg/date"
)

// Keys of the persisted planner records.
const (
	EventsKey      = "calendarEvents"
	EventTypesKey  = "calendarEventTypes"
	HiddenTypesKey = "hiddenEventTypes"
	BudgetKey      = "totalLeaveDays"
)

// RecordKeys lists every record owned by the planner.
var RecordKeys = []string{EventsKey, EventTypesKey, HiddenTypesKey, BudgetKey}

const (
	LegalHolidayType  = "Wettelijke feestdag"
	SchoolHolidayType = "Schoolvakantie"
	LeaveType         = "Verlof"
	HalfDayLeaveType  = "Halve dag verlof"
	VeniseType        = "Venise"
	RaceType          = "Loopwedstrijd"
	NotCountedType    = "Telt niet mee"
	NotCountedPrivate = "Telt niet mee (privé)"
)

var excludedTypes = map[string]struct{}{
	LegalHolidayType:  {},
	SchoolHolidayType: {},
	NotCountedType:    {},
	NotCountedPrivate: {},
	RaceType:          {},
}

var halfDay = decimal.NewFromFloat(0.5)

// Event is one leave or activity entry. Dates are kept in their persisted YYYY-MM-DD
// form so a record with a malformed date survives loading and is only left out of the
// computations.
type Event struct {
	ID         string `json:"id"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Type       string `json:"type"`
	Color      string `json:"color"`
	CustomName string `json:"customName,omitempty"`
}

// Range returns the parsed inclusive date range. ok is false when either date is invalid.
func (e Event) Range() (start, end date.Date, ok bool) {
	start, err := date.Parse(e.StartDate)
	if err != nil {
		return date.Date{}, date.Date{}, false
	}
	end, err = date.Parse(e.EndDate)
	if err != nil {
		return date.Date{}, date.Date{}, false
	}
	return start, end, true
}

// Covers reports whether d lies within the event's range.
func (e Event) Covers(d date.Date) bool {
	start, end, ok := e.Range()
	return ok && d.Between(start, end)
}

// NewEvent holds the caller supplied fields of an event about to be created.
type NewEvent struct {
	StartDate  date.Date
	EndDate    date.Date
	Type       string
	Color      string
	CustomName string
}

type EventType struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultEventTypes returns the types seeded on first run, in legend order.
func DefaultEventTypes() []EventType {
	return []EventType{
		{Name: LegalHolidayType, Color: "#D32F2F"},
		{Name: SchoolHolidayType, Color: "#7B1FA2"},
		{Name: LeaveType, Color: "#1976D2"},
		{Name: HalfDayLeaveType, Color: "#64B5F6"},
		{Name: VeniseType, Color: "#388E3C"},
		{Name: RaceType, Color: "#FBC02D"},
		{Name: NotCountedType, Color: "#9E9E9E"},
		{Name: NotCountedPrivate, Color: "#795548"},
	}
}

type LeaveDayStats struct {
	Total     decimal.Decimal
	Planned   decimal.Decimal
	Remaining decimal.Decimal
}

// MonthlyStats holds the leave days per month, January first.
type MonthlyStats [12]decimal.Decimal

// Snapshot is a copy of the planner state at one point in time.
type Snapshot struct {
	Events      []Event
	EventTypes  []EventType
	HiddenTypes []string
	Budget      decimal.Decimal
}
