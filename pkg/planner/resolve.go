package planner

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ResolveType returns the type name an event is classified under: the type with exactly
// the event's type name, else the first type whose color matches the event's stored color,
// else the event's own type string.
func ResolveType(e Event, types []EventType) string {
	for _, t := range types {
		if t.Name == e.Type {
			return t.Name
		}
	}
	color := normalizeColor(e.Color)
	for _, t := range types {
		if normalizeColor(t.Color) == color {
			return t.Name
		}
	}
	return e.Type
}

// IsExcluded reports whether days of the given resolved type never count against the budget.
func IsExcluded(typeName string) bool {
	_, ok := excludedTypes[typeName]
	return ok
}

// Weight is the budget cost of one working day of the given resolved type.
func Weight(typeName string) decimal.Decimal {
	if typeName == HalfDayLeaveType {
		return halfDay
	}
	return decimal.NewFromInt(1)
}

func isOrphan(e Event, types []EventType) bool {
	for _, t := range types {
		if t.Name == e.Type {
			return false
		}
	}
	return true
}

func normalizeColor(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func findType(types []EventType, name string) int {
	for i, t := range types {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func hasTypeFold(types []EventType, name string) bool {
	for _, t := range types {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}
