package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthStats struct {
	Month time.Month
	Days  decimal.Decimal
	// ByType holds the counted days per resolved event type, keyed by type name.
	ByType map[string]decimal.Decimal
}

type StatsSummary struct {
	Year      int
	Months    []MonthStats
	Types     []string
	Budget    decimal.Decimal
	Planned   decimal.Decimal
	Remaining decimal.Decimal
	// InYear is the part of Planned that falls in Year.
	InYear decimal.Decimal
}
