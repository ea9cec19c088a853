package stats

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/pkg/planner"
)

// LeaveSource gives read access to the planner state.
type LeaveSource interface {
	Snapshot() planner.Snapshot
	CurrentYear() int
}

type StatsService interface {
	GetStats(ctx context.Context) (StatsSummary, error)
}

type StatsServiceImpl struct {
	source LeaveSource
}

func NewStatsServiceImpl(source LeaveSource) *StatsServiceImpl {
	return &StatsServiceImpl{source: source}
}

func (s *StatsServiceImpl) GetStats(ctx context.Context) (StatsSummary, error) {
	snapshot := s.source.Snapshot()
	year := s.source.CurrentYear()

	leave := planner.ComputeLeaveDayStats(snapshot)
	total := planner.ComputeMonthlyLeaveStats(snapshot, year)

	byType := make(map[string]planner.Snapshot)
	var types []string
	for _, e := range snapshot.Events {
		resolved := planner.ResolveType(e, snapshot.EventTypes)
		if planner.IsExcluded(resolved) {
			continue
		}
		sub, ok := byType[resolved]
		if !ok {
			types = append(types, resolved)
			sub = planner.Snapshot{EventTypes: snapshot.EventTypes, Budget: snapshot.Budget}
		}
		sub.Events = append(sub.Events, e)
		byType[resolved] = sub
	}
	slices.Sort(types)

	perType := make(map[string]planner.MonthlyStats, len(types))
	for _, name := range types {
		perType[name] = planner.ComputeMonthlyLeaveStats(byType[name], year)
	}

	months := make([]MonthStats, 0, 12)
	for i := range total {
		month := MonthStats{
			Month:  time.Month(i + 1),
			Days:   total[i],
			ByType: make(map[string]decimal.Decimal, len(types)),
		}
		for _, name := range types {
			month.ByType[name] = perType[name][i]
		}
		months = append(months, month)
	}
	log.Debugf("computed leave stats for %d: %d counted types", year, len(types))

	return StatsSummary{
		Year:      year,
		Months:    months,
		Types:     types,
		Budget:    leave.Total,
		Planned:   leave.Planned,
		Remaining: leave.Remaining,
		InYear:    total.Total(),
	}, nil
}
