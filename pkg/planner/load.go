package planner

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/pkg/holiday"
	"github.com/verlofplanner/verlof/pkg/storage"
)

// Load restores the planner state from the repository. Missing or malformed records fall
// back to their defaults. When neither events nor event types are stored, the default
// types and the holidays of the current year are seeded and persisted.
func (p *Planner) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

// Reset deletes all planner records and reinitializes the state as on a first run.
func (p *Planner) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.Delete(ctx, RecordKeys...); err != nil {
		return fmt.Errorf("failed to clear planner records: %w", err)
	}
	log.Info("planner records cleared")
	return p.load(ctx)
}

func (p *Planner) load(ctx context.Context) error {
	var events []Event
	eventsFound, err := storage.LoadJSON(ctx, p.repo, EventsKey, &events)
	if err != nil {
		return err
	}
	var types []EventType
	typesFound, err := storage.LoadJSON(ctx, p.repo, EventTypesKey, &types)
	if err != nil {
		return err
	}
	var hidden []string
	hiddenFound, err := storage.LoadJSON(ctx, p.repo, HiddenTypesKey, &hidden)
	if err != nil {
		return err
	}
	if !hiddenFound {
		hidden = nil
	}
	budget := p.opts.DefaultBudget
	var stored decimal.Decimal
	budgetFound, err := storage.LoadJSON(ctx, p.repo, BudgetKey, &stored)
	if err != nil {
		return err
	}
	if budgetFound {
		budget = stored
	}

	if !eventsFound {
		events = []Event{}
	}
	if !typesFound {
		types = DefaultEventTypes()
	}
	p.events, p.types, p.hidden, p.budget = events, types, hidden, budget

	if !eventsFound && !typesFound {
		p.seed(ctx)
	}
	log.Infof("planner loaded: %d events, %d event types, %d hidden, budget %s",
		len(p.events), len(p.types), len(p.hidden), p.budget)
	return nil
}

func (p *Planner) seed(ctx context.Context) {
	year := p.CurrentYear()
	holidayColor := colorOf(p.types, LegalHolidayType)
	for _, h := range holiday.PublicHolidays(year) {
		p.events = append(p.events, p.toEvent(NewEvent{
			StartDate: h.Date,
			EndDate:   h.Date,
			Type:      h.Name,
			Color:     holidayColor,
		}))
	}
	if p.opts.SeedSchoolHolidays {
		schoolColor := colorOf(p.types, SchoolHolidayType)
		for _, r := range holiday.SchoolHolidays(year) {
			p.events = append(p.events, p.toEvent(NewEvent{
				StartDate: r.StartDate,
				EndDate:   r.EndDate,
				Type:      r.Name,
				Color:     schoolColor,
			}))
		}
	}
	log.Infof("seeded %d holiday events for %d", len(p.events), year)

	p.persistTypes(ctx)
	p.persistEvents(ctx)
}

func colorOf(types []EventType, name string) string {
	if i := findType(types, name); i >= 0 {
		return types[i].Color
	}
	return ""
}
