package planner

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/storage"
)

type Options struct {
	DefaultBudget decimal.Decimal
	// SeedSchoolHolidays adds the school holiday ranges to the first-run seed.
	SeedSchoolHolidays bool
}

// Planner owns the events, event types, hidden types and leave budget. Every mutation
// happens under one lock and is announced on the event bus with the new record content.
type Planner struct {
	mu     sync.RWMutex
	events []Event
	types  []EventType
	hidden []string
	budget decimal.Decimal

	opts  Options
	repo  storage.Repository
	bus   *event_bus.EventBus
	clock utils.Clock
	newID func() string
}

func NewPlanner(repo storage.Repository, bus *event_bus.EventBus, clock utils.Clock, opts Options) *Planner {
	return &Planner{
		types:  DefaultEventTypes(),
		budget: opts.DefaultBudget,
		opts:   opts,
		repo:   repo,
		bus:    bus,
		clock:  clock,
		newID:  uuid.NewString,
	}
}

func (p *Planner) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		Events:      slices.Clone(p.events),
		EventTypes:  slices.Clone(p.types),
		HiddenTypes: slices.Clone(p.hidden),
		Budget:      p.budget,
	}
}

func (p *Planner) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.events)
}

func (p *Planner) EventTypes() []EventType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.types)
}

func (p *Planner) HiddenTypes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.hidden)
}

func (p *Planner) LeaveBudget() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.budget
}

func (p *Planner) AddEvent(ctx context.Context, ne NewEvent) Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.toEvent(ne)
	p.events = append(p.events, e)
	log.Debugf("added event %s (%s %s..%s)", e.ID, e.Type, e.StartDate, e.EndDate)
	p.persistEvents(ctx)
	return e
}

// ImportEvents appends all given events and returns them with their new ids.
func (p *Planner) ImportEvents(ctx context.Context, nes []NewEvent) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := make([]Event, 0, len(nes))
	for _, ne := range nes {
		added = append(added, p.toEvent(ne))
	}
	p.events = append(p.events, added...)
	log.Infof("imported %d events", len(added))
	p.persistEvents(ctx)
	return added
}

// UpdateEvent replaces the event with the same id. Unknown ids are ignored.
func (p *Planner) UpdateEvent(ctx context.Context, e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.events, func(existing Event) bool { return existing.ID == e.ID })
	if i < 0 {
		log.Debugf("update of unknown event %s ignored", e.ID)
		return
	}
	p.events[i] = e
	p.persistEvents(ctx)
}

// RemoveEvent deletes the event with the given id. Unknown ids are ignored.
func (p *Planner) RemoveEvent(ctx context.Context, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.events)
	p.events = slices.DeleteFunc(p.events, func(e Event) bool { return e.ID == id })
	if len(p.events) == before {
		log.Debugf("removal of unknown event %s ignored", id)
		return
	}
	p.persistEvents(ctx)
}

// AddEventType appends t unless a type with the same name, ignoring case, exists.
// It reports whether the type was added.
func (p *Planner) AddEventType(ctx context.Context, t EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if hasTypeFold(p.types, t.Name) {
		log.Debugf("event type %q already exists", t.Name)
		return false
	}
	p.types = append(p.types, t)
	p.persistTypes(ctx)
	return true
}

// UpdateEventTypeColor changes the color of the named type and carries it over to every
// event classified under that type and to every orphaned event still carrying the old
// color. It reports false, and changes nothing, when the type is unknown or already has
// the color.
func (p *Planner) UpdateEventTypeColor(ctx context.Context, name, color string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := findType(p.types, name)
	if i < 0 || p.types[i].Color == color {
		return false
	}

	previous := slices.Clone(p.types)
	oldColor := normalizeColor(previous[i].Color)
	p.types[i].Color = color

	migrated := 0
	for j, e := range p.events {
		if ResolveType(e, previous) == name || (isOrphan(e, previous) && normalizeColor(e.Color) == oldColor) {
			p.events[j].Color = color
			migrated++
		}
	}
	log.Debugf("event type %q recolored, %d events migrated", name, migrated)

	p.persistTypes(ctx)
	p.persistEvents(ctx)
	return true
}

// ToggleEventTypeVisibility flips whether the named type is hidden and returns the new state.
func (p *Planner) ToggleEventTypeVisibility(ctx context.Context, name string) (hidden bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := slices.Index(p.hidden, name); i >= 0 {
		p.hidden = slices.Delete(p.hidden, i, i+1)
	} else {
		p.hidden = append(p.hidden, name)
		hidden = true
	}
	storage.PublishRecord(ctx, p.bus, HiddenTypesKey, p.hiddenOrEmpty())
	return hidden
}

func (p *Planner) SetLeaveBudget(ctx context.Context, budget decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.budget = budget
	storage.PublishRecord(ctx, p.bus, BudgetKey, budgetRecord(budget))
}

// SetData replaces all events and event types. Events with a blank or repeated id get a
// fresh one, so ids stay unique.
func (p *Planner) SetData(ctx context.Context, events []Event, types []EventType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = make([]Event, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, dup := seen[e.ID]; dup || strings.TrimSpace(e.ID) == "" {
			e.ID = p.newID()
		}
		seen[e.ID] = struct{}{}
		p.events = append(p.events, e)
	}
	p.types = slices.Clone(types)
	log.Infof("replaced planner data: %d events, %d types", len(p.events), len(p.types))

	p.persistEvents(ctx)
	p.persistTypes(ctx)
}

// EventsForDate returns the events covering d whose resolved type is not hidden.
func (p *Planner) EventsForDate(d date.Date) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]Event, 0)
	for _, e := range p.events {
		if !e.Covers(d) {
			continue
		}
		if slices.Contains(p.hidden, ResolveType(e, p.types)) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (p *Planner) LeaveDayStats() LeaveDayStats {
	return ComputeLeaveDayStats(p.Snapshot())
}

// MonthlyLeaveStats returns the per-month leave days of the current year.
func (p *Planner) MonthlyLeaveStats() MonthlyStats {
	return ComputeMonthlyLeaveStats(p.Snapshot(), p.CurrentYear())
}

func (p *Planner) CurrentYear() int {
	return utils.Today(p.clock).Year()
}

func (p *Planner) toEvent(ne NewEvent) Event {
	return Event{
		ID:         p.newID(),
		StartDate:  ne.StartDate.String(),
		EndDate:    ne.EndDate.String(),
		Type:       ne.Type,
		Color:      ne.Color,
		CustomName: ne.CustomName,
	}
}

func (p *Planner) persistEvents(ctx context.Context) {
	events := p.events
	if events == nil {
		events = []Event{}
	}
	storage.PublishRecord(ctx, p.bus, EventsKey, events)
}

func (p *Planner) persistTypes(ctx context.Context) {
	types := p.types
	if types == nil {
		types = []EventType{}
	}
	storage.PublishRecord(ctx, p.bus, EventTypesKey, types)
}

func (p *Planner) hiddenOrEmpty() []string {
	if p.hidden == nil {
		return []string{}
	}
	return p.hidden
}

// budgetRecord stores the budget as a bare JSON number.
type budgetRecord decimal.Decimal

func (b budgetRecord) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(b).String()), nil
}
