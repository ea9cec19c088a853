package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/storage"
)

type plannerFixture struct {
	planner *Planner
	repo    *storage.StubRepository
	bus     *event_bus.EventBus
	clock   *utils.MockClock
	writes  map[string]int
}

func setupPlanner(t *testing.T, schoolHolidays bool) *plannerFixture {
	t.Helper()
	f := &plannerFixture{
		repo:   storage.NewStubRepository(),
		bus:    event_bus.NewEventBus(),
		clock:  &utils.MockClock{FixedNow: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)},
		writes: map[string]int{},
	}
	storage.SubscribePersister(f.bus, f.repo)
	event_bus.SubscribeTyped(f.bus, event_bus.RecordChangedEvent, func(e event_bus.EventT[event_bus.RecordChanged]) error {
		f.writes[e.Data.Key]++
		return nil
	})

	counter := 0
	f.planner = NewPlanner(f.repo, f.bus, f.clock, Options{
		DefaultBudget:      decimal.NewFromInt(32),
		SeedSchoolHolidays: schoolHolidays,
	})
	f.planner.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	return f
}

func (f *plannerFixture) stored(t *testing.T, key string, target any) {
	t.Helper()
	data, err := f.repo.Load(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func leave(start, end string) NewEvent {
	return NewEvent{StartDate: date.MustParse(start), EndDate: date.MustParse(end), Type: LeaveType, Color: "#1976D2"}
}

func TestPlanner_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("should seed default types and public holidays on first run", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)

		// when
		err := f.planner.Load(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, DefaultEventTypes(), f.planner.EventTypes())
		events := f.planner.Events()
		require.Len(t, events, 12)
		assert.Equal(t, "Nieuwjaar", events[0].Type)
		assert.Equal(t, "2024-01-01", events[0].StartDate)
		assert.Equal(t, "#D32F2F", events[0].Color)
		assert.Equal(t, "Kerstmis", events[11].Type)

		var storedEvents []Event
		f.stored(t, EventsKey, &storedEvents)
		assert.Len(t, storedEvents, 12)
		var storedTypes []EventType
		f.stored(t, EventTypesKey, &storedTypes)
		assert.Len(t, storedTypes, 8)
	})

	t.Run("should seed school holidays when enabled", func(t *testing.T) {
		// given
		f := setupPlanner(t, true)

		// when
		require.NoError(t, f.planner.Load(ctx))

		// then
		events := f.planner.Events()
		require.Len(t, events, 17)
		assert.Equal(t, "Krokusvakantie", events[12].Type)
		assert.Equal(t, "#7B1FA2", events[12].Color)
		assert.Equal(t, SchoolHolidayType, ResolveType(events[12], f.planner.EventTypes()))
	})

	t.Run("seeded holidays should not count against the budget", func(t *testing.T) {
		// given
		f := setupPlanner(t, true)
		require.NoError(t, f.planner.Load(ctx))

		// when
		stats := f.planner.LeaveDayStats()

		// then
		assert.True(t, stats.Planned.IsZero())
		assert.True(t, stats.Remaining.Equal(decimal.NewFromInt(32)))
	})

	t.Run("should restore stored records without seeding", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.Put(EventsKey, `[{"id":"a","startDate":"2024-02-01","endDate":"2024-02-02","type":"Verlof","color":"#1976D2"}]`)
		f.repo.Put(HiddenTypesKey, `["Schoolvakantie"]`)
		f.repo.Put(BudgetKey, `25.5`)

		// when
		require.NoError(t, f.planner.Load(ctx))

		// then
		require.Len(t, f.planner.Events(), 1)
		assert.Equal(t, "a", f.planner.Events()[0].ID)
		assert.Equal(t, DefaultEventTypes(), f.planner.EventTypes())
		assert.Equal(t, []string{SchoolHolidayType}, f.planner.HiddenTypes())
		assert.Equal(t, "25.5", f.planner.LeaveBudget().String())
		assert.Empty(t, f.writes)
	})

	t.Run("should treat malformed records as absent and reseed", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.Put(EventsKey, `[{"id":`)
		f.repo.Put(EventTypesKey, `not json`)
		f.repo.Put(BudgetKey, `"abc"`)

		// when
		err := f.planner.Load(ctx)

		// then
		require.NoError(t, err)
		assert.Len(t, f.planner.Events(), 12)
		assert.Equal(t, "32", f.planner.LeaveBudget().String())
	})

	t.Run("should treat malformed hidden record as absent", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.Put(EventsKey, `[{"id":"a","startDate":"2024-06-17","endDate":"2024-06-17","type":"Verlof","color":"#1976D2"}]`)
		f.repo.Put(HiddenTypesKey, `["Verlof", 5]`)

		// when
		require.NoError(t, f.planner.Load(ctx))

		// then
		assert.Empty(t, f.planner.HiddenTypes())
		assert.Len(t, f.planner.EventsForDate(date.MustParse("2024-06-17")), 1)
	})

	t.Run("should keep an event with an unparseable date", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.Put(EventsKey, `[{"id":"bad","startDate":"31/12/2024","endDate":"2024-12-31","type":"Verlof","color":"#1976D2"}]`)
		f.repo.Put(EventTypesKey, `[{"name":"Verlof","color":"#1976D2"}]`)

		// when
		require.NoError(t, f.planner.Load(ctx))

		// then
		assert.Len(t, f.planner.Events(), 1)
		assert.True(t, f.planner.LeaveDayStats().Planned.IsZero())
		assert.True(t, f.planner.MonthlyLeaveStats().Total().IsZero())
	})

	t.Run("should fail when the repository cannot be read", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.planner.repo = failingRepo{err: errors.New("disk on fire")}

		// when
		err := f.planner.Load(ctx)

		// then
		assert.ErrorContains(t, err, "disk on fire")
	})
}

type failingRepo struct {
	err error
}

func (r failingRepo) Load(context.Context, string) ([]byte, error) { return nil, r.err }
func (r failingRepo) Store(context.Context, string, []byte) error { return r.err }
func (r failingRepo) Delete(context.Context, ...string) error { return r.err }

func TestPlanner_Events(t *testing.T) {
	ctx := context.Background()

	t.Run("should add event with fresh id and persist it", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)

		// when
		e := f.planner.AddEvent(ctx, NewEvent{
			StartDate:  date.MustParse("2024-07-08"),
			EndDate:    date.MustParse("2024-07-12"),
			Type:       LeaveType,
			Color:      "#1976D2",
			CustomName: "Zomer",
		})

		// then
		assert.Equal(t, "id-1", e.ID)
		assert.Equal(t, "2024-07-08", e.StartDate)
		assert.Equal(t, "2024-07-12", e.EndDate)
		assert.Equal(t, "Zomer", e.CustomName)

		var stored []Event
		f.stored(t, EventsKey, &stored)
		assert.Equal(t, []Event{e}, stored)
	})

	t.Run("should replace event with matching id", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		e := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// when
		e.EndDate = "2024-07-19"
		f.planner.UpdateEvent(ctx, e)

		// then
		assert.Equal(t, "2024-07-19", f.planner.Events()[0].EndDate)
		assert.Equal(t, 2, f.writes[EventsKey])
	})

	t.Run("should ignore update and removal of unknown id", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		e := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// when
		f.planner.UpdateEvent(ctx, Event{ID: "missing", StartDate: "2024-01-01", EndDate: "2024-01-01"})
		f.planner.RemoveEvent(ctx, "missing")

		// then
		assert.Equal(t, []Event{e}, f.planner.Events())
		assert.Equal(t, 1, f.writes[EventsKey])
	})

	t.Run("should remove event", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		first := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))
		second := f.planner.AddEvent(ctx, leave("2024-08-05", "2024-08-09"))

		// when
		f.planner.RemoveEvent(ctx, first.ID)

		// then
		assert.Equal(t, []Event{second}, f.planner.Events())
		var stored []Event
		f.stored(t, EventsKey, &stored)
		assert.Equal(t, []Event{second}, stored)
	})

	t.Run("should keep state when persisting fails", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.FailWrite = errors.New("read-only")

		// when
		e := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// then
		assert.Equal(t, []Event{e}, f.planner.Events())
		assert.False(t, f.repo.Has(EventsKey))
	})

	t.Run("should import events and replace data", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// when
		imported := f.planner.ImportEvents(ctx, []NewEvent{leave("2024-09-02", "2024-09-02"), leave("2024-10-07", "2024-10-08")})

		// then
		require.Len(t, imported, 2)
		assert.Len(t, f.planner.Events(), 3)

		// when
		f.planner.SetData(ctx, []Event{{StartDate: "2024-01-02", EndDate: "2024-01-02", Type: "X", Color: "#000"}},
			[]EventType{{Name: "X", Color: "#000"}})

		// then
		events := f.planner.Events()
		require.Len(t, events, 1)
		assert.NotEmpty(t, events[0].ID)
		assert.Equal(t, []EventType{{Name: "X", Color: "#000"}}, f.planner.EventTypes())
		var storedTypes []EventType
		f.stored(t, EventTypesKey, &storedTypes)
		assert.Equal(t, []EventType{{Name: "X", Color: "#000"}}, storedTypes)
	})

	t.Run("should give repeated ids a fresh id on replace", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)

		// when
		f.planner.SetData(ctx, []Event{
			{ID: "rec1", StartDate: "2024-01-02", EndDate: "2024-01-02", Type: LeaveType, Color: "#1976D2"},
			{ID: "rec1", StartDate: "2024-01-09", EndDate: "2024-01-09", Type: LeaveType, Color: "#1976D2"},
		}, DefaultEventTypes())

		// then
		events := f.planner.Events()
		require.Len(t, events, 2)
		assert.Equal(t, "rec1", events[0].ID)
		assert.NotEqual(t, "rec1", events[1].ID)

		// when
		f.planner.RemoveEvent(ctx, "rec1")

		// then
		require.Len(t, f.planner.Events(), 1)
		assert.Equal(t, "2024-01-09", f.planner.Events()[0].StartDate)
	})
}

func TestPlanner_EventTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("should add type unless name exists ignoring case", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)

		// when
		added := f.planner.AddEventType(ctx, EventType{Name: "Thuiswerk", Color: "#000000"})
		duplicate := f.planner.AddEventType(ctx, EventType{Name: "VERLOF", Color: "#FFFFFF"})

		// then
		assert.True(t, added)
		assert.False(t, duplicate)
		types := f.planner.EventTypes()
		assert.Len(t, types, 9)
		assert.Equal(t, EventType{Name: "Thuiswerk", Color: "#000000"}, types[8])
		assert.Equal(t, "#1976D2", types[findType(types, LeaveType)].Color)
		assert.Equal(t, 1, f.writes[EventTypesKey])
	})

	t.Run("should cascade color to resolved and orphaned events", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		byName := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))
		byNameOtherColor := f.planner.AddEvent(ctx, NewEvent{StartDate: date.MustParse("2024-07-15"), EndDate: date.MustParse("2024-07-15"), Type: LeaveType, Color: "#000000"})
		orphan := f.planner.AddEvent(ctx, NewEvent{StartDate: date.MustParse("2024-08-01"), EndDate: date.MustParse("2024-08-01"), Type: "Vakantie", Color: " #1976d2"})
		otherOrphan := f.planner.AddEvent(ctx, NewEvent{StartDate: date.MustParse("2024-08-02"), EndDate: date.MustParse("2024-08-02"), Type: "Oud", Color: "#ABCDEF"})
		otherType := f.planner.AddEvent(ctx, NewEvent{StartDate: date.MustParse("2024-08-05"), EndDate: date.MustParse("2024-08-05"), Type: VeniseType, Color: "#388E3C"})

		// when
		changed := f.planner.UpdateEventTypeColor(ctx, LeaveType, "#0D47A1")

		// then
		require.True(t, changed)
		types := f.planner.EventTypes()
		assert.Equal(t, "#0D47A1", types[findType(types, LeaveType)].Color)

		colors := map[string]string{}
		for _, e := range f.planner.Events() {
			colors[e.ID] = e.Color
		}
		assert.Equal(t, "#0D47A1", colors[byName.ID])
		assert.Equal(t, "#0D47A1", colors[byNameOtherColor.ID])
		assert.Equal(t, "#0D47A1", colors[orphan.ID])
		assert.Equal(t, "#ABCDEF", colors[otherOrphan.ID])
		assert.Equal(t, "#388E3C", colors[otherType.ID])

		for _, e := range f.planner.Events() {
			if e.ID == byName.ID || e.ID == orphan.ID {
				assert.Equal(t, LeaveType, ResolveType(e, types))
			}
		}

		var stored []Event
		f.stored(t, EventsKey, &stored)
		assert.Equal(t, f.planner.Events(), stored)
	})

	t.Run("should not write when type is missing or color unchanged", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)

		// when
		missing := f.planner.UpdateEventTypeColor(ctx, "Onbekend", "#000000")
		unchanged := f.planner.UpdateEventTypeColor(ctx, LeaveType, "#1976D2")

		// then
		assert.False(t, missing)
		assert.False(t, unchanged)
		assert.Empty(t, f.writes)
	})

	t.Run("should toggle visibility and filter day view by resolved type", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		require.NoError(t, f.planner.Load(ctx))
		vacation := f.planner.AddEvent(ctx, leave("2024-12-23", "2024-12-27"))
		christmas := date.MustParse("2024-12-25")
		require.Len(t, f.planner.EventsForDate(christmas), 2)

		// when
		hidden := f.planner.ToggleEventTypeVisibility(ctx, LegalHolidayType)

		// then
		assert.True(t, hidden)
		assert.Equal(t, []Event{vacation}, f.planner.EventsForDate(christmas))
		assert.Equal(t, []string{LegalHolidayType}, f.planner.HiddenTypes())
		var stored []string
		f.stored(t, HiddenTypesKey, &stored)
		assert.Equal(t, []string{LegalHolidayType}, stored)

		// when
		hidden = f.planner.ToggleEventTypeVisibility(ctx, LegalHolidayType)

		// then
		assert.False(t, hidden)
		assert.Len(t, f.planner.EventsForDate(christmas), 2)
		f.stored(t, HiddenTypesKey, &stored)
		assert.Empty(t, stored)
	})

	t.Run("day view should include range boundaries", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		e := f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// then
		assert.Equal(t, []Event{e}, f.planner.EventsForDate(date.MustParse("2024-07-08")))
		assert.Equal(t, []Event{e}, f.planner.EventsForDate(date.MustParse("2024-07-12")))
		assert.Empty(t, f.planner.EventsForDate(date.MustParse("2024-07-13")))
	})
}

func TestPlanner_BudgetAndStats(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist budget as number and recompute remaining", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))

		// when
		f.planner.SetLeaveBudget(ctx, decimal.RequireFromString("20.5"))

		// then
		stats := f.planner.LeaveDayStats()
		assert.Equal(t, "20.5", stats.Total.String())
		assert.Equal(t, "5", stats.Planned.String())
		assert.Equal(t, "15.5", stats.Remaining.String())
		data, err := f.repo.Load(ctx, BudgetKey)
		require.NoError(t, err)
		assert.Equal(t, "20.5", string(data))
	})

	t.Run("monthly stats should follow the clock year", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.planner.AddEvent(ctx, leave("2024-12-28", "2025-01-03"))

		// when
		stats2024 := f.planner.MonthlyLeaveStats()
		f.clock.SetNow(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		stats2025 := f.planner.MonthlyLeaveStats()

		// then
		assert.Equal(t, "2", stats2024[11].String())
		assert.True(t, stats2024[0].IsZero())
		assert.Equal(t, "2", stats2025[0].String())
		assert.True(t, stats2025[11].IsZero())
	})
}

func TestPlanner_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("should wipe records and reseed", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		require.NoError(t, f.planner.Load(ctx))
		f.planner.AddEvent(ctx, leave("2024-07-08", "2024-07-12"))
		f.planner.AddEventType(ctx, EventType{Name: "Thuiswerk", Color: "#000000"})
		f.planner.ToggleEventTypeVisibility(ctx, LeaveType)
		f.planner.SetLeaveBudget(ctx, decimal.NewFromInt(10))

		// when
		err := f.planner.Reset(ctx)

		// then
		require.NoError(t, err)
		assert.Len(t, f.planner.Events(), 12)
		assert.Equal(t, DefaultEventTypes(), f.planner.EventTypes())
		assert.Empty(t, f.planner.HiddenTypes())
		assert.Equal(t, "32", f.planner.LeaveBudget().String())
		assert.False(t, f.repo.Has(HiddenTypesKey))
		assert.False(t, f.repo.Has(BudgetKey))
		assert.True(t, f.repo.Has(EventsKey))
	})

	t.Run("should report repository failure", func(t *testing.T) {
		// given
		f := setupPlanner(t, false)
		f.repo.FailWrite = errors.New("locked")

		// when
		err := f.planner.Reset(ctx)

		// then
		assert.ErrorContains(t, err, "locked")
	})
}
