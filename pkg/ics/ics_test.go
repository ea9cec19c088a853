package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/planner"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func calendar(events ...string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func TestParse(t *testing.T) {
	t.Run("should convert exclusive DATE end to inclusive", func(t *testing.T) {
		// given
		content := calendar(
			"BEGIN:VEVENT",
			"UID:a@example.com",
			"SUMMARY:Zomer",
			"DTSTART;VALUE=DATE:20240708",
			"DTEND;VALUE=DATE:20240713",
			"END:VEVENT",
		)

		// when
		events, err := Parse(strings.NewReader(content))

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "a@example.com", events[0].UID)
		assert.Equal(t, "Zomer", events[0].Summary)
		assert.Equal(t, "2024-07-08", events[0].StartDate.String())
		assert.Equal(t, "2024-07-12", events[0].EndDate.String())
	})

	t.Run("should take calendar date of DATE-TIME values", func(t *testing.T) {
		// given
		content := calendar(
			"BEGIN:VEVENT",
			"UID:b",
			"SUMMARY:Tandarts",
			"DTSTART:20240305T090000Z",
			"DTEND:20240305T100000Z",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:c",
			"SUMMARY:Congres",
			"DTSTART;TZID=Europe/Brussels:20240410T083000",
			"DTEND;TZID=Europe/Brussels:20240412T170000",
			"END:VEVENT",
		)

		// when
		events, err := Parse(strings.NewReader(content))

		// then
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "2024-03-05", events[0].StartDate.String())
		assert.Equal(t, "2024-03-05", events[0].EndDate.String())
		assert.Equal(t, "2024-04-10", events[1].StartDate.String())
		assert.Equal(t, "2024-04-12", events[1].EndDate.String())
	})

	t.Run("should default a missing end to the start date", func(t *testing.T) {
		// given
		content := calendar(
			"BEGIN:VEVENT",
			"UID:d",
			"SUMMARY:Verlof",
			"DTSTART;VALUE=DATE:20241231",
			"END:VEVENT",
		)

		// when
		events, err := Parse(strings.NewReader(content))

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, events[0].StartDate, events[0].EndDate)
	})

	t.Run("should skip incomplete events", func(t *testing.T) {
		// given
		content := calendar(
			"BEGIN:VEVENT",
			"SUMMARY:No uid",
			"DTSTART;VALUE=DATE:20240101",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:no-summary",
			"DTSTART;VALUE=DATE:20240101",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:bad-date",
			"SUMMARY:Bad",
			"DTSTART;VALUE=DATE:2024",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:ok",
			"SUMMARY:Ok",
			"DTSTART;VALUE=DATE:20240102",
			"DTEND;VALUE=DATE:20240103",
			"END:VEVENT",
		)

		// when
		events, err := Parse(strings.NewReader(content))

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "ok", events[0].UID)
	})
}

func TestExport(t *testing.T) {
	t.Run("should write all-day events with exclusive end", func(t *testing.T) {
		// given
		events := []planner.Event{
			{ID: "1", StartDate: "2024-07-08", EndDate: "2024-07-12", Type: planner.LeaveType, CustomName: "Zee"},
			{ID: "2", StartDate: "2024-12-31", EndDate: "2024-12-31", Type: planner.LeaveType},
			{ID: "3", StartDate: "broken", EndDate: "2024-12-31", Type: planner.LeaveType},
		}
		var buf bytes.Buffer

		// when
		err := Export(&buf, events, now)

		// then
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "UID:1@verlof")
		assert.Contains(t, out, "DTSTART;VALUE=DATE:20240708")
		assert.Contains(t, out, "DTEND;VALUE=DATE:20240713")
		assert.Contains(t, out, "SUMMARY:Zee")
		assert.Contains(t, out, "DTEND;VALUE=DATE:20250101")
		assert.Contains(t, out, "SUMMARY:Verlof")
		assert.NotContains(t, out, "UID:3@verlof")
	})

	t.Run("export then import should preserve inclusive ranges", func(t *testing.T) {
		// given
		start := date.MustParse("2023-12-28")
		var events []planner.Event
		for i := 0; i < 40; i++ {
			s := start.AddDays(i * 3)
			events = append(events, planner.Event{
				ID:        s.String(),
				StartDate: s.String(),
				EndDate:   s.AddDays(i % 9).String(),
				Type:      planner.LeaveType,
			})
		}
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, events, now))

		// when
		parsed, err := Parse(&buf)

		// then
		require.NoError(t, err)
		require.Len(t, parsed, len(events))
		for i, p := range parsed {
			assert.Equal(t, events[i].ID, LocalID(p.UID))
			assert.Equal(t, events[i].StartDate, p.StartDate.String())
			assert.Equal(t, events[i].EndDate, p.EndDate.String())
		}
	})
}

func TestToNewEvents(t *testing.T) {
	// given
	parsed := []ParsedEvent{
		{UID: "1", Summary: "verlof", StartDate: date.MustParse("2024-01-02"), EndDate: date.MustParse("2024-01-02")},
		{UID: "2@verlof", Summary: "Skireis", StartDate: date.MustParse("2024-02-12"), EndDate: date.MustParse("2024-02-16")},
	}
	types := planner.DefaultEventTypes()

	// when
	newEvents := ToNewEvents(parsed, types, planner.VeniseType)
	events := ToEvents(parsed, types, planner.VeniseType)

	// then
	assert.Equal(t, planner.LeaveType, newEvents[0].Type)
	assert.Equal(t, "#1976D2", newEvents[0].Color)
	assert.Empty(t, newEvents[0].CustomName)
	assert.Equal(t, planner.VeniseType, newEvents[1].Type)
	assert.Equal(t, "#388E3C", newEvents[1].Color)
	assert.Equal(t, "Skireis", newEvents[1].CustomName)

	assert.Equal(t, "2", events[1].ID)
	assert.Equal(t, "2024-02-16", events[1].EndDate)
}
