package ics

import (
	"strings"

	"github.com/verlofplanner/verlof/pkg/planner"
)

// ToNewEvents maps parsed calendar entries onto planner events. A summary naming an
// existing event type (ignoring case) becomes that type. Any other summary is kept as
// the custom name of an event of fallbackType.
func ToNewEvents(parsed []ParsedEvent, types []planner.EventType, fallbackType string) []planner.NewEvent {
	fallbackColor := ""
	for _, t := range types {
		if t.Name == fallbackType {
			fallbackColor = t.Color
			break
		}
	}

	result := make([]planner.NewEvent, 0, len(parsed))
	for _, p := range parsed {
		ne := planner.NewEvent{
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
			Type:       fallbackType,
			Color:      fallbackColor,
			CustomName: p.Summary,
		}
		for _, t := range types {
			if strings.EqualFold(t.Name, p.Summary) {
				ne.Type, ne.Color, ne.CustomName = t.Name, t.Color, ""
				break
			}
		}
		result = append(result, ne)
	}
	return result
}

// ToEvents is ToNewEvents for a full replacement: ids are taken from the calendar UIDs.
// Repeated UIDs are renumbered by planner.SetData.
func ToEvents(parsed []ParsedEvent, types []planner.EventType, fallbackType string) []planner.Event {
	newEvents := ToNewEvents(parsed, types, fallbackType)
	events := make([]planner.Event, 0, len(newEvents))
	for i, ne := range newEvents {
		events = append(events, planner.Event{
			ID:         LocalID(parsed[i].UID),
			StartDate:  ne.StartDate.String(),
			EndDate:    ne.EndDate.String(),
			Type:       ne.Type,
			Color:      ne.Color,
			CustomName: ne.CustomName,
		})
	}
	return events
}
