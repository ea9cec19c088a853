// Package ics reads and writes iCalendar files. Events are handled with date-only
// precision: a DATE end is exclusive on the wire and inclusive in memory.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/planner"
)

const (
	ProductID = "-//verlof//planner//NL"
	uidSuffix = "@verlof"

	dateLayout = "20060102"
)

// ParsedEvent is a VEVENT reduced to what the planner needs.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	StartDate   date.Date
	EndDate     date.Date
}

// Parse reads all VEVENTs from r. Events without UID, SUMMARY or a readable DTSTART are
// skipped.
func Parse(r io.Reader) ([]ParsedEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse calendar: %w", err)
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			log.Warnf("skipping calendar event: %v", err)
			continue
		}
		events = append(events, ev)
	}
	log.Debugf("parsed %d calendar events", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return out, errors.New("missing UID")
	}
	out.UID = strings.TrimSpace(uidProp.Value)

	summaryProp := ve.GetProperty(ical.ComponentPropertySummary)
	if summaryProp == nil || strings.TrimSpace(summaryProp.Value) == "" {
		return out, fmt.Errorf("event %s: missing SUMMARY", out.UID)
	}
	out.Summary = strings.TrimSpace(summaryProp.Value)

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = strings.TrimSpace(p.Value)
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	start, _, err := propertyDate(startProp)
	if err != nil {
		return out, fmt.Errorf("event %s: DTSTART: %w", out.UID, err)
	}
	out.StartDate = start
	out.EndDate = start

	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, allDay, err := propertyDate(endProp)
		if err != nil {
			return out, fmt.Errorf("event %s: DTEND: %w", out.UID, err)
		}
		if allDay {
			end = end.AddDays(-1)
		}
		if !end.Before(start) {
			out.EndDate = end
		}
	}
	return out, nil
}

// propertyDate returns the calendar date written in a DTSTART or DTEND value and whether
// the value is a DATE rather than a DATE-TIME. The time of day and any zone are dropped.
func propertyDate(p *ical.IANAProperty) (date.Date, bool, error) {
	value := strings.TrimSpace(p.Value)
	allDay := !strings.Contains(value, "T")
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	if len(value) < len(dateLayout) {
		return date.Date{}, false, fmt.Errorf("%w: %q", date.ErrInvalidDate, value)
	}
	t, err := time.Parse(dateLayout, value[:len(dateLayout)])
	if err != nil {
		return date.Date{}, false, fmt.Errorf("%w: %q", date.ErrInvalidDate, value)
	}
	return date.FromTime(t), allDay, nil
}

// Export writes events as all-day VEVENTs. Events with unparseable dates are left out.
func Export(w io.Writer, events []planner.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	for _, e := range events {
		start, end, ok := e.Range()
		if !ok {
			log.Warnf("not exporting event %s with invalid dates", e.ID)
			continue
		}
		summary := e.CustomName
		if summary == "" {
			summary = e.Type
		}

		ve := cal.AddEvent(e.ID + uidSuffix)
		ve.SetDtStampTime(now.UTC())
		ve.SetAllDayStartAt(start.Time())
		ve.SetAllDayEndAt(end.AddDays(1).Time())
		ve.SetSummary(summary)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("could not write calendar: %w", err)
	}
	return nil
}

// LocalID strips the suffix Export appends to event ids.
func LocalID(uid string) string {
	return strings.TrimSuffix(uid, uidSuffix)
}
