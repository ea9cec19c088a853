package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/planner"
	gcal "google.golang.org/api/calendar/v3"
)

const (
	PrimaryCalendar = "primary"
	maxResults      = 250
)

// RemoteEvent is an event of a connected Google calendar. For all-day events Start is
// the first day and End the day after the last one, both at midnight UTC.
type RemoteEvent struct {
	AccountID string
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	AllDay    bool
	TimeZone  string
}

// ToNewEvent turns the remote event into a planner event covering the same calendar
// days. The remote title becomes the custom name.
func (e RemoteEvent) ToNewEvent(eventType, color string) planner.NewEvent {
	start := date.FromTime(e.Start)
	end := date.FromTime(e.End)
	if e.AllDay {
		end = end.AddDays(-1)
	} else if e.End.After(e.Start) && isMidnight(e.End) {
		end = end.AddDays(-1)
	}
	if end.Before(start) {
		end = start
	}
	return planner.NewEvent{StartDate: start, EndDate: end, Type: eventType, Color: color, CustomName: e.Title}
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

type CalendarClient interface {
	ListEvents(ctx context.Context, from time.Time, to time.Time) ([]RemoteEvent, error)
	CreateEvent(ctx context.Context, event RemoteEvent) (RemoteEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type Calendar struct {
	service    *gcal.Service
	accountID  string
	calendarID string
}

func newGoogleCalendar(service *gcal.Service, accountID string, calendarID string) *Calendar {
	return &Calendar{
		service:    service,
		accountID:  accountID,
		calendarID: calendarID,
	}
}

func (c *Calendar) ListEvents(ctx context.Context, from time.Time, to time.Time) ([]RemoteEvent, error) {
	googleEvents, err := c.service.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
	}

	events := make([]RemoteEvent, 0, len(googleEvents.Items))
	for _, item := range googleEvents.Items {
		if item.Status == "cancelled" {
			continue
		}
		e, err := c.toRemoteEvent(item)
		if err != nil {
			log.Warnf("ignoring calendar event %s of account %s: %v", item.Id, c.accountID, err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, event RemoteEvent) (RemoteEvent, error) {
	log.Debugf("Adding event: %+v, to calendar: %s", event, c.calendarID)
	result, err := c.service.Events.Insert(c.calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("unable to insert event in Google Calendar: %w", err)
	}
	return c.toRemoteEvent(result)
}

func (c *Calendar) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete event from Google Calendar: %w", err)
	}
	return nil
}

func (c *Calendar) toRemoteEvent(item *gcal.Event) (RemoteEvent, error) {
	if item.Start == nil {
		return RemoteEvent{}, fmt.Errorf("event has no start")
	}
	e := RemoteEvent{AccountID: c.accountID, ID: item.Id, Title: item.Summary, TimeZone: item.Start.TimeZone}

	if item.Start.Date != "" {
		start, err := time.Parse(date.Layout, item.Start.Date)
		if err != nil {
			return RemoteEvent{}, fmt.Errorf("invalid start date %q", item.Start.Date)
		}
		e.AllDay = true
		e.Start = start
		e.End = start.AddDate(0, 0, 1)
		if item.End != nil && item.End.Date != "" {
			if end, err := time.Parse(date.Layout, item.End.Date); err == nil && end.After(start) {
				e.End = end
			}
		}
		return e, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("invalid start time %q", item.Start.DateTime)
	}
	e.Start, e.End = start, start
	if item.End != nil {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil && !end.Before(start) {
			e.End = end
		}
	}
	return e, nil
}

func toGoogleEvent(e RemoteEvent) *gcal.Event {
	if e.AllDay {
		return &gcal.Event{
			Summary: e.Title,
			Start:   &gcal.EventDateTime{Date: e.Start.Format(date.Layout)},
			End:     &gcal.EventDateTime{Date: e.End.Format(date.Layout)},
		}
	}
	return &gcal.Event{
		Summary: e.Title,
		Start:   &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339), TimeZone: e.TimeZone},
		End:     &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339), TimeZone: e.TimeZone},
	}
}
