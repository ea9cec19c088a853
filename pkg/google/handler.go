package google

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/rest"
	"github.com/verlofplanner/verlof/pkg/account"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/planner"
)

// RemoteEventDTO carries all-day events as YYYY-MM-DD dates with an inclusive end and
// timed events as RFC 3339 timestamps.
type RemoteEventDTO struct {
	ID        string `json:"id,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	AllDay    bool   `json:"allDay"`
	TimeZone  string `json:"timeZone,omitempty"`
}

type Handler struct {
	service Service
	planner *planner.Planner
}

func NewHandler(s Service, p *planner.Planner) *Handler {
	return &Handler{service: s, planner: p}
}

// ListEvents returns the events between the from and to query parameters, or the cached
// upcoming events when no range is given.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var events []RemoteEvent
	var err error
	fromString, toString := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if fromString == "" && toString == "" {
		events, err = h.service.UpcomingEvents(r.Context())
	} else {
		from, fromErr := parseInstant(fromString)
		to, toErr := parseInstant(toString)
		if fromErr != nil || toErr != nil || !to.After(from) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid range", "'from' and 'to' must be RFC 3339 times or YYYY-MM-DD dates with from before to")
			return
		}
		events, err = h.service.ListEvents(r.Context(), from, to)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]RemoteEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, toDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto RemoteEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	event, err := fromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}

	created, err := h.service.CreateEvent(r.Context(), mux.Vars(r)["accountId"], event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(created))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.DeleteEvent(r.Context(), vars["accountId"], vars["eventId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdoptEvent copies a remote event into the planner as an event of the type given in the
// query, Verlof by default.
func (h *Handler) AdoptEvent(w http.ResponseWriter, r *http.Request) {
	var dto RemoteEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	event, err := fromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}

	eventType := r.URL.Query().Get("type")
	if eventType == "" {
		eventType = planner.LeaveType
	}
	color := ""
	for _, t := range h.planner.EventTypes() {
		if t.Name == eventType {
			color = t.Color
			break
		}
	}

	created := h.planner.AddEvent(r.Context(), event.ToNewEvent(eventType, color))
	rest.WriteJSON(w, http.StatusCreated, planner.EventDTO(created))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrUnauthenticated):
		rest.WriteError(w, http.StatusForbidden, "Google authentication is required", "")
	case errors.Is(err, account.ErrAccountNotFound):
		rest.WriteError(w, http.StatusNotFound, "Account not found", "")
	default:
		log.Errorf("Google calendar request failed: %v", err)
		rest.WriteError(w, http.StatusBadGateway, "Google calendar request failed", err.Error())
	}
}

func parseInstant(s string) (time.Time, error) {
	if d, err := date.Parse(s); err == nil {
		return d.Time(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func toDTO(e RemoteEvent) RemoteEventDTO {
	dto := RemoteEventDTO{ID: e.ID, AccountID: e.AccountID, Title: e.Title, AllDay: e.AllDay, TimeZone: e.TimeZone}
	if e.AllDay {
		dto.Start = e.Start.Format(date.Layout)
		dto.End = e.End.AddDate(0, 0, -1).Format(date.Layout)
	} else {
		dto.Start = e.Start.Format(time.RFC3339)
		dto.End = e.End.Format(time.RFC3339)
	}
	return dto
}

func fromDTO(dto RemoteEventDTO) (RemoteEvent, error) {
	e := RemoteEvent{ID: dto.ID, AccountID: dto.AccountID, Title: dto.Title, AllDay: dto.AllDay, TimeZone: dto.TimeZone}
	if dto.AllDay {
		start, err := date.Parse(dto.Start)
		if err != nil {
			return e, err
		}
		end, err := date.Parse(dto.End)
		if err != nil {
			return e, err
		}
		if end.Before(start) {
			return e, errors.New("end is before start")
		}
		e.Start, e.End = start.Time(), end.AddDays(1).Time()
		return e, nil
	}

	start, err := time.Parse(time.RFC3339, dto.Start)
	if err != nil {
		return e, errors.New("start must be an RFC 3339 time")
	}
	end, err := time.Parse(time.RFC3339, dto.End)
	if err != nil {
		return e, errors.New("end must be an RFC 3339 time")
	}
	if end.Before(start) {
		return e, errors.New("end is before start")
	}
	e.Start, e.End = start, end
	return e, nil
}
