package planner

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/rest"
	"github.com/verlofplanner/verlof/pkg/date"
	"github.com/verlofplanner/verlof/pkg/holiday"
)

type Handler struct {
	planner *Planner
}

type EventDTO struct {
	ID         string `json:"id"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Type       string `json:"type"`
	Color      string `json:"color"`
	CustomName string `json:"customName,omitempty"`
}

type EventTypeDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ColorDTO struct {
	Color string `json:"color"`
}

type VisibilityDTO struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

type BudgetDTO struct {
	Total decimal.Decimal `json:"total"`
}

type BudgetResponseDTO struct {
	Total float64 `json:"total"`
}

type LeaveDayStatsDTO struct {
	Total     float64 `json:"total"`
	Planned   float64 `json:"planned"`
	Remaining float64 `json:"remaining"`
}

func NewHandler(p *Planner) *Handler {
	return &Handler{p}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var events []Event
	if dateString := r.URL.Query().Get("date"); dateString != "" {
		d, err := date.Parse(dateString)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM-DD format")
			return
		}
		events = h.planner.EventsForDate(d)
	} else {
		events = h.planner.Events()
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, end, ok := parseRange(w, dto)
	if !ok {
		return
	}

	created := h.planner.AddEvent(r.Context(), NewEvent{
		StartDate:  start,
		EndDate:    end,
		Type:       dto.Type,
		Color:      dto.Color,
		CustomName: dto.CustomName,
	})
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(created))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, _, ok := parseRange(w, dto); !ok {
		return
	}
	dto.ID = mux.Vars(r)["id"]

	h.planner.UpdateEvent(r.Context(), dtoToEvent(dto))
	rest.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	h.planner.RemoveEvent(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetEventTypes(w http.ResponseWriter, r *http.Request) {
	types := h.planner.EventTypes()
	dtos := make([]EventTypeDTO, 0, len(types))
	for _, t := range types {
		dtos = append(dtos, EventTypeDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var dto EventTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event type", "'name' must not be empty")
		return
	}

	status := http.StatusOK
	if h.planner.AddEventType(r.Context(), EventType(dto)) {
		status = http.StatusCreated
	}
	rest.WriteJSON(w, status, dto)
}

func (h *Handler) UpdateEventTypeColor(w http.ResponseWriter, r *http.Request) {
	var dto ColorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := mux.Vars(r)["name"]

	if !h.planner.UpdateEventTypeColor(r.Context(), name, dto.Color) {
		log.Debugf("color of event type %q not changed", name)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleEventTypeVisibility(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	hidden := h.planner.ToggleEventTypeVisibility(r.Context(), name)
	rest.WriteJSON(w, http.StatusOK, VisibilityDTO{Name: name, Hidden: hidden})
}

func (h *Handler) GetHiddenTypes(w http.ResponseWriter, r *http.Request) {
	hidden := h.planner.HiddenTypes()
	if hidden == nil {
		hidden = []string{}
	}
	rest.WriteJSON(w, http.StatusOK, hidden)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, BudgetResponseDTO{Total: h.planner.LeaveBudget().InexactFloat64()})
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var dto BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Total.IsNegative() {
		rest.WriteError(w, http.StatusBadRequest, "Invalid budget", "'total' must not be negative")
		return
	}

	h.planner.SetLeaveBudget(r.Context(), dto.Total)
	rest.WriteJSON(w, http.StatusOK, BudgetResponseDTO{Total: dto.Total.InexactFloat64()})
}

func (h *Handler) GetLeaveDayStats(w http.ResponseWriter, r *http.Request) {
	stats := h.planner.LeaveDayStats()
	rest.WriteJSON(w, http.StatusOK, LeaveDayStatsDTO{
		Total:     stats.Total.InexactFloat64(),
		Planned:   stats.Planned.InexactFloat64(),
		Remaining: stats.Remaining.InexactFloat64(),
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Reset(r.Context()); err != nil {
		log.Errorf("reset failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetPublicHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, holiday.PublicHolidays(year))
}

func (h *Handler) GetSchoolHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, holiday.SchoolHolidays(year))
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	yearString := r.URL.Query().Get("year")
	if yearString == "" {
		return h.planner.CurrentYear(), true
	}
	year, err := strconv.Atoi(yearString)
	if err != nil || year < 1583 || year > 9999 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", "'year' must be a Gregorian year between 1583 and 9999")
		return 0, false
	}
	return year, true
}

func parseRange(w http.ResponseWriter, dto EventDTO) (start, end date.Date, ok bool) {
	start, err := date.Parse(dto.StartDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid startDate format", "'startDate' must be in YYYY-MM-DD format")
		return date.Date{}, date.Date{}, false
	}
	end, err = date.Parse(dto.EndDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid endDate format", "'endDate' must be in YYYY-MM-DD format")
		return date.Date{}, date.Date{}, false
	}
	return start, end, true
}

func eventToDTO(e Event) EventDTO {
	return EventDTO(e)
}

func dtoToEvent(dto EventDTO) Event {
	return Event(dto)
}
