package ics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/rest"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/planner"
)

const maxImportSize = 5 << 20

type Handler struct {
	planner *planner.Planner
	clock   utils.Clock
}

type ImportResultDTO struct {
	Mode     string `json:"mode"`
	Imported int    `json:"imported"`
}

func NewHandler(p *planner.Planner, clock utils.Clock) *Handler {
	return &Handler{planner: p, clock: clock}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="verlof-%d.ics"`, h.planner.CurrentYear()))
	if err := Export(w, h.planner.Events(), h.clock.Now()); err != nil {
		log.Errorf("calendar export failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Import reads an iCalendar body. With mode=replace the planner events are replaced,
// otherwise the calendar events are appended. The type query parameter names the event
// type for entries whose summary matches no type; it defaults to Verlof.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Empty calendar", "request body must contain an iCalendar file")
		return
	}

	parsed, err := Parse(bytes.NewReader(body))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid calendar", err.Error())
		return
	}

	fallbackType := r.URL.Query().Get("type")
	if fallbackType == "" {
		fallbackType = planner.LeaveType
	}
	types := h.planner.EventTypes()

	mode := r.URL.Query().Get("mode")
	if mode == "replace" {
		h.planner.SetData(r.Context(), ToEvents(parsed, types, fallbackType), types)
	} else {
		mode = "append"
		h.planner.ImportEvents(r.Context(), ToNewEvents(parsed, types, fallbackType))
	}
	log.Infof("imported %d calendar events (%s)", len(parsed), mode)

	rest.WriteJSON(w, http.StatusOK, ImportResultDTO{Mode: mode, Imported: len(parsed)})
}
