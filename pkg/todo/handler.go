package todo

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/verlofplanner/verlof/internal/rest"
)

type TodoDTO struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	todos := h.service.List()
	dtos := make([]TodoDTO, 0, len(todos))
	for _, t := range todos {
		dtos = append(dtos, TodoDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto TodoDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, ok := h.service.Add(r.Context(), dto.Content)
	if !ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid todo", "'content' must not be blank")
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TodoDTO(created))
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	toggled, ok := h.service.Toggle(r.Context(), mux.Vars(r)["id"])
	if !ok {
		rest.WriteError(w, http.StatusNotFound, "Todo not found", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, TodoDTO(toggled))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.service.Remove(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}
