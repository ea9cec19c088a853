package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Events
	r.HandleFunc("/api/events", deps.PlannerHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/events", deps.PlannerHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/events/{id}", deps.PlannerHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/events/{id}", deps.PlannerHandler.DeleteEvent).Methods("DELETE")

	// Event types
	r.HandleFunc("/api/event-types", deps.PlannerHandler.GetEventTypes).Methods("GET")
	r.HandleFunc("/api/event-types", deps.PlannerHandler.CreateEventType).Methods("POST")
	r.HandleFunc("/api/event-types/{name}/color", deps.PlannerHandler.UpdateEventTypeColor).Methods("PUT")
	r.HandleFunc("/api/event-types/{name}/visibility", deps.PlannerHandler.ToggleEventTypeVisibility).Methods("POST")
	r.HandleFunc("/api/hidden-types", deps.PlannerHandler.GetHiddenTypes).Methods("GET")

	// Budget and stats
	r.HandleFunc("/api/budget", deps.PlannerHandler.GetBudget).Methods("GET")
	r.HandleFunc("/api/budget", deps.PlannerHandler.UpdateBudget).Methods("PUT")
	r.HandleFunc("/api/stats/leave", deps.PlannerHandler.GetLeaveDayStats).Methods("GET")
	r.HandleFunc("/api/stats/monthly", deps.StatsHandler.GetMonthlyStats).Methods("GET")
	r.HandleFunc("/api/reset", deps.PlannerHandler.Reset).Methods("POST")

	// Holidays
	r.HandleFunc("/api/holidays", deps.PlannerHandler.GetPublicHolidays).Methods("GET")
	r.HandleFunc("/api/holidays/school", deps.PlannerHandler.GetSchoolHolidays).Methods("GET")

	// iCalendar
	r.HandleFunc("/api/ics/export", deps.IcsHandler.Export).Methods("GET")
	r.HandleFunc("/api/ics/import", deps.IcsHandler.Import).Methods("POST")

	// Todos
	r.HandleFunc("/api/todos", deps.TodoHandler.List).Methods("GET")
	r.HandleFunc("/api/todos", deps.TodoHandler.Create).Methods("POST")
	r.HandleFunc("/api/todos/{id}/toggle", deps.TodoHandler.Toggle).Methods("PATCH")
	r.HandleFunc("/api/todos/{id}", deps.TodoHandler.Delete).Methods("DELETE")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.AccountHandler.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.AccountHandler.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/accounts", deps.AccountHandler.ListAccounts).Methods("GET")
	r.HandleFunc("/api/integrations/google/accounts/{accountId}", deps.AccountHandler.DeleteAccount).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/events", deps.GoogleHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/integrations/google/events/adopt", deps.GoogleHandler.AdoptEvent).Methods("POST")
	r.HandleFunc("/api/integrations/google/accounts/{accountId}/events", deps.GoogleHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/integrations/google/accounts/{accountId}/events/{eventId}", deps.GoogleHandler.DeleteEvent).Methods("DELETE")
}
