package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/config"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/account"
	"github.com/verlofplanner/verlof/pkg/google"
	"github.com/verlofplanner/verlof/pkg/ics"
	"github.com/verlofplanner/verlof/pkg/planner"
	"github.com/verlofplanner/verlof/pkg/stats"
	"github.com/verlofplanner/verlof/pkg/storage"
	"github.com/verlofplanner/verlof/pkg/todo"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Repository storage.Repository
	EventBus   *event_bus.EventBus
	Clock      utils.Clock

	Planner        *planner.Planner
	PlannerHandler *planner.Handler

	StatsService     *stats.StatsServiceImpl
	CsvStatsRenderer *stats.CsvStatsRendererImpl
	StatsHandler     *stats.StatsHandler

	IcsHandler *ics.Handler

	TodoService *todo.ServiceImpl
	TodoHandler *todo.Handler

	AccountService *account.ServiceImpl
	AccountHandler *account.Handler

	GoogleService *google.ServiceImpl
	GoogleHandler *google.Handler
}

// BuildDependencies initializes and wires all application services and handlers and
// loads their persisted state.
func BuildDependencies(ctx context.Context, repo storage.Repository, cfg config.Application) (*Dependencies, error) {
	budget, err := decimal.NewFromString(cfg.Planner.DefaultBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid default leave budget %q: %w", cfg.Planner.DefaultBudget, err)
	}

	deps := &Dependencies{}
	deps.Repository = repo
	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}
	storage.SubscribePersister(deps.EventBus, repo)
	event_bus.SubscribeTyped(deps.EventBus, event_bus.RemoteEventsRefreshedEvent, func(e event_bus.EventT[event_bus.RemoteEventsRefreshed]) error {
		log.Infof("refreshed remote calendars: %d events from %d accounts (%d failed)", e.Data.Events, e.Data.Accounts, e.Data.Failed)
		return nil
	})

	deps.Planner = planner.NewPlanner(repo, deps.EventBus, deps.Clock, planner.Options{
		DefaultBudget:      budget,
		SeedSchoolHolidays: cfg.Planner.SchoolHolidays,
	})
	if err := deps.Planner.Load(ctx); err != nil {
		return nil, err
	}
	deps.PlannerHandler = planner.NewHandler(deps.Planner)

	deps.StatsService = stats.NewStatsServiceImpl(deps.Planner)
	deps.CsvStatsRenderer = stats.NewCsvStatsRenderer()
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, deps.CsvStatsRenderer)

	deps.IcsHandler = ics.NewHandler(deps.Planner, deps.Clock)

	deps.TodoService = todo.NewService(repo, deps.EventBus)
	if err := deps.TodoService.Load(ctx); err != nil {
		return nil, err
	}
	deps.TodoHandler = todo.NewHandler(deps.TodoService)

	deps.AccountService = account.NewService(account.NewOAuthConfig(cfg), repo, deps.EventBus, deps.Clock)
	if err := deps.AccountService.Load(ctx); err != nil {
		return nil, err
	}
	deps.AccountHandler = account.NewHandler(deps.AccountService)

	deps.GoogleService = google.NewService(deps.AccountService, deps.EventBus, deps.Clock, cfg.Google.RequestTimeout)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService, deps.Planner)

	return deps, nil
}
