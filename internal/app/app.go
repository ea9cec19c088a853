package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg       config.Application
	deps      *Dependencies
	router    *mux.Router
	srv       *http.Server
	scheduler *cron.Cron
	close     func()
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	repo, closeRepo, err := OpenRepository(cfg)
	if err != nil {
		return nil, err
	}

	deps, err := BuildDependencies(ctx, repo, cfg)
	if err != nil {
		closeRepo()
		return nil, err
	}

	r := mux.NewRouter()
	RegisterRoutes(r, deps)
	handler := SetupMiddleware(r, cfg)

	scheduler, err := newScheduler(deps, cfg)
	if err != nil {
		closeRepo()
		return nil, err
	}

	srv := &http.Server{
		Handler:      handler,
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, router: r, srv: srv, scheduler: scheduler, close: closeRepo}, nil
}

// newScheduler registers the periodic remote calendar refresh. Without Google
// credentials there is nothing to schedule.
func newScheduler(deps *Dependencies, cfg config.Application) (*cron.Cron, error) {
	scheduler := cron.New()
	if !cfg.Google.Enabled() {
		log.Info("Google integration not configured, remote calendar sync disabled")
		return scheduler, nil
	}
	_, err := scheduler.AddFunc(cfg.Google.SyncSchedule, func() {
		if err := deps.GoogleService.Refresh(context.Background()); err != nil {
			log.Warnf("remote calendar refresh failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", cfg.Google.SyncSchedule, err)
	}
	log.Infof("remote calendar sync scheduled: %s", cfg.Google.SyncSchedule)
	return scheduler, nil
}

// Run starts the HTTP server and the scheduler and blocks until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	a.scheduler.Start()
	defer a.scheduler.Stop()

	errs := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errs <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	}
}

// Handler returns the application's root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.srv.Handler
}
