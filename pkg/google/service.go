package google

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/account"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// UpcomingWindow is how far ahead Refresh reads the connected calendars.
const UpcomingWindow = 30 * 24 * time.Hour

type Service interface {
	ListEvents(ctx context.Context, from time.Time, to time.Time) ([]RemoteEvent, error)
	CreateEvent(ctx context.Context, accountID string, event RemoteEvent) (RemoteEvent, error)
	DeleteEvent(ctx context.Context, accountID string, eventID string) error
	Refresh(ctx context.Context) error
	UpcomingEvents(ctx context.Context) ([]RemoteEvent, error)
}

// ClientFactory returns a calendar client acting on behalf of one account.
type ClientFactory func(ctx context.Context, accountID string) (CalendarClient, error)

type ServiceImpl struct {
	accounts  account.Service
	bus       *event_bus.EventBus
	clock     utils.Clock
	timeout   time.Duration
	newClient ClientFactory

	mu          sync.RWMutex
	upcoming    []RemoteEvent
	refreshedAt time.Time
}

func NewService(accounts account.Service, bus *event_bus.EventBus, clock utils.Clock, timeout time.Duration) *ServiceImpl {
	s := &ServiceImpl{
		accounts: accounts,
		bus:      bus,
		clock:    clock,
		timeout:  timeout,
	}
	s.newClient = s.prepareGoogleService
	return s
}

// ListEvents reads the events between from and to of every connected account, ordered by
// start. Accounts that fail are logged and left out unless all of them fail.
func (s *ServiceImpl) ListEvents(ctx context.Context, from time.Time, to time.Time) ([]RemoteEvent, error) {
	events, _, err := s.fetchAll(ctx, from, to)
	return events, err
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, accountID string, event RemoteEvent) (RemoteEvent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	client, err := s.newClient(ctx, accountID)
	if err != nil {
		return RemoteEvent{}, err
	}
	created, err := client.CreateEvent(ctx, event)
	if err != nil {
		return RemoteEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refreshedAt.IsZero() && created.Start.Before(s.refreshedAt.Add(UpcomingWindow)) && created.End.After(s.refreshedAt) {
		s.upcoming = append(s.upcoming, created)
		sortEvents(s.upcoming)
	}
	return created, nil
}

func (s *ServiceImpl) DeleteEvent(ctx context.Context, accountID string, eventID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	client, err := s.newClient(ctx, accountID)
	if err != nil {
		return err
	}
	if err := client.DeleteEvent(ctx, eventID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcoming = slices.DeleteFunc(s.upcoming, func(e RemoteEvent) bool {
		return e.AccountID == accountID && e.ID == eventID
	})
	return nil
}

// Refresh reloads the upcoming events of all accounts and publishes the outcome. Without
// connected accounts there is nothing to do.
func (s *ServiceImpl) Refresh(ctx context.Context) error {
	accounts := s.accounts.Accounts()
	if len(accounts) == 0 {
		log.Debug("no Google accounts connected, skipping refresh")
		return nil
	}

	now := s.clock.Now()
	events, failed, err := s.fetchAll(ctx, now, now.Add(UpcomingWindow))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.upcoming = events
	s.refreshedAt = now
	s.mu.Unlock()

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.RemoteEventsRefreshedEvent, event_bus.RemoteEventsRefreshed{
		Accounts: len(accounts),
		Events:   len(events),
		Failed:   failed,
	})); err != nil {
		log.Warnf("remote refresh subscriber failed: %v", err)
	}
	return nil
}

// UpcomingEvents returns the events cached by the last Refresh, refreshing first when
// nothing has been cached yet.
func (s *ServiceImpl) UpcomingEvents(ctx context.Context) ([]RemoteEvent, error) {
	if len(s.accounts.Accounts()) == 0 {
		return nil, account.ErrUnauthenticated
	}
	s.mu.RLock()
	refreshed := !s.refreshedAt.IsZero()
	s.mu.RUnlock()
	if !refreshed {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.upcoming), nil
}

func (s *ServiceImpl) fetchAll(ctx context.Context, from time.Time, to time.Time) ([]RemoteEvent, int, error) {
	accounts := s.accounts.Accounts()
	if len(accounts) == 0 {
		return nil, 0, account.ErrUnauthenticated
	}

	results := make([][]RemoteEvent, len(accounts))
	errs := make([]error, len(accounts))
	var g errgroup.Group
	for i, acc := range accounts {
		g.Go(func() error {
			ctx, cancel := s.withTimeout(ctx)
			defer cancel()
			client, err := s.newClient(ctx, acc.ID)
			if err == nil {
				results[i], err = client.ListEvents(ctx, from, to)
			}
			if err != nil {
				log.Errorf("failed to read calendar of account %s (%s): %v", acc.ID, acc.Email, err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var events []RemoteEvent
	for i := range accounts {
		if errs[i] != nil {
			failed++
			continue
		}
		events = append(events, results[i]...)
	}
	if failed == len(accounts) {
		return nil, failed, fmt.Errorf("unable to read any calendar: %w", errors.Join(errs...))
	}
	sortEvents(events)
	if events == nil {
		events = []RemoteEvent{}
	}
	return events, failed, nil
}

func (s *ServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context, accountID string) (CalendarClient, error) {
	tokenSource, err := s.accounts.TokenSource(ctx, accountID)
	if err != nil {
		return nil, err
	}
	service, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return newGoogleCalendar(service, accountID, PrimaryCalendar), nil
}

func sortEvents(events []RemoteEvent) {
	slices.SortStableFunc(events, func(a, b RemoteEvent) int {
		return cmp.Or(a.Start.Compare(b.Start), cmp.Compare(a.AccountID, b.AccountID))
	})
}
