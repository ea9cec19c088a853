package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/account"
	"golang.org/x/oauth2"
)

var now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type serviceFixture struct {
	service   *ServiceImpl
	accounts  *accountsStub
	calendars map[string]*calendarStub
	refreshes []event_bus.RemoteEventsRefreshed
}

func setupService(t *testing.T, accountIDs ...string) *serviceFixture {
	t.Helper()
	f := &serviceFixture{accounts: &accountsStub{}, calendars: map[string]*calendarStub{}}
	for _, id := range accountIDs {
		f.accounts.accounts = append(f.accounts.accounts, account.Account{ID: id, Email: id + "@example.com", Token: &oauth2.Token{AccessToken: id}})
		f.calendars[id] = &calendarStub{}
	}

	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped(bus, event_bus.RemoteEventsRefreshedEvent, func(e event_bus.EventT[event_bus.RemoteEventsRefreshed]) error {
		f.refreshes = append(f.refreshes, e.Data)
		return nil
	})
	f.service = NewService(f.accounts, bus, &utils.MockClock{FixedNow: now}, time.Second)
	f.service.newClient = func(_ context.Context, accountID string) (CalendarClient, error) {
		c, ok := f.calendars[accountID]
		if !ok {
			return nil, account.ErrAccountNotFound
		}
		return c, nil
	}
	return f
}

func timed(accountID, id string, start time.Time) RemoteEvent {
	return RemoteEvent{AccountID: accountID, ID: id, Title: id, Start: start, End: start.Add(time.Hour)}
}

func TestService_ListEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("should merge accounts ordered by start", func(t *testing.T) {
		// given
		f := setupService(t, "a", "b")
		f.calendars["a"].events = []RemoteEvent{timed("a", "a1", now.Add(2*time.Hour)), timed("a", "a2", now.Add(5*time.Hour))}
		f.calendars["b"].events = []RemoteEvent{timed("b", "b1", now.Add(time.Hour)), timed("b", "b2", now.Add(2*time.Hour))}

		// when
		events, err := f.service.ListEvents(ctx, now, now.Add(24*time.Hour))

		// then
		require.NoError(t, err)
		var ids []string
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"b1", "a1", "b2", "a2"}, ids)
	})

	t.Run("should leave out a failing account", func(t *testing.T) {
		// given
		f := setupService(t, "a", "b")
		f.calendars["a"].err = errRemote
		f.calendars["b"].events = []RemoteEvent{timed("b", "b1", now.Add(time.Hour))}

		// when
		events, err := f.service.ListEvents(ctx, now, now.Add(24*time.Hour))

		// then
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "b1", events[0].ID)
	})

	t.Run("should fail when every account fails", func(t *testing.T) {
		// given
		f := setupService(t, "a")
		f.calendars["a"].err = errRemote

		// when
		_, err := f.service.ListEvents(ctx, now, now.Add(24*time.Hour))

		// then
		assert.ErrorIs(t, err, errRemote)
	})

	t.Run("should require an account", func(t *testing.T) {
		// given
		f := setupService(t)

		// when
		_, err := f.service.ListEvents(ctx, now, now.Add(24*time.Hour))

		// then
		assert.ErrorIs(t, err, account.ErrUnauthenticated)
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("should cache upcoming events and publish the outcome", func(t *testing.T) {
		// given
		f := setupService(t, "a", "b")
		f.calendars["a"].events = []RemoteEvent{timed("a", "soon", now.Add(time.Hour)), timed("a", "later", now.Add(UpcomingWindow+time.Hour))}
		f.calendars["b"].err = errRemote

		// when
		err := f.service.Refresh(ctx)

		// then
		require.NoError(t, err)
		upcoming, err := f.service.UpcomingEvents(ctx)
		require.NoError(t, err)
		require.Len(t, upcoming, 1)
		assert.Equal(t, "soon", upcoming[0].ID)
		assert.Equal(t, []event_bus.RemoteEventsRefreshed{{Accounts: 2, Events: 1, Failed: 1}}, f.refreshes)
	})

	t.Run("should do nothing without accounts", func(t *testing.T) {
		// given
		f := setupService(t)

		// when
		err := f.service.Refresh(ctx)

		// then
		require.NoError(t, err)
		assert.Empty(t, f.refreshes)
	})

	t.Run("should refresh on first read and keep the cache in step", func(t *testing.T) {
		// given
		f := setupService(t, "a")
		f.calendars["a"].events = []RemoteEvent{timed("a", "a1", now.Add(3*time.Hour))}

		// when
		upcoming, err := f.service.UpcomingEvents(ctx)

		// then
		require.NoError(t, err)
		require.Len(t, upcoming, 1)
		assert.Len(t, f.refreshes, 1)

		// when
		created, err := f.service.CreateEvent(ctx, "a", timed("", "", now.Add(time.Hour)))
		require.NoError(t, err)
		require.NoError(t, f.service.DeleteEvent(ctx, "a", "a1"))
		upcoming, _ = f.service.UpcomingEvents(ctx)

		// then
		require.Len(t, upcoming, 1)
		assert.Equal(t, created.ID, upcoming[0].ID)
		assert.Equal(t, []string{"a1"}, f.calendars["a"].deleted)
		assert.Len(t, f.refreshes, 1)
	})
}

func TestService_UnknownAccount(t *testing.T) {
	// given
	f := setupService(t, "a")

	// when
	_, createErr := f.service.CreateEvent(context.Background(), "x", timed("", "", now))
	deleteErr := f.service.DeleteEvent(context.Background(), "x", "e1")

	// then
	assert.ErrorIs(t, createErr, account.ErrAccountNotFound)
	assert.ErrorIs(t, deleteErr, account.ErrAccountNotFound)
}
