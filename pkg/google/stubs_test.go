package google

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/verlofplanner/verlof/pkg/account"
	"golang.org/x/oauth2"
)

type accountsStub struct {
	accounts []account.Account
}

func (a *accountsStub) AuthURL(string) (string, error) { return "", nil }
func (a *accountsStub) Complete(context.Context, string, string) (string, account.Account, error) {
	return "", account.Account{}, nil
}
func (a *accountsStub) Accounts() []account.Account { return a.accounts }
func (a *accountsStub) Remove(context.Context, string) error { return nil }
func (a *accountsStub) TokenSource(_ context.Context, accountID string) (oauth2.TokenSource, error) {
	for _, acc := range a.accounts {
		if acc.ID == accountID {
			return oauth2.StaticTokenSource(acc.Token), nil
		}
	}
	return nil, account.ErrAccountNotFound
}

type calendarStub struct {
	mu      sync.Mutex
	events  []RemoteEvent
	err     error
	deleted []string
}

func (c *calendarStub) ListEvents(_ context.Context, from time.Time, to time.Time) ([]RemoteEvent, error) {
	if c.err != nil {
		return nil, c.err
	}
	var result []RemoteEvent
	for _, e := range c.events {
		if e.End.After(from) && e.Start.Before(to) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (c *calendarStub) CreateEvent(_ context.Context, event RemoteEvent) (RemoteEvent, error) {
	if c.err != nil {
		return RemoteEvent{}, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	event.ID = "created"
	c.events = append(c.events, event)
	return event, nil
}

func (c *calendarStub) DeleteEvent(_ context.Context, eventID string) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, eventID)
	return nil
}

var errRemote = errors.New("remote unavailable")
