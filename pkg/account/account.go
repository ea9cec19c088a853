// Package account keeps the Google accounts connected to the planner and their OAuth2
// tokens. Several accounts can be connected at the same time.
package account

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/config"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/internal/utils"
	"github.com/verlofplanner/verlof/pkg/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	RecordKey    = "accounts"
	CallbackPath = "/api/integrations/google/auth/callback"

	loginTimeout = 10 * time.Minute
)

var (
	ErrUnauthenticated  = errors.New("no account connected, authentication is required")
	ErrAccountNotFound  = errors.New("account not found")
	ErrInvalidState     = errors.New("unknown or expired login state")
	ErrLoginUnavailable = errors.New("google login is not configured")
)

type Account struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Token       *oauth2.Token `json:"token"`
	ConnectedAt time.Time     `json:"connectedAt"`
}

type Service interface {
	AuthURL(finalURL string) (string, error)
	Complete(ctx context.Context, state, code string) (finalURL string, acc Account, err error)
	Accounts() []Account
	Remove(ctx context.Context, accountID string) error
	TokenSource(ctx context.Context, accountID string) (oauth2.TokenSource, error)
}

// IdentifyFunc returns the e-mail address of the account a token belongs to.
type IdentifyFunc func(ctx context.Context, ts oauth2.TokenSource) (string, error)

type pendingLogin struct {
	finalURL string
	expires  time.Time
}

type ServiceImpl struct {
	mu       sync.RWMutex
	accounts []Account
	pending  map[string]pendingLogin

	oauthConfig *oauth2.Config
	repo        storage.Repository
	bus         *event_bus.EventBus
	clock       utils.Clock
	identify    IdentifyFunc
	newID       func() string
}

func NewOAuthConfig(cfg config.Application) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  strings.TrimSuffix(cfg.Host, "/") + CallbackPath,
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
	}
}

func NewService(oauthConfig *oauth2.Config, repo storage.Repository, bus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		pending:     map[string]pendingLogin{},
		oauthConfig: oauthConfig,
		repo:        repo,
		bus:         bus,
		clock:       clock,
		identify:    primaryCalendarID,
		newID:       uuid.NewString,
	}
}

func (s *ServiceImpl) Load(ctx context.Context) error {
	var accounts []Account
	ok, err := storage.LoadJSON(ctx, s.repo, RecordKey, &accounts)
	if err != nil {
		return err
	}
	if !ok {
		accounts = nil
	}
	accounts = slices.DeleteFunc(accounts, func(a Account) bool { return a.ID == "" || a.Token == nil })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
	log.Debugf("loaded %d connected accounts", len(accounts))
	return nil
}

// AuthURL starts a login. The returned URL leads to the Google consent screen, which
// redirects to the callback with a state that Complete accepts once.
func (s *ServiceImpl) AuthURL(finalURL string) (string, error) {
	if s.oauthConfig.ClientID == "" {
		return "", ErrLoginUnavailable
	}
	nonce := s.newID()

	s.mu.Lock()
	now := s.clock.Now()
	for n, p := range s.pending {
		if now.After(p.expires) {
			delete(s.pending, n)
		}
	}
	s.pending[nonce] = pendingLogin{finalURL: finalURL, expires: now.Add(loginTimeout)}
	s.mu.Unlock()

	log.Tracef("starting Google login with nonce: %s", nonce)
	return s.oauthConfig.AuthCodeURL(finalURL+"|"+nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Complete exchanges the authorization code and stores the resulting token. Logging in
// with an account that is already connected replaces its token.
func (s *ServiceImpl) Complete(ctx context.Context, state, code string) (string, Account, error) {
	sep := strings.LastIndex(state, "|")
	if sep < 0 {
		return "", Account{}, ErrInvalidState
	}
	finalURL, nonce := state[:sep], state[sep+1:]

	s.mu.Lock()
	p, ok := s.pending[nonce]
	delete(s.pending, nonce)
	s.mu.Unlock()
	if !ok || s.clock.Now().After(p.expires) {
		return finalURL, Account{}, ErrInvalidState
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return p.finalURL, Account{}, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	email, err := s.identify(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		log.Warnf("unable to identify connected account: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := Account{ID: s.newID(), Email: email, Token: token, ConnectedAt: s.clock.Now()}
	if i := s.indexOfEmail(email); i >= 0 {
		acc.ID = s.accounts[i].ID
		s.accounts[i] = acc
	} else {
		s.accounts = append(s.accounts, acc)
	}
	s.persist(ctx)
	log.Infof("connected Google account %s (%s)", acc.ID, acc.Email)
	return p.finalURL, acc, nil
}

func (s *ServiceImpl) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

func (s *ServiceImpl) Remove(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(accountID)
	if i < 0 {
		return ErrAccountNotFound
	}
	s.accounts = slices.Delete(s.accounts, i, i+1)
	s.persist(ctx)
	return nil
}

// TokenSource returns a source that refreshes the account's token when needed and
// stores every refreshed token.
func (s *ServiceImpl) TokenSource(ctx context.Context, accountID string) (oauth2.TokenSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(accountID)
	if i < 0 {
		return nil, ErrAccountNotFound
	}
	token := *s.accounts[i].Token
	return &persistingTokenSource{
		base:      s.oauthConfig.TokenSource(ctx, &token),
		service:   s,
		accountID: accountID,
		last:      token.AccessToken,
	}, nil
}

func (s *ServiceImpl) updateToken(accountID string, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(accountID)
	if i < 0 {
		return
	}
	s.accounts[i].Token = token
	s.persist(context.Background())
}

func (s *ServiceImpl) indexOf(accountID string) int {
	return slices.IndexFunc(s.accounts, func(a Account) bool { return a.ID == accountID })
}

func (s *ServiceImpl) indexOfEmail(email string) int {
	if email == "" {
		return -1
	}
	return slices.IndexFunc(s.accounts, func(a Account) bool { return strings.EqualFold(a.Email, email) })
}

func (s *ServiceImpl) persist(ctx context.Context) {
	accounts := s.accounts
	if accounts == nil {
		accounts = []Account{}
	}
	storage.PublishRecord(ctx, s.bus, RecordKey, accounts)
}

type persistingTokenSource struct {
	mu        sync.Mutex
	base      oauth2.TokenSource
	service   *ServiceImpl
	accountID string
	last      string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		log.Debugf("token of account %s refreshed", p.accountID)
		p.service.updateToken(p.accountID, token)
	}
	return token, nil
}

// primaryCalendarID reads the id of the primary calendar, which is the account's e-mail
// address.
func primaryCalendarID(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	service, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("unable to create Calendar client: %w", err)
	}
	entry, err := service.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to read primary calendar: %w", err)
	}
	return entry.Id, nil
}
