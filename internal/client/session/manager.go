// Package session keeps a client authenticated over time: it holds the
// current token pair, renews it before the access token runs out, and
// tears everything down on logout.
//
// Renewal is single-flight. Every trigger (periodic check, proactive
// threshold, explicit request) only posts to a buffered channel; one
// consumer inside Run performs the actual exchange, so concurrent
// triggers can never race two renewals against the issuer's one-time
// renewal tokens.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/client/api"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
)

// State is the manager's lifecycle position.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

const (
	// skewMargin pads expiry comparisons against clock drift between
	// client and issuer.
	skewMargin = 2 * time.Minute

	// renewAhead is how long before expiry a renewal gets scheduled.
	renewAhead = 10 * time.Minute

	defaultCheckInterval = 15 * time.Minute
)

// Manager owns the client's token pair and its renewal lifecycle.
type Manager struct {
	client api.Client
	store  Store
	logger logging.Logger

	checkInterval time.Duration

	// renewCh carries at most one pending renewal request; extra
	// triggers while one is queued are dropped.
	renewCh chan struct{}

	mu           sync.Mutex
	state        State
	accessToken  string
	renewalToken string
	expiresAt    time.Time

	// generation invalidates in-flight renewals: logout bumps it, and a
	// renewal result from an older generation is discarded.
	generation uint64

	now func() time.Time
}

func NewManager(client api.Client, store Store, logger logging.Logger, checkInterval time.Duration) *Manager {
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	return &Manager{
		client:        client,
		store:         store,
		logger:        logger.With("module", "session"),
		checkInterval: checkInterval,
		renewCh:       make(chan struct{}, 1),
		now:           time.Now,
	}
}

// Run drives the manager until the context ends: it performs queued
// renewals and runs the periodic backstop check that catches sessions
// nearing expiry while the application is idle.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.IsSessionUsable()
		case <-m.renewCh:
			m.renew(ctx)
		}
	}
}

// Resume restores a previously stored session, if one survives in the
// store and its access token is still usable.
func (m *Manager) Resume() error {
	pair, err := m.store.Load()
	if err != nil {
		return err
	}
	if pair == nil {
		return nil
	}

	m.mu.Lock()
	stale := m.now().After(pair.ExpiresAt.Add(-skewMargin))
	if stale && pair.RenewalToken == "" {
		m.mu.Unlock()
		return nil
	}
	// A stale access token is still worth adopting: the renewal token
	// may be live, so renew right away instead of forcing a new login.
	m.adoptLocked(pair)
	m.mu.Unlock()

	if stale {
		m.RequestRenewal()
	}
	return nil
}

// Login exchanges credentials for a fresh session. On failure the
// manager's state is untouched.
func (m *Manager) Login(ctx context.Context, login, password string) error {
	pair, err := m.client.Login(ctx, login, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.generation++
	m.adoptLocked(pair)
	m.mu.Unlock()

	m.logger.Info(ctx, "logged in", "expires_at", pair.ExpiresAt)
	return nil
}

// Register creates an account; it does not log in.
func (m *Manager) Register(ctx context.Context, login, password string) error {
	return m.client.Register(ctx, login, password)
}

// IsSessionUsable reports whether the current access token can still be
// attached to requests, leaving the skew margin before its expiry. As a
// side effect it schedules a renewal when expiry is near.
func (m *Manager) IsSessionUsable() bool {
	m.mu.Lock()
	usable := m.state != StateUnauthenticated && m.now().Before(m.expiresAt.Add(-skewMargin))
	needsRenew := m.state == StateAuthenticated && !m.now().Before(m.expiresAt.Add(-renewAhead))
	m.mu.Unlock()

	if needsRenew {
		m.RequestRenewal()
	}
	return usable
}

// AccessToken returns the current access token, or "" when there is no
// usable session.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnauthenticated {
		return ""
	}
	return m.accessToken
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RequestRenewal schedules a renewal without blocking. Callers use it
// when a request bounced with an authorization error; if a renewal is
// already queued or running the request is dropped.
func (m *Manager) RequestRenewal() {
	select {
	case m.renewCh <- struct{}{}:
	default:
	}
}

// Logout revokes the renewal token best-effort and unconditionally
// clears local state. An in-flight renewal that completes afterwards is
// discarded by the generation check.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	renewalToken := m.renewalToken
	m.generation++
	m.clearLocked()
	m.mu.Unlock()

	if renewalToken != "" {
		if err := m.client.Logout(ctx, renewalToken); err != nil {
			m.logger.Warn(ctx, "server-side logout failed", "error", err)
		}
	}
	m.logger.Info(ctx, "logged out")
}

// renew performs one renewal exchange. A definitive rejection ends the
// session; a transport failure keeps it, to be retried on the next
// trigger while the renewal token is still live.
func (m *Manager) renew(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.state = StateRefreshing
	renewalToken := m.renewalToken
	gen := m.generation
	m.mu.Unlock()

	pair, err := m.client.Refresh(ctx, renewalToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		m.logger.Debug(ctx, "discarding stale renewal result")
		return
	}

	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			m.logger.Warn(ctx, "renewal failed, will retry", "error", err)
			m.state = StateAuthenticated
			return
		}
		m.logger.Warn(ctx, "renewal rejected, session ended", "error", err)
		m.clearLocked()
		return
	}

	m.adoptLocked(pair)
	m.logger.Debug(ctx, "session renewed", "expires_at", pair.ExpiresAt)
}

// adoptLocked installs a token pair and persists it. Callers hold mu.
func (m *Manager) adoptLocked(pair *api.TokenPair) {
	m.state = StateAuthenticated
	m.accessToken = pair.AccessToken
	m.renewalToken = pair.RenewalToken
	m.expiresAt = pair.ExpiresAt
	if err := m.store.Save(pair); err != nil {
		m.logger.Warn(context.Background(), "persisting session failed", "error", err)
	}
}

// clearLocked wipes every credential. Callers hold mu.
func (m *Manager) clearLocked() {
	m.state = StateUnauthenticated
	m.accessToken = ""
	m.renewalToken = ""
	m.expiresAt = time.Time{}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn(context.Background(), "clearing session store failed", "error", err)
	}
}
