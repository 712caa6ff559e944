// Package session keeps a client-side login alive. The manager owns
// the token pair, refreshes it shortly before the access token
// expires, collapses concurrent refresh attempts into one grant, and
// guarantees that a logout can never be undone by an in-flight
// refresh finishing late.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"locker/internal/client/api"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// State names the manager's lifecycle phase.
type State string

const (
	// StateAnonymous means no session exists.
	StateAnonymous State = "anonymous"
	// StateAuthenticating means a login is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means a session is live.
	StateAuthenticated State = "authenticated"
	// StateRefreshing means a refresh grant is in flight.
	StateRefreshing State = "refreshing"
)

const (
	// refreshSkew is how long before access-token expiry the manager
	// refreshes. Laptops sleep and clocks drift; refreshing early
	// keeps requests from racing the expiry line.
	refreshSkew = 60 * time.Second

	// minRefreshDelay floors the timer so a short-lived token cannot
	// put the manager into a hot refresh loop.
	minRefreshDelay = 5 * time.Second

	// refreshTimeout bounds background refreshes triggered by the
	// timer or a focus regain.
	refreshTimeout = 15 * time.Second
)

// ErrNotAuthenticated is returned when no session is live.
var ErrNotAuthenticated = errors.New("not logged in")

// Grants is the slice of the API client the manager needs. It is an
// interface so tests can count grant round trips.
type Grants interface {
	PasswordGrant(ctx context.Context, username, password, scope string) (*api.TokenGrant, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*api.TokenGrant, error)
	RevokeToken(ctx context.Context, token string) error
}

// Manager drives the session lifecycle. It implements api.TokenSource.
type Manager struct {
	grants  Grants
	storage Storage
	logger  *slog.Logger
	clock   func() time.Time

	mu         sync.Mutex
	state      State
	session    *StoredSession
	generation uint64
	timer      *time.Timer

	sf singleflight.Group
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a Manager in the anonymous state.
func NewManager(grants Grants, storage Storage, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		grants:  grants,
		storage: storage,
		logger:  logger,
		clock:   time.Now,
		state:   StateAnonymous,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Restore loads a persisted session from storage. A stale access token
// is fine; the first authorized call will refresh it. A session whose
// refresh token has also expired is unusable, so it is discarded
// locally instead of burning a round trip on a doomed grant.
func (m *Manager) Restore() error {
	sess, err := m.storage.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if !sess.RefreshTokenExpiresAt.IsZero() && !m.clock().Before(sess.RefreshTokenExpiresAt) {
		m.logger.Info("Discarding expired session", slog.String("username", sess.Username))

		return errors.Wrap(m.storage.Clear(), "failed to clear expired session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = sess
	m.state = StateAuthenticated
	m.scheduleLocked()

	return nil
}

// State reports the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Username returns the logged-in username, or empty when anonymous.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ""
	}

	return m.session.Username
}

// Login exchanges credentials for a session and persists it.
func (m *Manager) Login(ctx context.Context, username, password, scope string) error {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	grant, err := m.grants.PasswordGrant(ctx, username, password, scope)
	if err != nil {
		m.mu.Lock()
		if m.session == nil {
			m.state = StateAnonymous
		} else {
			m.state = StateAuthenticated
		}
		m.mu.Unlock()

		return errors.Wrap(err, "login failed")
	}

	sess := m.sessionFromGrant(username, grant)

	m.mu.Lock()
	m.generation++
	m.session = sess
	m.state = StateAuthenticated
	m.scheduleLocked()
	m.mu.Unlock()

	if err := m.storage.Save(sess); err != nil {
		m.logger.Warn("Failed to persist session", slog.Any("error", err))
	}

	m.logger.Info("Logged in", slog.String("username", username))

	return nil
}

// Logout revokes the session server-side on a best-effort basis and
// purges it locally unconditionally. After Logout returns, no token
// from the old session can reappear, even if a refresh was in flight.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	sess := m.session
	m.generation++
	m.session = nil
	m.state = StateAnonymous
	m.stopTimerLocked()
	m.mu.Unlock()

	if sess != nil {
		if err := m.grants.RevokeToken(ctx, sess.RefreshToken); err != nil {
			m.logger.Warn("Server-side revocation failed, session purged locally anyway", slog.Any("error", err))
		}
	}

	if err := m.storage.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear stored session")
	}

	m.logger.Info("Logged out")

	return nil
}

// AccessToken implements api.TokenSource.
func (m *Manager) AccessToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return "", errors.WithStack(ErrNotAuthenticated)
	}

	return m.session.AccessToken, nil
}

// Refresh implements api.TokenSource. Concurrent callers share one
// grant round trip; a caller whose stale token was already replaced
// gets the fresh one without any network traffic.
func (m *Manager) Refresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()

		return "", errors.WithStack(ErrNotAuthenticated)
	}
	if m.session.AccessToken != stale {
		// Someone else refreshed while the caller's request was in
		// flight.
		token := m.session.AccessToken
		m.mu.Unlock()

		return token, nil
	}
	m.mu.Unlock()

	token, err, _ := m.sf.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx, stale)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

// WakeUp handles clock jumps such as a laptop resuming or a window
// regaining focus. If the access token is inside the skew window, a
// background refresh starts immediately instead of waiting for a
// timer that may have slept through its deadline.
func (m *Manager) WakeUp() {
	m.mu.Lock()
	sess := m.session
	var due bool
	if sess != nil {
		due = !m.clock().Before(sess.AccessTokenExpiresAt.Add(-refreshSkew))
	}
	stale := ""
	if sess != nil {
		stale = sess.AccessToken
	}
	m.mu.Unlock()

	if !due {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if _, err := m.Refresh(ctx, stale); err != nil {
			m.logger.Warn("Wake-up refresh failed", slog.Any("error", err))
		}
	}()
}

// Close stops the refresh timer without touching the stored session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimerLocked()
}

// doRefresh performs the actual refresh grant. The generation counter
// is captured before the round trip; if a logout bumped it while the
// grant was in flight, the fresh pair is discarded and revoked rather
// than resurrecting a session the user ended. A grant failure purges
// the session entirely, so the caller must log in again.
func (m *Manager) doRefresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()

		return "", errors.WithStack(ErrNotAuthenticated)
	}
	if m.session.AccessToken != stale {
		// A flight that finished a moment ago already replaced the
		// token this caller was holding.
		token := m.session.AccessToken
		m.mu.Unlock()

		return token, nil
	}
	refreshToken := m.session.RefreshToken
	username := m.session.Username
	generation := m.generation
	m.state = StateRefreshing
	m.mu.Unlock()

	grant, err := m.grants.RefreshGrant(ctx, refreshToken)
	if err != nil {
		// A failed refresh ends the session. Keeping the stale pair
		// around would leave the client half-authenticated, retrying a
		// refresh token the server may have already rejected.
		m.mu.Lock()
		purge := m.generation == generation && m.session != nil
		if purge {
			m.generation++
			m.session = nil
			m.state = StateAnonymous
			m.stopTimerLocked()
		}
		m.mu.Unlock()

		if purge {
			if clearErr := m.storage.Clear(); clearErr != nil {
				m.logger.Warn("Failed to clear stored session", slog.Any("error", clearErr))
			}
			m.logger.Info("Session ended after failed refresh", slog.Any("error", err))
		}

		return "", errors.Wrap(err, "refresh failed")
	}

	sess := m.sessionFromGrant(username, grant)

	m.mu.Lock()
	if m.generation != generation {
		m.mu.Unlock()

		// The user logged out mid-refresh. Drop the new pair and
		// revoke it so it does not linger server-side.
		if err := m.grants.RevokeToken(ctx, grant.RefreshToken); err != nil {
			m.logger.Warn("Failed to revoke orphaned pair", slog.Any("error", err))
		}

		return "", errors.WithStack(ErrNotAuthenticated)
	}
	m.session = sess
	m.state = StateAuthenticated
	m.scheduleLocked()
	m.mu.Unlock()

	if err := m.storage.Save(sess); err != nil {
		m.logger.Warn("Failed to persist refreshed session", slog.Any("error", err))
	}

	m.logger.Debug("Session refreshed", slog.Time("expires_at", sess.AccessTokenExpiresAt))

	return sess.AccessToken, nil
}

// scheduleLocked arms the refresh timer for the current session. The
// caller must hold m.mu.
func (m *Manager) scheduleLocked() {
	m.stopTimerLocked()
	if m.session == nil {
		return
	}

	delay := refreshDelay(m.session.AccessTokenExpiresAt, m.clock())
	stale := m.session.AccessToken
	m.timer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if _, err := m.Refresh(ctx, stale); err != nil {
			m.logger.Warn("Scheduled refresh failed", slog.Any("error", err))
		}
	})
}

// stopTimerLocked disarms the refresh timer. The caller must hold m.mu.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// refreshDelay computes how long to wait before refreshing a token
// that expires at the given time. The skew keeps the refresh ahead of
// expiry; the floor keeps an already-stale token from spinning.
func refreshDelay(expiresAt, now time.Time) time.Duration {
	delay := expiresAt.Sub(now) - refreshSkew
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}

	return delay
}

// sessionFromGrant converts a wire grant into a stored session using
// the manager's clock.
func (m *Manager) sessionFromGrant(username string, grant *api.TokenGrant) *StoredSession {
	now := m.clock()
	sess := &StoredSession{
		Username:             username,
		AccessToken:          grant.AccessToken,
		RefreshToken:         grant.RefreshToken,
		AccessTokenExpiresAt: now.Add(time.Duration(grant.ExpiresIn) * time.Second),
		Scope:                grant.Scope,
	}
	if grant.RefreshExpiresIn > 0 {
		sess.RefreshTokenExpiresAt = now.Add(time.Duration(grant.RefreshExpiresIn) * time.Second)
	}

	return sess
}
