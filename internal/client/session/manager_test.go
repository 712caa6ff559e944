package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locker/internal/client/api"
)

// fakeGrants counts grant round trips and can hold a refresh open so
// tests can interleave a logout with it.
type fakeGrants struct {
	mu             sync.Mutex
	passwordCalls  int
	refreshCalls   int
	revoked        []string
	refreshStarted chan struct{}
	refreshProceed chan struct{}
	refreshSleep   time.Duration
	refreshErr     error
}

func (f *fakeGrants) PasswordGrant(_ context.Context, username, password, scope string) (*api.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwordCalls++

	return &api.TokenGrant{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		TokenType:        "Bearer",
		ExpiresIn:        900,
		RefreshExpiresIn: 2592000,
		Scope:            scope,
	}, nil
}

func (f *fakeGrants) RefreshGrant(_ context.Context, refreshToken string) (*api.TokenGrant, error) {
	f.mu.Lock()
	f.refreshCalls++
	n := f.refreshCalls + 1
	started := f.refreshStarted
	proceed := f.refreshProceed
	sleep := f.refreshSleep
	refreshErr := f.refreshErr
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if proceed != nil {
		<-proceed
	}
	if sleep > 0 {
		time.Sleep(sleep)
	}
	if refreshErr != nil {
		return nil, refreshErr
	}

	return &api.TokenGrant{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		TokenType:    "Bearer",
		ExpiresIn:    900,
	}, nil
}

func (f *fakeGrants) RevokeToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)

	return nil
}

func (f *fakeGrants) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.refreshCalls
}

func (f *fakeGrants) revokedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.revoked...)
}

// memStorage keeps the session in memory.
type memStorage struct {
	mu   sync.Mutex
	sess *StoredSession
}

func (s *memStorage) Load() (*StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sess, nil
}

func (s *memStorage) Save(sess *StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess

	return nil
}

func (s *memStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil

	return nil
}

func newTestManager(t *testing.T, grants Grants, storage Storage, opts ...ManagerOption) *Manager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(grants, storage, logger, opts...)
	t.Cleanup(m.Close)

	return m
}

func TestManager_LoginEstablishesSession(t *testing.T) {
	grants := &fakeGrants{}
	storage := &memStorage{}
	m := newTestManager(t, grants, storage)

	require.NoError(t, m.Login(context.Background(), "alice", "pw", "vault"))

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "alice", m.Username())

	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	// The session survives a restart via storage.
	saved, err := storage.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
	assert.False(t, saved.RefreshTokenExpiresAt.IsZero())
}

func TestManager_ConcurrentRefreshCollapses(t *testing.T) {
	grants := &fakeGrants{refreshSleep: 50 * time.Millisecond}
	m := newTestManager(t, grants, &memStorage{})

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	const callers = 10

	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.Refresh(context.Background(), "access-1")
			assert.NoError(t, err)
			results[i] = token
		}()
	}
	wg.Wait()

	// All ten callers rode a single grant round trip.
	assert.Equal(t, 1, grants.refreshCount())
	for _, token := range results {
		assert.Equal(t, results[0], token)
	}
}

func TestManager_RefreshWithReplacedTokenSkipsNetwork(t *testing.T) {
	grants := &fakeGrants{}
	m := newTestManager(t, grants, &memStorage{})

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	fresh, err := m.Refresh(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, 1, grants.refreshCount())

	// A caller still holding the original token gets the fresh one
	// without another grant.
	again, err := m.Refresh(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, fresh, again)
	assert.Equal(t, 1, grants.refreshCount())
}

func TestManager_LogoutPurgesEverything(t *testing.T) {
	grants := &fakeGrants{}
	storage := &memStorage{}
	m := newTestManager(t, grants, storage)

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))
	require.NoError(t, m.Logout(context.Background()))

	assert.Equal(t, StateAnonymous, m.State())
	assert.Contains(t, grants.revokedTokens(), "refresh-1")

	saved, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)

	_, err = m.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestManager_LogoutDuringRefreshWins(t *testing.T) {
	grants := &fakeGrants{
		refreshStarted: make(chan struct{}),
		refreshProceed: make(chan struct{}),
	}
	storage := &memStorage{}
	m := newTestManager(t, grants, storage)

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	refreshErr := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background(), "access-1")
		refreshErr <- err
	}()

	<-grants.refreshStarted
	require.NoError(t, m.Logout(context.Background()))
	close(grants.refreshProceed)

	// The late-finishing refresh must not resurrect the session.
	assert.ErrorIs(t, <-refreshErr, ErrNotAuthenticated)
	assert.Equal(t, StateAnonymous, m.State())

	saved, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)

	// Both the old pair and the orphaned new one were revoked.
	revoked := grants.revokedTokens()
	assert.Contains(t, revoked, "refresh-1")
	assert.Contains(t, revoked, "refresh-2")
}

func TestManager_FailedRefreshPurgesSession(t *testing.T) {
	grants := &fakeGrants{refreshErr: api.ErrInvalidGrant}
	storage := &memStorage{}
	m := newTestManager(t, grants, storage)

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	_, err := m.Refresh(context.Background(), "access-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidGrant)

	// No half-authenticated leftovers: state, in-memory session, and
	// durable storage are all gone, and the caller must log in again.
	assert.Equal(t, StateAnonymous, m.State())

	_, err = m.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	saved, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestManager_WakeUpRefreshesInsideSkewWindow(t *testing.T) {
	grants := &fakeGrants{}

	var clockMu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()

		return now
	}

	m := newTestManager(t, grants, &memStorage{}, WithClock(clock))

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	// Jump the clock to 30 seconds before expiry, inside the skew
	// window, as if the machine slept through the timer.
	clockMu.Lock()
	now = now.Add(870 * time.Second)
	clockMu.Unlock()

	m.WakeUp()

	assert.Eventually(t, func() bool {
		return grants.refreshCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_WakeUpOutsideWindowDoesNothing(t *testing.T) {
	grants := &fakeGrants{}
	m := newTestManager(t, grants, &memStorage{})

	require.NoError(t, m.Login(context.Background(), "alice", "pw", ""))

	m.WakeUp()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, grants.refreshCount())
}

func TestManager_RestoreLoadsPersistedSession(t *testing.T) {
	storage := &memStorage{sess: &StoredSession{
		Username:             "alice",
		AccessToken:          "persisted-access",
		RefreshToken:         "persisted-refresh",
		AccessTokenExpiresAt: time.Now().Add(10 * time.Minute),
	}}
	m := newTestManager(t, &fakeGrants{}, storage)

	require.NoError(t, m.Restore())

	assert.Equal(t, StateAuthenticated, m.State())
	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted-access", token)
}

func TestManager_RestoreDiscardsDeadRefreshToken(t *testing.T) {
	storage := &memStorage{sess: &StoredSession{
		Username:              "alice",
		AccessToken:           "persisted-access",
		RefreshToken:          "persisted-refresh",
		AccessTokenExpiresAt:  time.Now().Add(-2 * time.Hour),
		RefreshTokenExpiresAt: time.Now().Add(-time.Hour),
	}}
	grants := &fakeGrants{}
	m := newTestManager(t, grants, storage)

	require.NoError(t, m.Restore())

	// Both tokens are past expiry; a refresh grant could only fail, so
	// the session is dropped locally without any network traffic.
	assert.Equal(t, StateAnonymous, m.State())
	assert.Zero(t, grants.refreshCount())

	saved, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRefreshDelay(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      time.Duration
	}{
		{"far expiry refreshes skew early", now.Add(15 * time.Minute), 14 * time.Minute},
		{"near expiry hits the floor", now.Add(30 * time.Second), minRefreshDelay},
		{"already expired still waits the floor", now.Add(-time.Minute), minRefreshDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refreshDelay(tt.expiresAt, now))
		})
	}
}
