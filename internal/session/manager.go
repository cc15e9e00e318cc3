// Package session tracks the authenticated identity. It wraps the auth
// provider behind a small contract: pull access (CurrentUser), push access
// (Subscribe), and provider-confirmed logout.
//
// The current session is the only shared mutable state in the core; it is
// owned here and read-only everywhere else. Consumers receive identity via
// explicit parameters, never by reaching into a global.
package session

import (
	"context"
	"log/slog"
	"sync"

	"lumina/internal/domain"
)

// Provider is the auth backend the manager wraps. In production this is
// the JWT/DB implementation in internal/auth; tests use a stub.
type Provider interface {
	// CurrentUser resolves a bearer token to an identity.
	CurrentUser(ctx context.Context, token string) (*domain.User, error)

	// SignOut terminates the session the token belongs to. An error means
	// the provider still considers the session live.
	SignOut(ctx context.Context, token string) error
}

// subscription is one registered change handler. The alive flag is the
// teardown guard: it is flipped under the manager's mutex and re-checked
// under the same mutex immediately before each delivery, so a broadcast
// that begins after Unsubscribe returns can never fire the handler.
type subscription struct {
	fn    func(*domain.User)
	alive bool
}

// Manager is the single source of truth for the current identity.
type Manager struct {
	provider Provider
	log      *slog.Logger

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
}

// NewManager constructs a Manager over the given provider.
func NewManager(provider Provider, log *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		log:      log,
		subs:     make(map[int]*subscription),
	}
}

// CurrentUser returns the identity the token resolves to, or nil when there
// is no active session. A transiently unavailable provider also yields nil
// rather than a fault: the initial session check must not block the caller
// on an error it cannot act on.
func (m *Manager) CurrentUser(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	user, err := m.provider.CurrentUser(ctx, token)
	if err != nil {
		m.log.Warn("session check degraded to none", "error", err)
		return nil
	}
	return user
}

// Subscribe registers fn for session-change notifications (login, logout).
// The returned function unsubscribes: any broadcast that begins afterward
// skips fn. fn runs outside the manager's mutex, so a handler may call its
// own unsubscribe (or Subscribe) without deadlocking.
func (m *Manager) Subscribe(fn func(*domain.User)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = &subscription{fn: fn, alive: true}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			sub.alive = false
			delete(m.subs, id)
		}
	}
}

// Logout asks the provider to terminate the session. The local view changes
// only when the provider confirms: on failure the error is returned and no
// logged-out notification is emitted, so the local state never claims a
// logout the provider did not perform.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if err := m.provider.SignOut(ctx, token); err != nil {
		m.log.Error("logout rejected by provider", "error", err)
		return err
	}
	m.broadcast(nil)
	return nil
}

// NotifyLogin broadcasts a confirmed sign-in to all subscribers. Called by
// the auth handlers after the provider has issued a session.
func (m *Manager) NotifyLogin(user *domain.User) {
	m.broadcast(user)
}

// broadcast invokes every live subscriber with the new identity. The
// subscriber set is snapshotted under the mutex, then each handler runs
// with the mutex released so it can subscribe or unsubscribe reentrantly.
// The alive flag is re-checked under the mutex right before each delivery,
// so a subscription torn down mid-broadcast is skipped.
func (m *Manager) broadcast(user *domain.User) {
	m.mu.Lock()
	snapshot := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		snapshot = append(snapshot, sub)
	}
	m.mu.Unlock()

	for _, sub := range snapshot {
		m.mu.Lock()
		alive := sub.alive
		m.mu.Unlock()
		if alive {
			sub.fn(user)
		}
	}
}
