// Package session holds the signed-in state of a client process. A Holder is
// created once, passed to whatever needs the session and closed on exit.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"crwn/internal/auth"
	"crwn/internal/models"
	"crwn/internal/observability"
)

// Event names a session change.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventSignedOut      Event = "SIGNED_OUT"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("not signed in")

// Authenticator is the part of the remote auth API the holder uses.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	GetSession(ctx context.Context, token string) (*auth.Session, error)
	Refresh(ctx context.Context, token string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Listener receives every session change. s is nil after sign-out.
type Listener func(event Event, s *auth.Session)

// Holder owns the current session, its persisted token and its subscribers.
type Holder struct {
	auth  Authenticator
	store Store
	now   func() time.Time

	mu        sync.Mutex
	session   *auth.Session
	listeners map[int]Listener
	nextID    int

	pending sync.WaitGroup
}

func NewHolder(a Authenticator, store Store) *Holder {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Holder{
		auth:      a,
		store:     store,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Init restores the persisted token. A token the server rejects is discarded
// and the holder starts signed out. Listeners get INITIAL_SESSION either way.
func (h *Holder) Init(ctx context.Context) error {
	token, err := h.store.Load()
	if err != nil {
		return err
	}

	var current *auth.Session
	if token != "" {
		current, err = h.auth.GetSession(ctx, token)
		switch {
		case err == nil:
		case models.HasCode(err, models.CodeUnauthorized):
			observability.GlobalLogger.InfoContext(ctx, "discarding stale session token")
			if err := h.store.Clear(); err != nil {
				return err
			}
		default:
			return err
		}
	}

	h.set(current)
	h.emit(EventInitialSession, current)
	return nil
}

func (h *Holder) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	s, err := h.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := h.Adopt(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Adopt makes s, obtained elsewhere (onboarding), the current session.
func (h *Holder) Adopt(s *auth.Session) error {
	if s == nil {
		return ErrNoSession
	}
	if err := h.store.Save(s.AccessToken); err != nil {
		return err
	}
	h.set(s)
	h.emit(EventSignedIn, s)
	return nil
}

// Refresh exchanges the current token for a new one.
func (h *Holder) Refresh(ctx context.Context) (*auth.Session, error) {
	current := h.Current()
	if current == nil {
		return nil, ErrNoSession
	}
	next, err := h.auth.Refresh(ctx, current.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := h.store.Save(next.AccessToken); err != nil {
		return nil, err
	}
	h.set(next)
	h.emit(EventTokenRefreshed, next)
	return next, nil
}

// SignOut forgets the session locally and tells listeners before revoking
// the token remotely in the background. Close waits for the revocation.
func (h *Holder) SignOut(ctx context.Context) error {
	h.mu.Lock()
	previous := h.session
	h.session = nil
	h.mu.Unlock()

	clearErr := h.store.Clear()
	h.emit(EventSignedOut, nil)

	if previous != nil {
		token := previous.AccessToken
		ctx = context.WithoutCancel(ctx)
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			fields := map[string]interface{}{"user_id": userID(previous)}
			observability.LogAsyncOperationStart(ctx, "remote_sign_out", fields)
			if err := h.auth.SignOut(ctx, token); err != nil {
				observability.LogAsyncOperationError(ctx, "remote_sign_out", err, fields)
				return
			}
			observability.LogAsyncOperationEnd(ctx, "remote_sign_out", fields)
		}()
	}
	return clearErr
}

// Current returns the session, or nil. An expired session is dropped and
// reported as SIGNED_OUT.
func (h *Holder) Current() *auth.Session {
	h.mu.Lock()
	s := h.session
	expired := s != nil && s.Expired(h.now())
	if expired {
		h.session = nil
	}
	h.mu.Unlock()

	if !expired {
		return s
	}
	if err := h.store.Clear(); err != nil {
		observability.GlobalLogger.Warn("clear expired session token", slog.String("error", err.Error()))
	}
	h.emit(EventSignedOut, nil)
	return nil
}

// Token returns the current access token or "".
func (h *Holder) Token() string {
	if s := h.Current(); s != nil {
		return s.AccessToken
	}
	return ""
}

// Subscribe registers fn and returns a function that removes it.
func (h *Holder) Subscribe(fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Close waits for background revocations and drops every listener.
func (h *Holder) Close() {
	h.pending.Wait()
	h.mu.Lock()
	h.listeners = make(map[int]Listener)
	h.mu.Unlock()
}

func (h *Holder) set(s *auth.Session) {
	h.mu.Lock()
	h.session = s
	h.mu.Unlock()
}

// emit calls listeners in subscription order outside the lock.
func (h *Holder) emit(event Event, s *auth.Session) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(event, s)
	}
}

func userID(s *auth.Session) uint {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}
