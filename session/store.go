package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store is the single owner of the session state.
type Store struct {
	mu      sync.RWMutex
	token   string
	profile *Profile

	// persistMu serializes writes to storage so it always ends up matching
	// the latest in-memory token.
	persistMu sync.Mutex
	storage   TokenStorage

	subMu  sync.Mutex
	subs   []subscriber
	nextID uint64

	logger Logger
	now    func() time.Time
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// New creates a Store and hydrates its token from storage. A storage that
// cannot be read leaves the session empty.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{now: time.Now}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if s.storage == nil {
		s.storage = NewMemoryStorage()
	}

	token, err := s.storage.Load(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("could not load persisted token, starting logged out", "error", err)
		}
		token = ""
	}
	s.token = token

	if s.logger != nil {
		s.logger.Debug("session hydrated", "authenticated", token != "")
	}
	return s, nil
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns a copy of the current user's profile. It is nil while
// logged out and may be nil while logged in until it has been fetched.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.clone()
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to be called, synchronously and in registration
// order, every time the session is cleared. The returned function removes
// the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Invalidate clears the session if it still holds token and reports
// whether it did. A mismatch means the session changed since token was
// read; nothing happens and no event is published.
func (s *Store) Invalidate(ctx context.Context, token string, cause error) bool {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("ignoring invalidation for a stale token")
		}
		return false
	}
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("session invalidated", "error", cause)
	}
	s.persist(ctx)
	s.publish(Event{Reason: ReasonInvalidated, Cause: cause, At: s.now()})
	return true
}

// Clear empties the session unconditionally and publishes an event, even
// when it was already empty.
func (s *Store) Clear(ctx context.Context, reason Reason) {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("session cleared", "reason", reason)
	}
	s.persist(ctx)
	s.publish(Event{Reason: reason, At: s.now()})
}

// establish sets token and profile in one step and persists the token.
func (s *Store) establish(ctx context.Context, token string, profile *Profile) {
	s.mu.Lock()
	s.token = token
	s.profile = profile.clone()
	s.mu.Unlock()

	s.persist(ctx)
}

// setProfile stores profile if the session still holds token.
func (s *Store) setProfile(token string, profile *Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false
	}
	s.profile = profile.clone()
	return true
}

// persist writes the current in-memory token to storage. Failures are
// logged; the in-memory session stays authoritative.
func (s *Store) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	token := s.Token()

	var err error
	if token == "" {
		err = s.storage.Remove(ctx)
	} else {
		err = s.storage.Save(ctx, token)
	}
	if err != nil && s.logger != nil {
		s.logger.Error("could not persist token", "error", err)
	}
}

func (s *Store) publish(e Event) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(e)
	}
}
