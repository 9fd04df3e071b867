/*
Package wizard implements the interactive capture flows: the multi-step
conversations that assemble one sale (or one dealer bulk drop) from a
user's sequential choices, and commit the result to the ledger.

PURPOSE:
  A slash command starts a session; each follow-up input (free text,
  provider button, plan pick) advances it one state. The terminal step
  writes the ledger rows and reports fresh counts. Sessions live only in
  memory: a restart forgets them, and the user just starts over.

KEY CONCEPTS IN THIS FILE (session.go):
  - Session:  one user's in-flight capture, with its state and expiry
  - Registry: the concurrent session table, with idle-expiry on touch

STATE MACHINES:
  Sale:  AwaitingCustomer -> AwaitingProvider -> AwaitingPlan -> Committed
  Bulk:  AwaitingCount -> AwaitingProvider -> Committed

OWNERSHIP AND EXPIRY:
  A session belongs to the user who started it; nobody else can advance
  it. Every successful touch pushes the idle deadline out. Input after
  the deadline gets a session-expired rejection, never a silent accept.

SEE ALSO:
  - engine.go:  transitions and ledger commits
  - janitor.go: background sweep of expired sessions
*/
package wizard

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bisonhq/salesbison/ledger"
)

// DefaultIdleTimeout is how long a session survives without input.
const DefaultIdleTimeout = 120 * time.Second

// =============================================================================
// SESSION - One in-flight capture
// =============================================================================

type Kind int

const (
	KindSale Kind = iota
	KindBulk
)

func (k Kind) String() string {
	if k == KindBulk {
		return "bulk"
	}
	return "sale"
}

type State string

const (
	StateAwaitingCustomer State = "awaiting_customer"
	StateAwaitingProvider State = "awaiting_provider"
	StateAwaitingPlan     State = "awaiting_plan"
	StateAwaitingCount    State = "awaiting_count"
	StateCommitted        State = "committed"
)

// Session is one user's in-flight capture. Values returned from the
// Registry are copies; only the Registry mutates the live record.
type Session struct {
	ID        string
	Kind      Kind
	UserID    int64
	UserName  string
	ChannelID string

	// DealerLabel is the manager label for the dealer context that
	// started a bulk session. Empty for sale sessions.
	DealerLabel string

	State    State
	Customer string
	ISP      string
	Count    int

	CreatedAt time.Time
	ExpiresAt time.Time
}

// =============================================================================
// REGISTRY - Concurrent session table
// =============================================================================

// RegistryConfig configures a Registry. Zero values get defaults.
type RegistryConfig struct {
	IdleTimeout time.Duration    // defaults to DefaultIdleTimeout
	Now         func() time.Time // defaults to time.Now
}

// Registry owns every live session. Safe for concurrent use. Sessions are
// keyed by opaque IDs that the interaction layer threads through its
// component custom IDs, so two concurrent flows never collide even for
// the same user in two channels.
type Registry struct {
	idle time.Duration
	now  func() time.Time

	mu   sync.Mutex
	byID map[string]*Session
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		idle: cfg.IdleTimeout,
		now:  cfg.Now,
		byID: make(map[string]*Session),
	}
}

// StartSale opens a sale session in AwaitingCustomer.
func (r *Registry) StartSale(userID int64, userName, channelID string) Session {
	return r.start(&Session{
		Kind:      KindSale,
		UserID:    userID,
		UserName:  userName,
		ChannelID: channelID,
		State:     StateAwaitingCustomer,
	})
}

// StartBulk opens a bulk session in AwaitingCount for one dealer context.
func (r *Registry) StartBulk(userID int64, userName, channelID, dealerLabel string) Session {
	return r.start(&Session{
		Kind:        KindBulk,
		UserID:      userID,
		UserName:    userName,
		ChannelID:   channelID,
		DealerLabel: dealerLabel,
		State:       StateAwaitingCount,
	})
}

func (r *Registry) start(s *Session) Session {
	now := r.now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(r.idle)

	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return *s
}

// Advance runs fn against the live session under the registry lock, after
// the usual checks: the session must exist, must not be idle-expired, and
// must belong to userID. A successful fn pushes the idle deadline out and
// the updated copy is returned. When fn fails the session is left exactly
// as it was, so the user can retry the same step.
func (r *Registry) Advance(id string, userID int64, fn func(*Session) error) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return Session{}, ledger.ErrNoSession
	}
	if r.now().After(s.ExpiresAt) {
		delete(r.byID, id)
		return Session{}, ledger.ErrSessionExpired
	}
	if s.UserID != userID {
		return Session{}, fmt.Errorf("session belongs to someone else: %w", ledger.ErrAccessDenied)
	}

	// fn works on a copy; a failed transition leaves the live session,
	// deadline included, exactly as it was.
	work := *s
	if err := fn(&work); err != nil {
		return Session{}, err
	}
	work.ExpiresAt = r.now().Add(r.idle)
	*s = work
	return work, nil
}

// Remove discards a session, if present. Called after commit.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// Reset discards every live session and reports how many were dropped.
func (r *Registry) Reset() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.byID)
	r.byID = make(map[string]*Session)
	return n
}

// Sweep removes idle-expired sessions and reports how many went. The
// janitor calls this periodically so abandoned flows do not accumulate;
// correctness never depends on it, since Advance checks expiry itself.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	swept := 0
	for id, s := range r.byID {
		if now.After(s.ExpiresAt) {
			delete(r.byID, id)
			swept++
		}
	}
	return swept
}

// Len reports the number of live sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
