package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
)

const (
	defaultMaxSessions   = 100
	defaultIdleTimeout   = 5 * time.Minute
	defaultSweepInterval = 60 * time.Second
)

// Transport is the live-connection handle tracked per session. The registry
// closes it on removal; implementations whose resources need no cleanup
// return nil from Close.
type Transport interface {
	SessionID() string
	Close() error
}

// ErrCapacityExceeded is returned by Add when the registry is full and the id
// is genuinely new. Callers on the accept path must reject the connection.
type ErrCapacityExceeded struct {
	Max int
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("session limit of %d reached", e.Max)
}

type entry struct {
	transport    Transport
	lastActivity time.Time
}

// Registry tracks live streaming sessions, bounds their count and evicts
// idle ones on a periodic sweep.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	clock clockwork.Clock
	log   *slog.Logger

	maxSessions   int
	idleTimeout   time.Duration
	sweepInterval time.Duration

	sweepStop    chan struct{}
	sweepRunning bool
}

type Option func(*Registry)

func WithMaxSessions(max int) Option {
	return func(r *Registry) {
		if max <= 0 {
			panic("max sessions must be > 0")
		}
		r.maxSessions = max
	}
}

func WithIdleTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		if timeout <= 0 {
			panic("idle timeout must be > 0")
		}
		r.idleTimeout = timeout
	}
}

func WithSweepInterval(interval time.Duration) Option {
	return func(r *Registry) {
		if interval <= 0 {
			panic("sweep interval must be > 0")
		}
		r.sweepInterval = interval
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:      make(map[string]*entry),
		clock:         clockwork.NewRealClock(),
		log:           slog.Default(),
		maxSessions:   defaultMaxSessions,
		idleTimeout:   defaultIdleTimeout,
		sweepInterval: defaultSweepInterval,
		sweepStop:     make(chan struct{}),
	}

	for _, o := range opts {
		o(r)
	}
	return r
}

// Add registers transport under id. Re-adding a tracked id always succeeds
// and counts as a refresh, so a reconnect-with-same-id handoff cannot be
// starved by its own lingering session. A genuinely new id is rejected at
// capacity.
func (r *Registry) Add(id string, transport Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists && len(r.sessions) >= r.maxSessions {
		return &ErrCapacityExceeded{Max: r.maxSessions}
	}

	r.sessions[id] = &entry{
		transport:    transport,
		lastActivity: r.clock.Now(),
	}
	r.log.Debug("session added", "id", id, "count", len(r.sessions))
	return nil
}

// Get returns the transport for id and refreshes its activity timestamp
// (sliding idle window). A miss has no side effect.
func (r *Registry) Get(id string) (Transport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastActivity = r.clock.Now()
	return e.transport, true
}

// Remove closes the session's transport and deletes it. Removing an absent
// id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := e.transport.Close(); err != nil {
		r.log.Warn("closing session transport", "id", id, "err", err)
	}
	r.log.Debug("session removed", "id", id, "count", count)
}

// Cleanup removes every session idle for longer than the timeout. The
// idleness check and the map removal happen under one lock, so a session
// refreshed or re-added while the sweep runs is never torn down by it.
// Transports are closed after the lock is released.
func (r *Registry) Cleanup() {
	now := r.clock.Now()

	r.mu.Lock()
	var expired []string
	var transports []Transport
	for id, e := range r.sessions {
		if now.Sub(e.lastActivity) > r.idleTimeout {
			delete(r.sessions, id)
			expired = append(expired, id)
			transports = append(transports, e.transport)
		}
	}
	r.mu.Unlock()

	for i, transport := range transports {
		r.log.Info("session idle timeout", "id", expired[i])
		if err := transport.Close(); err != nil {
			r.log.Warn("closing session transport", "id", expired[i], "err", err)
		}
	}
}

// Len reports the current session count, for health reporting.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartSweep runs Cleanup on the configured interval until Stop.
func (r *Registry) StartSweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sweepRunning {
		return
	}
	r.sweepRunning = true
	stop := r.sweepStop

	go func() {
		ticker := r.clock.NewTicker(r.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				r.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the sweep and force-removes every session so no transport
// handle dangles across shutdown. Close errors are aggregated.
func (r *Registry) Stop() error {
	r.mu.Lock()
	if r.sweepRunning {
		close(r.sweepStop)
		r.sweepStop = make(chan struct{})
		r.sweepRunning = false
	}
	remaining := make(map[string]*entry, len(r.sessions))
	for id, e := range r.sessions {
		remaining[id] = e
	}
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	var errs *multierror.Error
	for id, e := range remaining {
		if err := e.transport.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing session %s: %w", id, err))
		}
	}
	return errs.ErrorOrNil()
}
