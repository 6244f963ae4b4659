package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/zx8086/url-shortener/internal/metrics"
	"github.com/zx8086/url-shortener/internal/shortener"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a Connector.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// RetryPolicy bounds connection establishment.
type RetryPolicy struct {
	// Attempts is the maximum number of dials per establishment run.
	Attempts uint
	// Backoff is the delay before the second attempt; it doubles for each further attempt.
	Backoff time.Duration
	// DialTimeout bounds a single dial.
	DialTimeout time.Duration
}

// DefaultRetryPolicy is three attempts with 200ms, 400ms backoff.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:    3,
	Backoff:     200 * time.Millisecond,
	DialTimeout: 10 * time.Second,
}

// Connector owns the process-wide session to the backing store. The session
// is created on first use; concurrent callers share a single in-flight
// connection attempt.
type Connector struct {
	backend Backend
	policy  RetryPolicy
	logger  *zap.Logger
	metrics *metrics.Metrics

	flight singleflight.Group

	mu      sync.RWMutex
	session Session
	state   State
}

// NewConnector creates a connector for backend. Nothing is dialled until Acquire.
func NewConnector(backend Backend, policy RetryPolicy, logger *zap.Logger, m *metrics.Metrics) *Connector {
	if policy.Attempts == 0 {
		policy.Attempts = 1
	}

	if policy.DialTimeout <= 0 {
		policy.DialTimeout = DefaultRetryPolicy.DialTimeout
	}

	return &Connector{
		backend: backend,
		policy:  policy,
		logger:  logger.With(zap.String("backend", backend.Name)),
		metrics: m,
	}
}

// Backend returns the name of the store this connector talks to.
func (c *Connector) Backend() string {
	return c.backend.Name
}

// State reports the current lifecycle state.
func (c *Connector) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Classify maps a store error to a Class using the backend's table.
func (c *Connector) Classify(err error) Class {
	return c.backend.Classify(err)
}

// Acquire returns the ready session, connecting first if needed.
// ctx only bounds how long this caller waits; it does not cancel the shared attempt.
func (c *Connector) Acquire(ctx context.Context) (Session, error) {
	if s := c.current(); s != nil {
		return s, nil
	}

	ch := c.flight.DoChan(c.backend.Name, func() (any, error) {
		return c.establish()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(Session), nil
	case <-ctx.Done():
		return nil, shortener.NewError(shortener.KindTransient, "waiting for store connection", ctx.Err())
	}
}

// Invalidate drops session after a fatal error so the next Acquire reconnects.
// It does nothing if session is no longer the current one.
func (c *Connector) Invalidate(session Session) {
	c.mu.Lock()
	if c.session == nil || c.session != session {
		c.mu.Unlock()

		return
	}

	c.session = nil
	c.state = StateUninitialized
	c.mu.Unlock()

	c.logger.Warn("store session invalidated")

	if err := session.Close(); err != nil {
		c.logger.Warn("closing invalidated session failed", zap.Error(err))
	}
}

// Ping acquires the session and checks it is alive.
func (c *Connector) Ping(ctx context.Context) error {
	s, err := c.Acquire(ctx)
	if err != nil {
		return err
	}

	if err = s.Ping(ctx); err != nil {
		if c.Classify(err) == ClassFatal {
			c.Invalidate(s)
		}

		return err
	}

	return nil
}

// Shutdown closes the session, if any.
func (c *Connector) Shutdown() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.state = StateUninitialized
	c.mu.Unlock()

	if s == nil {
		return nil
	}

	return s.Close()
}

func (c *Connector) current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session
}

func (c *Connector) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// establish runs one connection establishment: up to policy.Attempts dials,
// stopping early on anything that is not transient.
func (c *Connector) establish() (Session, error) {
	// Another flight may have finished between the fast path and this one starting.
	if s := c.current(); s != nil {
		return s, nil
	}

	c.setState(StateConnecting)
	c.logger.Info("connecting to store")

	var (
		session   Session
		attempts  uint
		lastClass Class
	)

	dial := func(attempt uint) error {
		attempts = attempt

		ctx, cancel := context.WithTimeout(context.Background(), c.policy.DialTimeout)
		defer cancel()

		s, err := c.backend.Dial(ctx)
		if err != nil {
			lastClass = c.backend.Classify(err)
			c.metrics.ConnectAttempt(c.backend.Name, lastClass.String())
			c.logger.Warn("store connection attempt failed",
				zap.Uint("attempt", attempts),
				zap.Uint("max_attempts", c.policy.Attempts),
				zap.Stringer("class", lastClass),
				zap.Error(err),
			)

			return err
		}

		c.metrics.ConnectAttempt(c.backend.Name, "success")
		session = s

		return nil
	}

	// Guards the attempt count itself so no backoff is slept before a dial
	// that will not happen.
	onlyTransient := func(attempt uint) bool {
		if attempt >= c.policy.Attempts {
			return false
		}

		return attempt == 0 || lastClass == ClassTransient
	}

	err := retry.Retry(dial,
		onlyTransient,
		strategy.Limit(c.policy.Attempts),
		strategy.Backoff(backoff.BinaryExponential(c.policy.Backoff/2)),
	)
	if err != nil {
		c.setState(StateUninitialized)

		return nil, c.connectError(lastClass, attempts, err)
	}

	c.mu.Lock()
	c.session = session
	c.state = StateReady
	c.mu.Unlock()

	c.logger.Info("store connection established", zap.Uint("attempts", attempts))

	return session, nil
}

func (c *Connector) connectError(class Class, attempts uint, err error) error {
	switch class {
	case ClassTransient:
		return shortener.NewError(shortener.KindConnection,
			fmt.Sprintf("store unreachable after %d attempts", attempts), err)
	case ClassFatal, ClassNotFound:
		return shortener.NewError(shortener.KindConnection, "store rejected connection", err)
	default:
		return shortener.NewError(shortener.KindUnknown, "connecting to store", err)
	}
}
