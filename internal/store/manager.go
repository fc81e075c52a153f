package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrUnavailable means the store connection is down and no usable pool exists
// right now. Callers surface it as a generic 500; they never block waiting.
var ErrUnavailable = errors.New("task store unavailable")

// DialFunc establishes a new connection pool.
type DialFunc func(ctx context.Context) (*pgxpool.Pool, error)

// PingFunc checks pool health.
type PingFunc func(ctx context.Context, pool *pgxpool.Pool) error

// Options configures a Manager.
type Options struct {
	// MaxAttempts caps consecutive failed connection attempts. Once exhausted,
	// EnsureConnected keeps failing until the process restarts or a later
	// successful reconnect resets the budget.
	MaxAttempts int
	// RetryDelay is the fixed delay enforced between attempts. While it has
	// not elapsed, callers fail fast instead of re-dialing.
	RetryDelay time.Duration
	// Ping overrides the health check (default: pool.Ping with a 3s timeout).
	Ping PingFunc
	// OnConnect runs after each successful dial, before the pool is published.
	// An error counts as a failed attempt.
	OnConnect func(ctx context.Context, pool *pgxpool.Pool) error
	Logger    zerolog.Logger
}

// Manager owns the shared store connection. At most one establishment attempt
// is in flight at a time; concurrent callers fail fast with ErrUnavailable
// rather than stacking dials or blocking.
type Manager struct {
	dial      DialFunc
	ping      PingFunc
	onConnect func(ctx context.Context, pool *pgxpool.Pool) error
	maxTries  int
	delay     time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	pool       *pgxpool.Pool
	connecting bool
	attempts   int
	nextTry    time.Time
}

func NewManager(dial DialFunc, opts Options) *Manager {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	ping := opts.Ping
	if ping == nil {
		ping = defaultPing
	}
	return &Manager{
		dial:      dial,
		ping:      ping,
		onConnect: opts.OnConnect,
		maxTries:  opts.MaxAttempts,
		delay:     opts.RetryDelay,
		log:       opts.Logger,
	}
}

// EnsureConnected returns a healthy pool, dialing if necessary. A lost
// connection drops the stale pool and grants a fresh retry budget, mirroring
// a driver "disconnected" event restarting the retry loop.
func (m *Manager) EnsureConnected(ctx context.Context) (*pgxpool.Pool, error) {
	m.mu.Lock()
	pool := m.pool
	connecting := m.connecting
	m.mu.Unlock()

	if pool != nil {
		err := m.ping(ctx, pool)
		if err == nil {
			return pool, nil
		}
		// A dead or expired request context fails the ping even when the pool
		// is fine. That is the caller's problem, not a lost connection: keep
		// the pool for everyone else.
		if ctx.Err() != nil {
			return nil, err
		}
		m.log.Warn().Msg("store connection lost")
		m.mu.Lock()
		if m.pool == pool {
			m.pool.Close()
			m.pool = nil
			m.attempts = 0
			m.nextTry = time.Time{}
		}
		m.mu.Unlock()
	} else if connecting {
		return nil, ErrUnavailable
	}

	return m.connect(ctx)
}

func (m *Manager) connect(ctx context.Context) (*pgxpool.Pool, error) {
	m.mu.Lock()
	if m.pool != nil {
		pool := m.pool
		m.mu.Unlock()
		return pool, nil
	}
	if m.connecting {
		m.mu.Unlock()
		return nil, ErrUnavailable
	}
	if m.attempts >= m.maxTries {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: retry budget exhausted after %d attempts", ErrUnavailable, m.maxTries)
	}
	if time.Now().Before(m.nextTry) {
		m.mu.Unlock()
		return nil, ErrUnavailable
	}
	m.connecting = true
	m.attempts++
	attempt := m.attempts
	m.mu.Unlock()

	pool, err := m.dial(ctx)
	if err == nil {
		if err = m.ping(ctx, pool); err == nil && m.onConnect != nil {
			err = m.onConnect(ctx, pool)
		}
		if err != nil {
			pool.Close()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.connecting = false
	if err != nil {
		m.nextTry = time.Now().Add(m.delay)
		m.log.Error().Err(err).Int("attempt", attempt).Int("max", m.maxTries).
			Msg("store connection attempt failed")
		if attempt >= m.maxTries {
			m.log.Error().Msg("store retry budget exhausted; store operations will fail until reconnect")
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.pool = pool
	m.attempts = 0
	m.nextTry = time.Time{}
	m.log.Info().Int("attempt", attempt).Msg("store connected")
	return pool, nil
}

// Close shuts down the current pool, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
}

// Dial builds the standard DialFunc for a Postgres DSN.
func Dial(dsn string) DialFunc {
	return func(ctx context.Context) (*pgxpool.Pool, error) {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("pg parse config: %w", err)
		}
		cfg.MaxConns = 10
		cfg.MinConns = 2
		cfg.MaxConnIdleTime = 5 * time.Minute
		cfg.MaxConnLifetime = 30 * time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("pg connect: %w", err)
		}
		return pool, nil
	}
}

func defaultPing(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}
