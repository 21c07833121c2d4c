package pgx

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:embed migrations/*.sql
var migrations embed.FS

const defaultDialTimeout = 10 * time.Second

var ErrGatewayClosed = errors.New("database gateway is closed")

// Dialer opens a ready-to-use pool for dsn
type Dialer func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

// Gateway lazily opens one shared pool for the process lifetime. Concurrent
// first callers share a single dial; a failed dial is forgotten so the next
// call retries.
type Gateway struct {
	dsn         string
	dial        Dialer
	dialTimeout time.Duration
	logger      *zap.Logger

	mu     sync.RWMutex
	pool   *pgxpool.Pool
	closed bool
	flight singleflight.Group
}

type GatewayOption func(*Gateway)

func WithDialer(dial Dialer) GatewayOption {
	return func(g *Gateway) { g.dial = dial }
}

func WithDialTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.dialTimeout = d }
}

func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

func NewGateway(dsn string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		dsn:         dsn,
		dial:        dialPool,
		dialTimeout: defaultDialTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// dialPool opens a pool and pings it so the pool is never published unverified
func dialPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (g *Gateway) current() (*pgxpool.Pool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrGatewayClosed
	}
	return g.pool, nil
}

// Connect returns the shared pool, dialing it on first use
func (g *Gateway) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if pool, err := g.current(); pool != nil || err != nil {
		return pool, err
	}

	ch := g.flight.DoChan("connect", func() (any, error) {
		if pool, err := g.current(); pool != nil || err != nil {
			return pool, err
		}

		// The dial outlives any single caller's cancellation; it is shared.
		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.dialTimeout)
		defer cancel()

		started := time.Now()
		pool, err := g.dial(dialCtx, g.dsn)
		if err != nil {
			g.logger.Warn("database connect failed", zap.Error(err))
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed {
			pool.Close()
			return nil, ErrGatewayClosed
		}
		g.pool = pool
		g.logger.Info("database connected", zap.Duration("took", time.Since(started)))
		return pool, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*pgxpool.Pool), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Migrate applies the embedded schema migrations
func (g *Gateway) Migrate(ctx context.Context) error {
	pool, err := g.Connect(ctx)
	if err != nil {
		return err
	}

	// db borrows connections from the pool; the pool is released by Close
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(zap.NewStdLog(g.logger))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the pool. Later Connect calls fail with ErrGatewayClosed.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.pool != nil {
		g.pool.Close()
		g.pool = nil
	}
}
