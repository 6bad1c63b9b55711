package persistence

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/repository"
)

const defaultPingTimeout = 2 * time.Second

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Repositories bundles the Postgres-backed stores the services depend on.
type Repositories struct {
	Customers repository.CustomerRepository
	Tickets   repository.TicketRepository
	Messages  repository.TicketMessageRepository
	History   repository.TicketHistoryRepository
	Snapshots repository.Snapshotter
}

// NewRepositories builds every repository over db.
func NewRepositories(db repository.DB) Repositories {
	return Repositories{
		Customers: repository.NewCustomerRepository(db),
		Tickets:   repository.NewTicketRepository(db),
		Messages:  repository.NewTicketMessageRepository(db),
		History:   repository.NewTicketHistoryRepository(db),
		Snapshots: repository.NewSnapshotRepository(db),
	}
}

// NewPostgres establishes a connection pool. Callers pick the in-memory store when no DSN is set.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres", zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

// Migrate applies the pending migrations found in dir.
func (p *Postgres) Migrate(ctx context.Context, dir string, logger *zap.Logger) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	return RunMigrations(ctx, p.Pool, os.DirFS(dir), logger)
}

// Repositories returns the stores backed by the pool.
func (p *Postgres) Repositories() Repositories {
	return NewRepositories(p.Pool)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Ping verifies database connectivity, bounding the check when ctx carries no deadline.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return errors.New("postgres pool not configured")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	return p.Pool.Ping(ctx)
}
