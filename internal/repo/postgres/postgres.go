package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/domain"
	"github.com/hamed0406/pagewatch/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS page_state (
  target       TEXT PRIMARY KEY,
  content      TEXT NOT NULL,
  fingerprint  TEXT NOT NULL,
  last_updated TIMESTAMPTZ NOT NULL
)`

// pool is the subset of *pgxpool.Pool the store uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Store struct {
	pool pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(ctxPing); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := NewWithPool(p, log)
	if err := s.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	s.log.Info("store_ready", zap.String("driver", "postgres"))
	return s, nil
}

// NewWithPool wraps an existing pool; used by tests.
func NewWithPool(p pool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: p, log: log}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) GetFingerprint(ctx context.Context, target string) (string, bool, error) {
	var fp string
	err := s.pool.QueryRow(ctx,
		`SELECT fingerprint FROM page_state WHERE target = $1`, target,
	).Scan(&fp)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get fingerprint: %w", err)
	}
	return fp, true, nil
}

// SetState is a single upsert, so the three columns change together.
func (s *Store) SetState(ctx context.Context, target, content, fingerprint string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_state (target, content, fingerprint, last_updated)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (target)
		 DO UPDATE SET content = EXCLUDED.content,
		               fingerprint = EXCLUDED.fingerprint,
		               last_updated = EXCLUDED.last_updated`,
		target, content, fingerprint, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, target string) (*domain.CachedState, error) {
	st := domain.CachedState{Target: target}
	err := s.pool.QueryRow(ctx,
		`SELECT content, fingerprint, last_updated FROM page_state WHERE target = $1`, target,
	).Scan(&st.Content, &st.Fingerprint, &st.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	st.LastUpdated = st.LastUpdated.UTC()
	return &st, nil
}
