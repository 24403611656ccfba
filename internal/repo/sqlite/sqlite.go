package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/pagewatch/internal/domain"
	"github.com/hamed0406/pagewatch/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS page_state (
  target       TEXT PRIMARY KEY,
  content      TEXT NOT NULL,
  fingerprint  TEXT NOT NULL,
  last_updated TEXT NOT NULL
)`

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("store_ready", zap.String("driver", "sqlite"), zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) GetFingerprint(ctx context.Context, target string) (string, bool, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM page_state WHERE target = ?`, target).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get fingerprint: %w", err)
	}
	return fp, true, nil
}

func (s *Store) SetState(ctx context.Context, target, content, fingerprint string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_state(target, content, fingerprint, last_updated) VALUES(?,?,?,?)
		 ON CONFLICT(target) DO UPDATE SET
		   content=excluded.content,
		   fingerprint=excluded.fingerprint,
		   last_updated=excluded.last_updated`,
		target, content, fingerprint, now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, target string) (*domain.CachedState, error) {
	st := domain.CachedState{Target: target}
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT content, fingerprint, last_updated FROM page_state WHERE target = ?`, target,
	).Scan(&st.Content, &st.Fingerprint, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	st.LastUpdated, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse last_updated %q: %w", ts, err)
	}
	return &st, nil
}
