package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/pagewatch/internal/domain"
	"github.com/hamed0406/pagewatch/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	states map[string]domain.CachedState
}

func New() *Store {
	return &Store{states: make(map[string]domain.CachedState)}
}

func (m *Store) GetFingerprint(ctx context.Context, target string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[target]
	if !ok {
		return "", false, nil
	}
	return st.Fingerprint, true, nil
}

func (m *Store) SetState(ctx context.Context, target, content, fingerprint string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[target] = domain.CachedState{
		Target:      target,
		Content:     content,
		Fingerprint: fingerprint,
		LastUpdated: now.UTC(),
	}
	return nil
}

func (m *Store) Get(ctx context.Context, target string) (*domain.CachedState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[target]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *Store) Close() error { return nil }
