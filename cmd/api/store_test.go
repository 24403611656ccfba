package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/config"
	"github.com/hamed0406/pagewatch/internal/repo/memory"
	"github.com/hamed0406/pagewatch/internal/repo/sqlite"
)

func TestOpenStore_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, config.Config{StoreDriver: config.DriverMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("want *memory.Store, got %T", s)
	}

	path := filepath.Join(t.TempDir(), "state.db")
	s, err = openStore(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.Store); !ok {
		t.Fatalf("want *sqlite.Store, got %T", s)
	}
	if err := s.SetState(ctx, "https://a", "c", "fp", time.Now()); err != nil {
		t.Fatalf("sqlite write: %v", err)
	}

	if _, err := openStore(ctx, config.Config{StoreDriver: "redis"}, zap.NewNop()); err == nil {
		t.Fatalf("want error for unknown driver")
	}
}
