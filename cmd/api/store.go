package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/config"
	"github.com/hamed0406/pagewatch/internal/repo"
	"github.com/hamed0406/pagewatch/internal/repo/memory"
	"github.com/hamed0406/pagewatch/internal/repo/postgres"
	"github.com/hamed0406/pagewatch/internal/repo/sqlite"
)

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.StateStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverMemory, "":
		logger.Warn("store_memory", zap.String("note", "state is lost on restart"))
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
