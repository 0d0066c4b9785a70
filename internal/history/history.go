package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"formcheck/internal/analysis"
	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/services"
)

// DefaultListLimit caps List when callers pass no limit.
const DefaultListLimit = 20

// MaxListLimit is the largest page List returns.
const MaxListLimit = 200

// Store persists analysis records.
type Store interface {
	Save(ctx context.Context, record analysis.Record) error
	Get(ctx context.Context, id string) (analysis.Record, error)
	List(ctx context.Context, limit int) ([]analysis.Record, error)
	Close() error
}

// Open connects to PostgreSQL when history.postgres_url is set and otherwise
// opens the SQLite database in the data directory.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	logger = logging.NewComponentLogger(logger, "history")
	if url := strings.TrimSpace(cfg.History.PostgresURL); url != "" {
		store, err := OpenPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		logger.Info("history store ready", logging.String("backend", "postgres"))
		return store, nil
	}
	store, err := OpenSQLite(ctx, cfg.HistoryDBPath())
	if err != nil {
		return nil, err
	}
	logger.Info("history store ready",
		logging.String("backend", "sqlite"),
		logging.String("path", cfg.HistoryDBPath()),
	)
	return store, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

func notFound(id string) error {
	return services.Wrap(services.ErrNotFound, "history", "get", "", fmt.Errorf("analysis %s not found", id))
}
