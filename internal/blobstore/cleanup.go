package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"formcheck/internal/logging"
)

// CleanResult contains the outcome of a retention sweep.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes artifacts of every kind older than maxAge. Files that do
// not follow the artifact naming scheme are left alone.
func (s *Store) CleanStale(ctx context.Context, maxAge time.Duration) CleanResult {
	result := CleanResult{}
	cutoff := s.now().Add(-maxAge)

	for _, kind := range Kinds() {
		dir, err := s.dir(kind)
		if err != nil {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			}
			continue
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return result
			}
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), kind.Prefix+"_") || !strings.HasSuffix(entry.Name(), kind.Ext) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(s.logger, "failed to remove stale artifact", "artifact_cleanup_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check data_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			result.Removed = append(result.Removed, path)
			s.logger.Info("removed stale artifact",
				logging.String("path", path),
				logging.Duration("age", s.now().Sub(info.ModTime())),
				logging.String(logging.FieldEventType, "artifact_cleanup"),
			)
		}
	}
	return result
}

// RunJanitor sweeps stale artifacts immediately and then every interval until
// ctx ends. A non-positive maxAge disables the janitor.
func (s *Store) RunJanitor(ctx context.Context, maxAge, interval time.Duration) {
	if maxAge <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s.sweep(ctx, maxAge)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, maxAge)
		}
	}
}

func (s *Store) sweep(ctx context.Context, maxAge time.Duration) {
	result := s.CleanStale(ctx, maxAge)
	s.logger.Debug("artifact sweep finished",
		logging.Int("removed", len(result.Removed)),
		logging.Int("errors", len(result.Errors)),
	)
}
