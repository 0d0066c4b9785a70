package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/services"
)

// Download is a video saved to scratch space. Call Cleanup when done.
type Download struct {
	Path string
	Size int64
}

// Cleanup removes the scratch file. It is safe to call more than once.
func (d *Download) Cleanup() error {
	if d == nil || d.Path == "" {
		return nil
	}
	err := os.Remove(d.Path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	d.Path = ""
	return err
}

// Fetcher validates and downloads source videos.
type Fetcher struct {
	allowed   []string
	tempDir   string
	chunkSize int
	client    *http.Client
	logger    *slog.Logger
}

// New builds a fetcher from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Fetcher {
	timeout := cfg.FetchTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	chunk := cfg.Fetch.ChunkSize
	if chunk <= 0 {
		chunk = 8192
	}
	return &Fetcher{
		allowed:   append([]string(nil), cfg.Fetch.AllowedDomains...),
		tempDir:   cfg.Paths.TempDir,
		chunkSize: chunk,
		client:    &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "fetch"),
	}
}

// ValidateURL accepts https URLs containing one of the allowed domains.
func (f *Fetcher) ValidateURL(videoURL string) error {
	if strings.HasPrefix(videoURL, "https://") {
		for _, domain := range f.allowed {
			if domain != "" && strings.Contains(videoURL, domain) {
				return nil
			}
		}
	}
	return services.Wrap(services.ErrInvalidURL, "fetch", "validate", "",
		fmt.Errorf("Invalid URL format. URL must be from an allowed domain: %s", strings.Join(f.allowed, ", ")))
}

// Fetch validates videoURL and streams it into a scratch file.
func (f *Fetcher) Fetch(ctx context.Context, videoURL string) (*Download, error) {
	if err := f.ValidateURL(videoURL); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("downloading video", logging.String(logging.FieldVideoURL, videoURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidURL, "fetch", "request", "", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "", fmt.Errorf("Error downloading video: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "",
			fmt.Errorf("Error downloading video: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	if err := os.MkdirAll(f.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	file, err := os.CreateTemp(f.tempDir, "video-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	dl := &Download{Path: file.Name()}

	size, copyErr := io.CopyBuffer(file, resp.Body, make([]byte, f.chunkSize))
	closeErr := file.Close()
	if copyErr != nil {
		_ = dl.Cleanup()
		return nil, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "", fmt.Errorf("Error downloading video: %v", copyErr))
	}
	if closeErr != nil {
		_ = dl.Cleanup()
		return nil, fmt.Errorf("close scratch file: %w", closeErr)
	}
	dl.Size = size
	logger.Info("video downloaded",
		logging.String("path", dl.Path),
		logging.Int64("bytes", size),
	)
	return dl, nil
}
