package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"formcheck/internal/analysis"
	"formcheck/internal/blobstore"
	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/preflight"
	"formcheck/internal/scan"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request, progress scan.ProgressFunc) (*analysis.Record, error)
}

// BlobOpener opens a stored image or audio file by name.
type BlobOpener interface {
	Open(kind blobstore.Kind, name string) (*os.File, fs.FileInfo, error)
}

// HistoryReader exposes stored analyses.
type HistoryReader interface {
	Get(ctx context.Context, id string) (analysis.Record, error)
	List(ctx context.Context, limit int) ([]analysis.Record, error)
}

// HealthFunc produces the readiness report for GET /health.
type HealthFunc func(ctx context.Context) preflight.Report

// Options wires the collaborators behind the HTTP routes. History and Health
// may be nil.
type Options struct {
	Analyzer Analyzer
	Blobs    BlobOpener
	History  HistoryReader
	Health   HealthFunc
	Logger   *slog.Logger
}

// Server is the formcheck HTTP server.
type Server struct {
	bind      string
	frameSkip FrameSkipUsage
	analyzer  Analyzer
	blobs     BlobOpener
	history   HistoryReader
	health    HealthFunc
	logger    *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// NewServer builds the route table and the underlying http.Server.
func NewServer(cfg *config.Config, opts Options) *Server {
	logger := logging.NewComponentLogger(opts.Logger, "api-server")
	srv := &Server{
		bind: strings.TrimSpace(cfg.Server.Bind),
		frameSkip: FrameSkipUsage{
			Default: cfg.Scan.DefaultFrameSkip,
			Min:     cfg.Scan.MinFrameSkip,
			Max:     cfg.Scan.MaxFrameSkip,
		},
		analyzer: opts.Analyzer,
		blobs:    opts.Blobs,
		history:  opts.History,
		health:   opts.Health,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.handleUsage)
	mux.HandleFunc("GET /analyze", srv.handleAnalyzeQuery)
	mux.HandleFunc("POST /analyze", srv.handleAnalyzeBody)
	mux.HandleFunc("GET /image/{name}", srv.handleBlob(blobstore.Image))
	mux.HandleFunc("GET /audio/{name}", srv.handleBlob(blobstore.Audio))
	mux.HandleFunc("GET /analyses", srv.handleHistoryList)
	mux.HandleFunc("GET /analyses/{id}", srv.handleHistoryItem)
	mux.HandleFunc("GET /health", srv.handleHealth)

	srv.handler = requestContext(accessLog(logger, cors(mux)))

	readTimeout := time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	writeTimeout := time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves in the background
// until ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, giving in-flight requests five seconds.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}
