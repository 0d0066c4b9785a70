package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"formcheck/internal/config"
	"formcheck/internal/logging"
	"formcheck/internal/services"
)

// Kind describes one family of stored artifacts.
type Kind struct {
	Name        string
	Prefix      string
	Ext         string
	ContentType string
	Route       string
}

var (
	Image = Kind{Name: "image", Prefix: "exercise_analysis", Ext: ".png", ContentType: "image/png", Route: "/image/"}
	Audio = Kind{Name: "audio", Prefix: "exercise_audio", Ext: ".mp3", ContentType: "audio/mpeg", Route: "/audio/"}
)

// Kinds lists every artifact family the store manages.
func Kinds() []Kind { return []Kind{Image, Audio} }

// Blob is a stored artifact.
type Blob struct {
	Kind Kind
	Name string
	Path string
	URL  string
}

// Uploader stores artifact bytes and returns a fetchable URL.
type Uploader interface {
	Put(ctx context.Context, kind Kind, data []byte) (Blob, error)
}

// Store keeps artifacts in per-kind local directories.
type Store struct {
	dirs       map[string]string
	publicBase string
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a store rooted at the configured data directory.
func New(cfg *config.Config, logger *slog.Logger) *Store {
	return NewStore(cfg.ImagesDir(), cfg.AudioDir(), cfg.Server.PublicBaseURL, logger)
}

// NewStore builds a store over explicit directories. publicBase, when set,
// prefixes every returned URL; otherwise the request base URL from the
// context is used, and failing that URLs are relative.
func NewStore(imagesDir, audioDir, publicBase string, logger *slog.Logger) *Store {
	return &Store{
		dirs:       map[string]string{Image.Name: imagesDir, Audio.Name: audioDir},
		publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/"),
		logger:     logging.NewComponentLogger(logger, "blobstore"),
		now:        time.Now,
	}
}

// Put writes data under a fresh unique name.
func (s *Store) Put(ctx context.Context, kind Kind, data []byte) (Blob, error) {
	dir, err := s.dir(kind)
	if err != nil {
		return Blob{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Blob{}, fmt.Errorf("create %s dir: %w", kind.Name, err)
	}
	name := s.newName(kind)
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+kind.Name+"-*")
	if err != nil {
		return Blob{}, fmt.Errorf("create temp %s: %w", kind.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Blob{}, fmt.Errorf("write %s: %w", kind.Name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Blob{}, fmt.Errorf("close %s: %w", kind.Name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return Blob{}, fmt.Errorf("publish %s: %w", kind.Name, err)
	}

	blob := Blob{Kind: kind, Name: name, Path: path, URL: s.url(ctx, kind, name)}
	logging.WithContext(ctx, s.logger).Info("stored artifact",
		logging.String("kind", kind.Name),
		logging.String("name", name),
		logging.Int("bytes", len(data)),
	)
	return blob, nil
}

// Open returns the named artifact for reading. Names that are not plain file
// names of this kind are reported as not found.
func (s *Store) Open(kind Kind, name string) (*os.File, fs.FileInfo, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, services.Wrap(services.ErrNotFound, "blobstore", "open", "", fmt.Errorf("%s not found", kind.Name))
		}
		return nil, nil, fmt.Errorf("open %s: %w", kind.Name, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", kind.Name, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, services.Wrap(services.ErrNotFound, "blobstore", "open", "", fmt.Errorf("%s not found", kind.Name))
	}
	return file, info, nil
}

// Path resolves name inside the kind's directory.
func (s *Store) Path(kind Kind, name string) (string, error) {
	dir, err := s.dir(kind)
	if err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, kind.Ext) {
		return "", services.Wrap(services.ErrNotFound, "blobstore", "open", "", fmt.Errorf("%s not found", kind.Name))
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) dir(kind Kind) (string, error) {
	dir, ok := s.dirs[kind.Name]
	if !ok || strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("blobstore: unknown kind %q", kind.Name)
	}
	return dir, nil
}

func (s *Store) newName(kind Kind) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s%s", kind.Prefix, s.now().Unix(), suffix, kind.Ext)
}

func (s *Store) url(ctx context.Context, kind Kind, name string) string {
	base := s.publicBase
	if base == "" {
		if fromCtx, ok := services.BaseURLFromContext(ctx); ok {
			base = strings.TrimRight(fromCtx, "/")
		}
	}
	return base + kind.Route + name
}
