package blobstore_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"formcheck/internal/blobstore"
	"formcheck/internal/services"
	"formcheck/internal/testsupport"
)

var imageName = regexp.MustCompile(`^exercise_analysis_\d+_[0-9a-f]{8}\.png$`)

func TestPutWritesUniqueNamedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublicBaseURL("https://api.example.com/"))
	store := blobstore.New(cfg, nil)

	first, err := store.Put(context.Background(), blobstore.Image, []byte("png-1"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	second, err := store.Put(context.Background(), blobstore.Image, []byte("png-2"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if first.Name == second.Name {
		t.Fatalf("expected unique names, got %s twice", first.Name)
	}
	if !imageName.MatchString(first.Name) {
		t.Fatalf("unexpected name %q", first.Name)
	}
	if first.URL != "https://api.example.com/image/"+first.Name {
		t.Fatalf("unexpected url %q", first.URL)
	}
	data, err := os.ReadFile(filepath.Join(cfg.ImagesDir(), first.Name))
	if err != nil || string(data) != "png-1" {
		t.Fatalf("stored data mismatch: %q, %v", data, err)
	}

	entries, _ := os.ReadDir(cfg.ImagesDir())
	if len(entries) != 2 {
		t.Fatalf("expected only the two artifacts on disk, got %d", len(entries))
	}
}

func TestPutURLFromRequestContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := blobstore.New(cfg, nil)

	ctx := services.WithBaseURL(context.Background(), "http://localhost:8000/")
	blob, err := store.Put(ctx, blobstore.Audio, []byte("mp3"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if blob.URL != "http://localhost:8000/audio/"+blob.Name {
		t.Fatalf("unexpected url %q", blob.URL)
	}

	rel, err := store.Put(context.Background(), blobstore.Audio, []byte("mp3"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rel.URL != "/audio/"+rel.Name {
		t.Fatalf("expected relative url, got %q", rel.URL)
	}
}

func TestOpen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := blobstore.New(cfg, nil)
	blob, err := store.Put(context.Background(), blobstore.Image, []byte("pixels"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	file, info, err := store.Open(blobstore.Image, blob.Name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	if string(data) != "pixels" || info.Size() != 6 {
		t.Fatalf("unexpected content %q size %d", data, info.Size())
	}

	for _, name := range []string{"missing.png", "../config.toml", "..", "", ".hidden.png", blob.Name + ".txt"} {
		if _, _, err := store.Open(blobstore.Image, name); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("Open(%q): expected ErrNotFound, got %v", name, err)
		}
	}
	if _, _, err := store.Open(blobstore.Audio, blob.Name); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("image name must not resolve as audio, got %v", err)
	}
}

func TestCleanStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := blobstore.New(cfg, nil)

	fresh, err := store.Put(context.Background(), blobstore.Image, []byte("new"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	old, err := store.Put(context.Background(), blobstore.Audio, []byte("old"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	unrelated := filepath.Join(cfg.AudioDir(), "keep.txt")
	if err := os.WriteFile(unrelated, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	for _, path := range []string{old.Path, unrelated} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	result := store.CleanStale(context.Background(), 24*time.Hour)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old.Path {
		t.Fatalf("expected only %s removed, got %v", old.Path, result.Removed)
	}
	for _, path := range []string{fresh.Path, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to survive: %v", path, err)
		}
	}
}

func TestCleanStaleMissingDirs(t *testing.T) {
	base := t.TempDir()
	store := blobstore.NewStore(filepath.Join(base, "nope-images"), filepath.Join(base, "nope-audio"), "", nil)
	result := store.CleanStale(context.Background(), time.Hour)
	if len(result.Errors) != 0 || len(result.Removed) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestRunJanitorSweepsUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := blobstore.New(cfg, nil)
	stale, err := store.Put(context.Background(), blobstore.Image, []byte("old"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale.Path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, time.Hour, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(stale.Path); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stale artifact was not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
