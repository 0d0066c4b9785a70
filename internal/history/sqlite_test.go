package history_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"formcheck/internal/analysis"
	"formcheck/internal/history"
	"formcheck/internal/services"
	"formcheck/internal/testsupport"
)

func record(id string, created time.Time, audio *string) analysis.Record {
	return analysis.Record{
		ID:                id,
		VideoURL:          "https://videos.example.com/" + id + ".mp4",
		FrameSkip:         5,
		FrameIndex:        40,
		TotalFrames:       120,
		ProcessedFrames:   24,
		ImageURL:          "/image/exercise_analysis_" + id + ".png",
		MinKneeAngle:      87.25,
		TextAnalysis:      "1. Summary: fine",
		Summary:           "fine",
		Improvements:      "none",
		RiskFactor:        "Low",
		AudioURL:          audio,
		NarrativeFallback: audio == nil,
		CreatedAt:         created,
	}
}

func openSQLite(t *testing.T) *history.SQLite {
	t.Helper()
	store, err := history.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteSaveAndGet(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	audio := "/audio/exercise_audio_1.mp3"
	created := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)

	want := record("a1", created, &audio)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AudioURL == nil || *got.AudioURL != audio {
		t.Fatalf("audio url mismatch: %v", got.AudioURL)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created)
	}
	got.AudioURL, want.AudioURL = nil, nil
	got.CreatedAt, want.CreatedAt = time.Time{}, time.Time{}
	if got != want {
		t.Fatalf("record mismatch\n got %+v\nwant %+v", got, want)
	}

	noAudio := record("a2", created, nil)
	if err := store.Save(ctx, noAudio); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = store.Get(ctx, "a2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AudioURL != nil || !got.NarrativeFallback {
		t.Fatalf("expected nil audio with fallback flag, got %+v", got)
	}

	if err := store.Save(ctx, want); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	store := openSQLite(t)
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if services.HTTPStatus(err) != 404 {
		t.Fatalf("expected 404 mapping, got %d", services.HTTPStatus(err))
	}
}

func TestSQLiteListNewestFirst(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 25 {
		if err := store.Save(ctx, record(fmt.Sprintf("r%02d", i), base.Add(time.Duration(i)*time.Minute), nil)); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != history.DefaultListLimit {
		t.Fatalf("expected default limit %d, got %d", history.DefaultListLimit, len(records))
	}
	if records[0].ID != "r24" || records[1].ID != "r23" {
		t.Fatalf("expected newest first, got %s, %s", records[0].ID, records[1].ID)
	}

	records, err = store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 || records[2].ID != "r22" {
		t.Fatalf("unexpected page %+v", records)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := history.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := store.Save(ctx, record("keep", time.Now().UTC(), nil)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*history.SQLite); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if _, err := os.Stat(cfg.HistoryDBPath()); err != nil {
		t.Fatalf("expected db file: %v", err)
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("FORMCHECK_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("FORMCHECK_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	store, err := history.OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer store.Close()

	id := fmt.Sprintf("pg-%d", time.Now().UnixNano())
	if err := store.Save(ctx, record(id, time.Now().UTC().Truncate(time.Microsecond), nil)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != id || got.AudioURL != nil {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, err := store.Get(ctx, id+"-missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
