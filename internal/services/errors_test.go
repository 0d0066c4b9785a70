package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"formcheck/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "request failed", base)
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "download", "request failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrInvalidURL, "fetch", "validate", "bad", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "", errors.New("dial")), http.StatusBadRequest},
		{services.Wrap(services.ErrNoFramesFound, "scan", "", "", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrValidation, "scan", "frame_skip", "", nil), http.StatusUnprocessableEntity},
		{services.Wrap(services.ErrNotFound, "history", "get", "", nil), http.StatusNotFound},
		{services.Wrap(services.ErrStorage, "assemble", "image", "", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCauseStripsMarkerAndStage(t *testing.T) {
	inner := errors.New("Invalid URL format")
	err := services.Wrap(services.ErrInvalidURL, "fetch", "validate", "", inner)
	if got := services.Cause(err); got != "Invalid URL format" {
		t.Fatalf("unexpected cause %q", got)
	}
	if got := services.Cause(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected cause for plain error %q", got)
	}
	if got := services.Cause(nil); got != "" {
		t.Fatalf("expected empty cause for nil, got %q", got)
	}
}

func TestCauseKeepsCallerContext(t *testing.T) {
	inner := fmt.Errorf("track frame 12: %w", errors.New("inference failed"))
	err := services.Wrap(services.ErrTransient, "scan", "score", "", inner)
	if got := services.Cause(err); got != "track frame 12: inference failed" {
		t.Fatalf("expected caller context in cause, got %q", got)
	}

	nested := services.Wrap(services.ErrTransient, "analysis", "run", "",
		services.Wrap(services.ErrStorage, "assemble", "upload image", "", errors.New("write image: disk full")))
	if got := services.Cause(nested); got != "write image: disk full" {
		t.Fatalf("expected nested wraps to be stripped, got %q", got)
	}

	outer := fmt.Errorf("request: %w", services.Wrap(services.ErrInvalidURL, "fetch", "validate", "", errors.New("Invalid URL format")))
	if got := services.Cause(outer); got != "Invalid URL format" {
		t.Fatalf("expected marked error found beneath plain wrap, got %q", got)
	}

	bare := services.Wrap(services.ErrValidation, "scan", "frame_skip", "", nil)
	if got := services.Cause(bare); got != "scan: frame_skip" {
		t.Fatalf("expected stage detail for wrap without cause, got %q", got)
	}

	plain := fmt.Errorf("waiting for analysis slot: %w", errors.New("deadline"))
	if got := services.Cause(plain); got != "waiting for analysis slot: deadline" {
		t.Fatalf("expected unmarked error returned whole, got %q", got)
	}
}
