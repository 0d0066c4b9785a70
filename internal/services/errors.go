package services

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrInvalidURL        = errors.New("invalid video url")
	ErrSourceUnavailable = errors.New("video source unavailable")
	ErrNoFramesFound     = errors.New("no valid frames found in video")
	ErrValidation        = errors.New("validation error")
	ErrStorage           = errors.New("storage upload failed")
	ErrNarrative         = errors.New("narrative generation failed")
	ErrSpeech            = errors.New("speech synthesis failed")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("transient failure")
)

var markers = []error{
	ErrInvalidURL, ErrSourceUnavailable, ErrNoFramesFound, ErrValidation, ErrStorage,
	ErrNarrative, ErrSpeech, ErrConfiguration, ErrNotFound, ErrTransient,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps an analysis error to the status code returned to API callers.
// Client-side input problems are 400, out-of-range parameters 422, and
// everything else 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrNoFramesFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Cause strips the marker and stage prefix added by Wrap and returns the
// message beneath it, including any context the caller added on the way.
// Errors that never passed through Wrap are returned whole.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if _, _, ok := splitMarked(cur); ok {
			return causeBelow(cur)
		}
	}
	return err.Error()
}

func causeBelow(err error) string {
	for {
		marker, inner, ok := splitMarked(err)
		if !ok {
			return err.Error()
		}
		if inner == nil {
			return strings.TrimPrefix(err.Error(), marker.Error()+": ")
		}
		err = inner
	}
}

// splitMarked reports whether err was produced by Wrap and returns its marker
// and wrapped error (nil when Wrap was given none).
func splitMarked(err error) (marker, inner error, ok bool) {
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		errs := wrapped.Unwrap()
		if len(errs) == 2 && isMarker(errs[0]) {
			return errs[0], errs[1], true
		}
	case interface{ Unwrap() error }:
		next := wrapped.Unwrap()
		if isMarker(next) && strings.HasPrefix(err.Error(), next.Error()+": ") {
			return next, nil, true
		}
	}
	return nil, nil, false
}

func isMarker(err error) bool {
	return err != nil && slices.Contains(markers, err)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
