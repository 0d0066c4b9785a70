package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestRetrierRetriesTransientThenSucceeds(t *testing.T) {
	var slept []time.Duration
	r := NewRetrier(
		WithRetryMaxAttempts(4),
		WithRetryBackoff(time.Second, 3*time.Second),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	calls := 0
	err := r.Do(context.Background(), "demo", func(context.Context) error {
		calls++
		if calls < 4 {
			return &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if fmt.Sprint(slept) != fmt.Sprint(want) {
		t.Fatalf("expected sleeps %v, got %v", want, slept)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := NewRetrier(WithSleeper(func(time.Duration) { t.Fatal("unexpected sleep") }))
	calls := 0
	err := r.Do(context.Background(), "demo", func(context.Context) error {
		calls++
		return &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one failing call, got %d calls err=%v", calls, err)
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected status to survive wrapping, got %d", StatusCode(err))
	}
}

func TestRetrierGivesUpAfterMaxAttempts(t *testing.T) {
	r := NewRetrier(WithRetryMaxAttempts(2), WithRetryBackoff(0, 0))
	calls := 0
	err := r.Do(context.Background(), "demo", func(context.Context) error {
		calls++
		return ErrEmptyContent
	})
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetrierHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(WithRetryMaxAttempts(5), WithSleeper(func(time.Duration) { cancel() }))
	calls := 0
	err := r.Do(ctx, "demo", func(context.Context) error {
		calls++
		return &openai.RequestError{HTTPStatusCode: http.StatusBadGateway, Err: errors.New("upstream")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancel, got %d", calls)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("x")}, true},
		{"timeout status", &openai.APIError{HTTPStatusCode: 408}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"empty", fmt.Errorf("wrap: %w", ErrEmptyContent), true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
