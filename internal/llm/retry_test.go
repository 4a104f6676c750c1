package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedGenerator struct {
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	out string
	err error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	idx := g.calls
	g.calls++
	if idx >= len(g.results) {
		idx = len(g.results) - 1
	}
	return g.results[idx].out, g.results[idx].err
}

func recordSleeps(waits *[]time.Duration) InvokerOption {
	return WithSleep(func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

func TestInvokeReturnsFirstSuccess(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{{out: `{"ok":true}`}}}
	inv := NewInvoker(gen)

	out, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok":true}` || gen.calls != 1 {
		t.Fatalf("unexpected out=%q calls=%d", out, gen.calls)
	}
}

func TestInvokeDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("invalid api key")
	gen := &scriptedGenerator{results: []scriptedResult{{err: boom}}}
	var waits []time.Duration
	inv := NewInvoker(gen, recordSleeps(&waits))

	_, err := inv.Invoke(context.Background(), "prompt")
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if gen.calls != 1 || len(waits) != 0 {
		t.Fatalf("expected single attempt, calls=%d waits=%v", gen.calls, waits)
	}
}

func TestInvokeExhaustsOnRateLimit(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{{err: errors.New("Error 429, Message: Resource has been exhausted")}}}
	var waits []time.Duration
	inv := NewInvoker(gen, recordSleeps(&waits))

	_, err := inv.Invoke(context.Background(), "prompt")
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if gen.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", gen.calls)
	}
	if len(waits) != 2 || waits[0] != 4*time.Second || waits[1] != 4*time.Second {
		t.Fatalf("unexpected backoff schedule: %v", waits)
	}
}

func TestInvokeRetriesEmptyResponseThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{
		{out: "   "},
		{err: fmt.Errorf("gemini: %w", ErrEmptyResponse)},
		{out: "{}"},
	}}
	var waits []time.Duration
	inv := NewInvoker(gen, recordSleeps(&waits))

	out, err := inv.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "{}" || gen.calls != 3 || len(waits) != 2 {
		t.Fatalf("unexpected out=%q calls=%d waits=%v", out, gen.calls, waits)
	}
}

func TestInvokeStopsWhenContextCancelled(t *testing.T) {
	gen := &scriptedGenerator{results: []scriptedResult{{err: errors.New("openai http status 429: slow down")}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := NewInvoker(gen)

	_, err := inv.Invoke(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", gen.calls)
	}
}

func TestBackoffSchedule(t *testing.T) {
	inv := NewInvoker(nil)
	want := []time.Duration{4 * time.Second, 4 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := inv.backoff(i + 1); got != w {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, w)
		}
	}
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("openai http status 429: too many requests"), want: true},
		{err: errors.New("Resource has been exhausted (e.g. check quota)."), want: true},
		{err: errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), want: true},
		{err: errors.New("openai http status 500: oops"), want: false},
	}
	for _, tt := range tests {
		if got := IsRateLimit(tt.err); got != tt.want {
			t.Fatalf("IsRateLimit(%v)=%v want %v", tt.err, got, tt.want)
		}
	}
}
