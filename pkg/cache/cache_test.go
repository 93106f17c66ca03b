package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KiNGTV2025/xdert/pkg/types"
)

type countingHits struct{ n int }

func (c *countingHits) IncCacheHits() { c.n++ }

func resolveCounting(calls *int) ResolveFunc {
	return func(ctx context.Context, url string, headers map[string]string) types.ResolutionResult {
		*calls++
		return types.ResolutionResult{ResolvedURL: url + "#resolved", Outcome: types.OutcomeResolved}
	}
}

func TestGetCachesWithinTTL(t *testing.T) {
	hits := &countingHits{}
	c := New(300*time.Second, 100, hits)

	calls := 0
	fn := resolveCounting(&calls)
	ctx := context.Background()

	first := c.Get(ctx, "https://example.com/ch", nil, fn)
	second := c.Get(ctx, "https://example.com/ch", nil, fn)

	if calls != 1 {
		t.Errorf("resolver called %d times, want 1", calls)
	}
	if hits.n != 1 {
		t.Errorf("cache hits = %d, want 1", hits.n)
	}
	if first.ResolvedURL != second.ResolvedURL {
		t.Errorf("cached result differs: %q vs %q", first.ResolvedURL, second.ResolvedURL)
	}
}

func TestGetReResolvesAfterTTL(t *testing.T) {
	c := New(300*time.Second, 100, nil)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	calls := 0
	fn := resolveCounting(&calls)
	ctx := context.Background()

	c.Get(ctx, "https://example.com/ch", nil, fn)
	now = now.Add(301 * time.Second)
	c.Get(ctx, "https://example.com/ch", nil, fn)

	if calls != 2 {
		t.Errorf("resolver called %d times, want 2", calls)
	}
}

func TestGetRunsResolutionToCompletionAfterCancel(t *testing.T) {
	c := New(300*time.Second, 100, nil)

	// Degrades when it observes a canceled context, resolves otherwise.
	fn := func(ctx context.Context, url string, headers map[string]string) types.ResolutionResult {
		if ctx.Err() != nil {
			return types.ResolutionResult{ResolvedURL: url, Outcome: types.OutcomeFallbackOriginal}
		}
		return types.ResolutionResult{ResolvedURL: url + "#resolved", Outcome: types.OutcomeResolved}
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	first := c.Get(canceled, "https://example.com/ch", nil, fn)
	if first.Outcome != types.OutcomeResolved {
		t.Fatalf("Outcome = %q with canceled caller, want %q", first.Outcome, types.OutcomeResolved)
	}

	// A later healthy caller must see the completed resolution, not a
	// degraded entry left behind by the disconnected one.
	second := c.Get(context.Background(), "https://example.com/ch", nil, fn)
	if second.Outcome != types.OutcomeResolved {
		t.Errorf("cached Outcome = %q, want %q", second.Outcome, types.OutcomeResolved)
	}
}

func TestKeyIsURLOnly(t *testing.T) {
	if Key("https://a.com") == Key("https://b.com") {
		t.Error("distinct URLs produced the same key")
	}
	if Key("https://a.com") != Key("https://a.com") {
		t.Error("key is not deterministic")
	}
	if len(Key("anything")) != 32 {
		t.Errorf("key length = %d, want 32 hex chars", len(Key("anything")))
	}
}

func TestSweepDropsExpiredAboveThreshold(t *testing.T) {
	c := New(300*time.Second, 5, nil)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	calls := 0
	fn := resolveCounting(&calls)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		c.Get(ctx, fmt.Sprintf("https://old.example.com/%d", i), nil, fn)
	}

	// At or below the threshold nothing is swept even once expired.
	now = now.Add(301 * time.Second)
	c.Get(ctx, "https://fresh.example.com/0", nil, fn)
	if c.Len() != 5 {
		t.Fatalf("Len() = %d before threshold crossing, want 5", c.Len())
	}

	// This insert pushes the table past the threshold; the four
	// expired entries are dropped.
	c.Get(ctx, "https://fresh.example.com/1", nil, fn)
	if c.Len() != 2 {
		t.Errorf("Len() = %d after sweep, want 2", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New(300*time.Second, 100, nil)
	calls := 0
	c.Get(context.Background(), "https://example.com", nil, resolveCounting(&calls))

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}

	c.Get(context.Background(), "https://example.com", nil, resolveCounting(&calls))
	if calls != 2 {
		t.Errorf("resolver called %d times, want 2 after Clear", calls)
	}
}
