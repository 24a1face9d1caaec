package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float64{float64(len(text)), 1}, nil
}

func (e *countingEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestResolveMemoizesWithinTTL(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	first, err := c.Resolve(context.Background(), "some cleaned text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := c.Resolve(context.Background(), "some cleaned text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if embedder.count() != 1 {
		t.Fatalf("expected 1 embedder call, got %d", embedder.count())
	}
	if len(first) != len(second) {
		t.Fatalf("vector lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestResolveDistinctTextsComputeSeparately(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	if _, err := c.Resolve(context.Background(), "first text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), "second text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if embedder.count() != 2 {
		t.Fatalf("expected 2 embedder calls, got %d", embedder.count())
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestResolveRecomputesAfterExpiry(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	if _, err := c.Resolve(context.Background(), "text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// An entry is treated as absent exactly at createdAt + TTL.
	current = current.Add(time.Hour)

	if _, err := c.Resolve(context.Background(), "text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if embedder.count() != 2 {
		t.Fatalf("expected recomputation after expiry, got %d calls", embedder.count())
	}
	// Overwritten in place, never a second entry per key.
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

func TestResolveReturnsFreshEntryJustBeforeExpiry(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	if _, err := c.Resolve(context.Background(), "text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	current = current.Add(time.Hour - time.Second)

	if _, err := c.Resolve(context.Background(), "text"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if embedder.count() != 1 {
		t.Fatalf("expected cached hit before expiry, got %d calls", embedder.count())
	}
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{err: errors.New("model unavailable")}
	c := New(embedder, time.Hour)

	if _, err := c.Resolve(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Fatalf("expected no entries after failure, got %d", c.Len())
	}

	embedder.mu.Lock()
	embedder.err = nil
	embedder.mu.Unlock()

	if _, err := c.Resolve(context.Background(), "text"); err != nil {
		t.Fatalf("expected recovery after embedder failure, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

func TestClearReportsPriorCount(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := c.Resolve(context.Background(), text); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	if cleared := c.Clear(); cleared != 3 {
		t.Fatalf("expected 3 cleared entries, got %d", cleared)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
	if cleared := c.Clear(); cleared != 0 {
		t.Fatalf("expected 0 cleared entries on empty cache, got %d", cleared)
	}
}

func TestResolveConcurrentAccessKeepsSingleEntry(t *testing.T) {
	t.Parallel()

	embedder := &countingEmbedder{}
	c := New(embedder, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), "shared text"); err != nil {
				t.Errorf("resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	// Duplicate computation under a first-access race is acceptable,
	// duplicate entries are not.
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}
