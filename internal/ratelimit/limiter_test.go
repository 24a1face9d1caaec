package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	l := New(limit, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowRejectsEleventhRequestInWindow(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(10, time.Hour)

	for i := 0; i < 10; i++ {
		*current = current.Add(time.Second)
		if !l.Allow("client-a") {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}

	*current = current.Add(time.Second)
	if l.Allow("client-a") {
		t.Fatal("11th request within the window should be rejected")
	}
}

func TestAllowAdmitsAgainAfterWindowElapses(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(10, time.Hour)

	for i := 0; i < 10; i++ {
		if !l.Allow("client-a") {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	if l.Allow("client-a") {
		t.Fatal("request over the limit should be rejected")
	}

	*current = current.Add(time.Hour + time.Second)
	if !l.Allow("client-a") {
		t.Fatal("request after window elapse should be admitted")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(2, time.Hour)

	if !l.Allow("client-a") || !l.Allow("client-a") {
		t.Fatal("client-a should be admitted twice")
	}
	if l.Allow("client-a") {
		t.Fatal("client-a should be rejected at limit")
	}

	if !l.Allow("client-b") {
		t.Fatal("client-b should not be affected by client-a's window")
	}

	if l.Clients() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.Clients())
	}
}

func TestAllowSlidingWindowPartialExpiry(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(3, time.Hour)

	if !l.Allow("client-a") {
		t.Fatal("first request should be admitted")
	}

	*current = current.Add(30 * time.Minute)
	if !l.Allow("client-a") || !l.Allow("client-a") {
		t.Fatal("second and third requests should be admitted")
	}
	if l.Allow("client-a") {
		t.Fatal("fourth request should be rejected")
	}

	// Only the first timestamp leaves the window.
	*current = current.Add(31 * time.Minute)
	if !l.Allow("client-a") {
		t.Fatal("request should be admitted once the oldest timestamp expired")
	}
	if l.Allow("client-a") {
		t.Fatal("window is full again, request should be rejected")
	}
}

func TestSweepEvictsAbandonedClients(t *testing.T) {
	t.Parallel()

	l, current := newTestLimiter(10, time.Hour)

	for i := 0; i < 5; i++ {
		l.Allow(fmt.Sprintf("abandoned-%d", i))
	}
	if l.Clients() != 5 {
		t.Fatalf("expected 5 tracked clients, got %d", l.Clients())
	}

	*current = current.Add(2 * time.Hour)

	// Enough calls from an active client to trigger the opportunistic sweep.
	for i := 0; i < sweepEvery; i++ {
		l.Allow("active")
	}

	if l.Clients() != 1 {
		t.Fatalf("expected abandoned clients to be evicted, got %d tracked", l.Clients())
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	l := New(0, 0)
	if l.Limit() != 10 {
		t.Fatalf("expected default limit 10, got %d", l.Limit())
	}
	if l.Window() != time.Hour {
		t.Fatalf("expected default window 1h, got %s", l.Window())
	}
}
