package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_ColdThenSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if fp, ok, err := s.GetFingerprint(ctx, "https://example.com"); err != nil || ok || fp != "" {
		t.Fatalf("expected cold state, got fp=%q ok=%v err=%v", fp, ok, err)
	}
	if st, err := s.Get(ctx, "https://example.com"); err != nil || st != nil {
		t.Fatalf("expected nil state, got %+v err=%v", st, err)
	}

	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	if err := s.SetState(ctx, "https://example.com", "<p>a</p>", "fp1", now); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	fp, ok, err := s.GetFingerprint(ctx, "https://example.com")
	if err != nil || !ok || fp != "fp1" {
		t.Fatalf("want fp1, got fp=%q ok=%v err=%v", fp, ok, err)
	}
	st, err := s.Get(ctx, "https://example.com")
	if err != nil || st == nil {
		t.Fatalf("Get: %+v %v", st, err)
	}
	if st.Content != "<p>a</p>" || st.Fingerprint != "fp1" || !st.LastUpdated.Equal(now) {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestMemoryStore_SetStateCancelledContextWritesNothing(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.SetState(ctx, "https://a", "c", "f", time.Now()); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if _, ok, _ := s.GetFingerprint(context.Background(), "https://a"); ok {
		t.Fatalf("expected no state after failed commit")
	}
}

func TestMemoryStore_ConcurrentWritersLeaveCoherentState(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp := "even"
			if i%2 == 1 {
				fp = "odd"
			}
			_ = s.SetState(ctx, "https://a", "content-"+fp, fp, time.Now())
		}(i)
	}
	wg.Wait()

	st, _ := s.Get(ctx, "https://a")
	if st == nil || st.Content != "content-"+st.Fingerprint {
		t.Fatalf("torn state: %+v", st)
	}
}
