package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
	if d := (RetryPolicy{}).NextDelay(0); d != time.Second {
		t.Fatalf("zero policy expected 1s, got %s", d)
	}
}

func TestDispatcher_ProcessRetriesUntilSuccess(t *testing.T) {
	d := NewDispatcher(1, RetryPolicy{MaxRetries: 3}, nil)
	d.sleep = noSleep

	var calls int
	d.process(context.Background(), Job{Name: "flaky", Run: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}})

	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDispatcher_ProcessGivesUp(t *testing.T) {
	d := NewDispatcher(1, RetryPolicy{MaxRetries: 2}, nil)
	var delays []time.Duration
	d.sleep = func(ctx context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	var calls int
	d.process(context.Background(), Job{Name: "broken", Run: func(context.Context) error {
		calls++
		return errors.New("permanent")
	}})

	if calls != 3 {
		t.Fatalf("expected 1 attempt + 2 retries, got %d calls", calls)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("unexpected backoff %v", delays)
	}
}

func TestDispatcher_ProcessStopsOnCancel(t *testing.T) {
	d := NewDispatcher(1, RetryPolicy{MaxRetries: 10}, nil)
	d.sleep = noSleep

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	d.process(ctx, Job{Name: "x", Run: func(context.Context) error {
		calls++
		return errors.New("fail")
	}})
	if calls != 1 {
		t.Fatalf("expected a single attempt after cancel, got %d", calls)
	}
}

func TestDispatcher_EnqueueFull(t *testing.T) {
	d := NewDispatcher(1, RetryPolicy{}, nil)
	job := Job{Name: "x", Run: func(context.Context) error { return nil }}

	if err := d.Enqueue(job); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := d.Enqueue(job); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_StartRunsJobs(t *testing.T) {
	d := NewDispatcher(4, RetryPolicy{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	var ran int32
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		last := i == 2
		if err := d.Enqueue(Job{Name: "count", Run: func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			if last {
				close(done)
			}
			return nil
		}}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run")
	}

	cancel()
	d.Wait()
	if got := atomic.LoadInt32(&ran); got != 3 {
		t.Fatalf("expected 3 jobs, got %d", got)
	}
}
