// Package worker runs deferred side effects off the request path.
package worker

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Enqueue when the buffer is exhausted.
var ErrQueueFull = errors.New("worker queue is full")

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// Job is one unit of work. Run is retried while it returns an error.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher executes jobs sequentially on a single goroutine.
type Dispatcher struct {
	queue  chan Job
	retry  RetryPolicy
	logger *zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	wg     sync.WaitGroup
}

func NewDispatcher(size int, retry RetryPolicy, logger *zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Dispatcher{
		queue:  make(chan Job, size),
		retry:  retry,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Enqueue schedules job without blocking.
func (d *Dispatcher) Enqueue(job Job) error {
	select {
	case d.queue <- job:
		return nil
	default:
		d.logger.Warn().Str("job", job.Name).Msg("queue full, job dropped")
		return ErrQueueFull
	}
}

// Start consumes jobs until ctx is cancelled. Jobs still queued at that point
// are dropped.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-d.queue:
				d.process(ctx, job)
			}
		}
	}()
}

// Wait blocks until the goroutine started by Start has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	for attempt := 1; ; attempt++ {
		err := job.Run(ctx)
		if err == nil {
			return
		}

		if attempt > d.retry.MaxRetries {
			d.logger.Error().Err(err).Str("job", job.Name).Int("attempts", attempt).Msg("job failed, giving up")
			return
		}

		delay := d.retry.NextDelay(attempt)
		d.logger.Warn().Err(err).Str("job", job.Name).Int("attempt", attempt).Dur("retry_in", delay).Msg("job failed")
		if err := d.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
