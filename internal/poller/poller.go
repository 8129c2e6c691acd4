// Package poller runs a function on a fixed interval until stopped.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Func is one poll. ctx is cancelled when the task stops; results produced
// after that belong to a torn-down view and should be dropped.
type Func func(ctx context.Context)

// Task is a running poll loop. The first poll runs immediately. A tick that
// fires while the previous poll is still running is skipped, never queued.
type Task struct {
	interval time.Duration
	fn       Func
	onSkip   func()

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
	busy   atomic.Bool
	runs   atomic.Int64
	skips  atomic.Int64
	once   sync.Once
}

// Option customises a Task.
type Option func(*Task)

// OnSkip registers a callback invoked for every skipped tick.
func OnSkip(fn func()) Option {
	return func(t *Task) { t.onSkip = fn }
}

// Start launches fn every interval until ctx ends or Stop is called.
func Start(ctx context.Context, interval time.Duration, fn Func, opts ...Option) *Task {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		interval: interval,
		fn:       fn,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.loop(ctx)
	return t
}

func (t *Task) loop(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	t.tick(ctx)
	for {
		select {
		case <-ticker.C:
			t.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Task) tick(ctx context.Context) {
	if !t.busy.CompareAndSwap(false, true) {
		t.skips.Add(1)
		if t.onSkip != nil {
			t.onSkip()
		}
		return
	}
	t.runs.Add(1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.busy.Store(false)
		t.fn(ctx)
	}()
}

// Stop cancels the task and waits for the loop and any in-flight poll to
// return. It is safe to call more than once.
func (t *Task) Stop() {
	t.once.Do(func() {
		t.cancel()
		<-t.done
		t.wg.Wait()
	})
}

// Done is closed when the loop has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Runs reports how many polls were started.
func (t *Task) Runs() int64 { return t.runs.Load() }

// Skipped reports how many ticks were skipped because a poll was in flight.
func (t *Task) Skipped() int64 { return t.skips.Load() }
