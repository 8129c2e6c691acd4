package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestTaskRunsImmediatelyAndRepeats(t *testing.T) {
	var calls atomic.Int64
	task := Start(context.Background(), 5*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	defer task.Stop()
	waitFor(t, func() bool { return calls.Load() >= 3 })
}

func TestTaskSkipsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	var skipped atomic.Int64
	task := Start(context.Background(), 2*time.Millisecond, func(ctx context.Context) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}, OnSkip(func() { skipped.Add(1) }))

	waitFor(t, func() bool { return task.Skipped() >= 3 })
	if task.Runs() != 1 {
		t.Fatalf("expected one run while busy, got %d", task.Runs())
	}
	if skipped.Load() < 3 {
		t.Fatalf("OnSkip not invoked")
	}
	close(release)
	waitFor(t, func() bool { return task.Runs() >= 2 })
	task.Stop()
}

func TestStopCancelsInFlightPoll(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	task := Start(context.Background(), time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})
	<-started
	task.Stop()
	if !cancelled.Load() {
		t.Fatalf("Stop returned before the poll observed cancellation")
	}
	task.Stop()
}

func TestNoRunsAfterStop(t *testing.T) {
	var calls atomic.Int64
	task := Start(context.Background(), time.Millisecond, func(context.Context) {
		calls.Add(1)
	})
	waitFor(t, func() bool { return calls.Load() >= 1 })
	task.Stop()
	n := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != n {
		t.Fatalf("poll ran after Stop")
	}
}

func TestParentContextEndsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, time.Hour, func(context.Context) {})
	cancel()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not exit on parent cancel")
	}
	task.Stop()
}
