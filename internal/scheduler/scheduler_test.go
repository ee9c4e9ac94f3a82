package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartFiresImmediately(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	var ticks atomic.Int64
	s.Start(context.Background(), "k", time.Hour, func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	waitFor(t, func() bool { return ticks.Load() == 1 }, "first tick should fire without waiting for the interval")
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	var ticks atomic.Int64
	tick := func(context.Context) error {
		ticks.Add(1)
		return nil
	}

	if !s.Start(context.Background(), "k", time.Hour, tick) {
		t.Fatal("first Start should report true")
	}
	if s.Start(context.Background(), "k", time.Hour, tick) {
		t.Error("second Start for a running key should report false")
	}

	waitFor(t, func() bool { return ticks.Load() == 1 }, "tick should fire once")
	time.Sleep(50 * time.Millisecond)
	if got := ticks.Load(); got != 1 {
		t.Errorf("duplicate Start stacked loops: %d ticks", got)
	}
}

func TestTickErrorKeepsLoopAlive(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	var ticks atomic.Int64
	s.Start(context.Background(), "k", 10*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return errors.New("venue unreachable")
	})

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "loop should keep ticking through errors")
	if !s.IsRunning("k") {
		t.Error("loop should still be registered after tick errors")
	}
}

func TestStopWaitsAndRemoves(t *testing.T) {
	s := New(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	s.Start(context.Background(), "k", time.Hour, func(ctx context.Context) error {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	<-started

	close(release)
	if !s.Stop("k") {
		t.Fatal("Stop should report true for a running key")
	}
	if s.IsRunning("k") {
		t.Error("key should be removed after Stop")
	}
	if s.Stop("k") {
		t.Error("Stop on a stopped key should report false")
	}
}

func TestRestartRunsFresh(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	var first, second atomic.Int64
	s.Start(context.Background(), "k", time.Hour, func(context.Context) error {
		first.Add(1)
		return nil
	})
	waitFor(t, func() bool { return first.Load() == 1 }, "first loop should tick")
	s.Stop("k")

	if !s.Start(context.Background(), "k", time.Hour, func(context.Context) error {
		second.Add(1)
		return nil
	}) {
		t.Fatal("Start after Stop should succeed")
	}
	waitFor(t, func() bool { return second.Load() == 1 }, "restarted loop should tick with its own state")
	if first.Load() != 1 {
		t.Error("old loop must not keep ticking after restart")
	}
}

func TestErrStopEndsLoop(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	var ticks atomic.Int64
	s.Start(context.Background(), "k", 10*time.Millisecond, func(context.Context) error {
		if ticks.Add(1) >= 3 {
			return ErrStop
		}
		return nil
	})

	waitFor(t, func() bool { return !s.IsRunning("k") }, "loop should deregister itself on ErrStop")
	final := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() != final {
		t.Error("loop kept ticking after ErrStop")
	}
}

func TestRunningListsSortedKeys(t *testing.T) {
	s := New(testLogger())
	defer s.StopAll()

	noop := func(context.Context) error { return nil }
	s.Start(context.Background(), "b", time.Hour, noop)
	s.Start(context.Background(), "a", time.Hour, noop)

	got := s.Running()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Running() = %v, want [a b]", got)
	}
}

func TestStopAll(t *testing.T) {
	s := New(testLogger())

	noop := func(context.Context) error { return nil }
	s.Start(context.Background(), "a", time.Hour, noop)
	s.Start(context.Background(), "b", time.Hour, noop)

	s.StopAll()
	if len(s.Running()) != 0 {
		t.Errorf("Running() after StopAll = %v, want empty", s.Running())
	}
}
