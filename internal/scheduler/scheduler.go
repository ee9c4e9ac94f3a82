package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrStop is returned by a tick to stop its own loop. The key is removed
// from the registry as if Stop had been called.
var ErrStop = errors.New("stop polling loop")

// TickFunc is one polling cycle. The context is the loop's context and is
// cancelled when the loop stops.
type TickFunc func(ctx context.Context) error

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler is a registry of named polling loops.
type Scheduler struct {
	logger *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make(map[string]*task),
	}
}

// Start launches a polling loop under key. If the key is already running
// the call is a logged no-op and Start reports false.
func (s *Scheduler) Start(ctx context.Context, key string, interval time.Duration, tick TickFunc) bool {
	s.mu.Lock()
	if _, running := s.tasks[key]; running {
		s.mu.Unlock()
		s.logger.Info("polling loop already running", "key", key)
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[key] = t
	s.mu.Unlock()

	go s.run(loopCtx, key, interval, tick, t)
	return true
}

func (s *Scheduler) run(ctx context.Context, key string, interval time.Duration, tick TickFunc, t *task) {
	defer close(t.done)
	s.logger.Info("polling loop started", "key", key, "interval", interval)

	if stopped := s.fire(ctx, key, tick, t); stopped {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("polling loop stopped", "key", key)
			return
		case <-ticker.C:
			if stopped := s.fire(ctx, key, tick, t); stopped {
				return
			}
		}
	}
}

// fire runs one tick and reports whether the loop must exit.
func (s *Scheduler) fire(ctx context.Context, key string, tick TickFunc, t *task) bool {
	err := tick(ctx)
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrStop) {
		s.logger.Info("polling loop stopping itself", "key", key)
		s.remove(key, t)
		t.cancel()
		return true
	}
	s.logger.Error("polling tick failed", "key", key, "error", err)
	return false
}

// remove deletes the key only if it still maps to this task, so a loop
// stopping itself cannot race a Stop/Start cycle for the same key.
func (s *Scheduler) remove(key string, t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.tasks[key]; ok && cur == t {
		delete(s.tasks, key)
	}
}

// Stop cancels the loop for key and waits for its goroutine to exit.
// Reports false if the key was not running.
func (s *Scheduler) Stop(key string) bool {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if ok {
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// StopAll stops every running loop and waits for them.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

// IsRunning reports whether key has a live loop.
func (s *Scheduler) IsRunning(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Running returns the sorted keys of all live loops.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.tasks))
	for key := range s.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
