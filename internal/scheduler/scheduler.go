// Package scheduler runs keyed, cancelable jobs from a single ordered queue.
// One goroutine drains the queue, so job callbacks never run concurrently.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages due-at jobs keyed by name
type Scheduler struct {
	logger *zap.Logger
	clock  func() time.Time

	mu    sync.Mutex
	queue jobQueue
	byKey map[string]*job
	seq   uint64

	wake    chan struct{}
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler. A nil clock means time.Now.
func New(logger *zap.Logger, clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		logger: logger,
		clock:  clock,
		byKey:  make(map[string]*job),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Schedule queues fn under key to run at dueAt, replacing any job already
// queued under the same key.
func (s *Scheduler) Schedule(key string, dueAt time.Time, fn func(now time.Time)) {
	s.mu.Lock()
	if old, ok := s.byKey[key]; ok {
		s.queue.remove(old)
	}
	s.seq++
	j := &job{key: key, dueAt: dueAt, seq: s.seq, run: fn}
	heap.Push(&s.queue, j)
	s.byKey[key] = j
	s.mu.Unlock()

	s.notify()
}

// Cancel drops the job queued under key. It reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	j, ok := s.byKey[key]
	if ok {
		s.queue.remove(j)
		delete(s.byKey, key)
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return ok
}

// DueAt returns when the job under key will run
func (s *Scheduler) DueAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.byKey[key]
	if !ok {
		return time.Time{}, false
	}
	return j.dueAt, true
}

// Len returns the number of queued jobs
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Every queues fn under key on the cron spec (standard five-field or
// descriptors such as "@every 1m"). The job re-queues itself after each run.
func (s *Scheduler) Every(key, spec string, fn func(now time.Time)) error {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	var tick func(now time.Time)
	tick = func(now time.Time) {
		fn(now)
		s.Schedule(key, schedule.Next(now), tick)
	}
	s.Schedule(key, schedule.Next(s.clock()), tick)
	return nil
}

// ParseSchedule validates a cron spec
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// RunDue pops and runs, in order, every job due at or before now.
// Jobs queued by a callback for a time <= now run in the same pass.
func (s *Scheduler) RunDue(now time.Time) int {
	ran := 0
	for {
		s.mu.Lock()
		next := s.queue.peek()
		if next == nil || next.dueAt.After(now) {
			s.mu.Unlock()
			return ran
		}
		heap.Pop(&s.queue)
		delete(s.byKey, next.key)
		s.mu.Unlock()

		s.runJob(next, now)
		ran++
	}
}

func (s *Scheduler) runJob(j *job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic in scheduled job", zap.String("key", j.key), zap.Any("recover", r))
		}
	}()
	j.run(now)
}

// Start starts the drain loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Starting reminder scheduler", zap.Int("queued", s.Len()))

	s.wg.Add(1)
	go s.run(ctx)

	return nil
}

// Stop stops the drain loop and waits for the running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Reminder scheduler stopped")
}

// IsRunning returns true if the drain loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the main loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.RunDue(s.clock())

		wait := time.Hour
		s.mu.Lock()
		if next := s.queue.peek(); next != nil {
			wait = next.dueAt.Sub(s.clock())
		}
		s.mu.Unlock()
		if wait < 0 {
			wait = 0
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}
