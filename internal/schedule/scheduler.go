// Package schedule provides cancellable delayed tasks. The game engine arms one
// task per phase; tests and headless simulations drive time by hand.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle to a pending delayed call.
type Task interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// Real schedules on the wall clock.
type Real struct{}

// NewReal returns a wall-clock scheduler.
func NewReal() *Real {
	return &Real{}
}

// AfterFunc implements Scheduler using time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Manual is a Scheduler whose clock only moves when Advance is called.
// Due tasks run synchronously on the goroutine calling Advance, in deadline
// order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	deadline time.Time
	seq      int
	f        func()
	stopped  bool
	fired    bool
}

// NewManual creates a manual scheduler starting at start. A zero start uses
// the current wall time.
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Now()
	}
	return &Manual{now: start}
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{m: m, deadline: m.now.Add(d), seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Pending returns the number of tasks that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// NextDeadline returns the earliest pending deadline.
func (m *Manual) NextDeadline() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next time.Time
	found := false
	for _, t := range m.tasks {
		if t.stopped || t.fired {
			continue
		}
		if !found || t.deadline.Before(next) {
			next = t.deadline
			found = true
		}
	}
	return next, found
}

// Advance moves the clock forward by d and runs every task that became due,
// including tasks scheduled by the callbacks themselves.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.popDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	m.mu.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mu.Unlock()
}

// RunNext advances the clock exactly to the next pending deadline and runs
// the due tasks. It reports false when nothing is pending.
func (m *Manual) RunNext() bool {
	next, ok := m.NextDeadline()
	if !ok {
		return false
	}
	m.Advance(next.Sub(m.Now()))
	return true
}

func (m *Manual) popDue(target time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].deadline.Equal(m.tasks[j].deadline) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].deadline.Before(m.tasks[j].deadline)
	})
	if len(m.tasks) == 0 || m.tasks[0].deadline.After(target) {
		return nil
	}
	t := m.tasks[0]
	t.fired = true
	if t.deadline.After(m.now) {
		m.now = t.deadline
	}
	return t
}

// Stop implements Task.
func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
