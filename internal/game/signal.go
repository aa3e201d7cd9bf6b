package game

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Signal is a typed notification with any number of handlers. Handlers run
// in registration order.
type Signal[T any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers []signalHandler[T]
}

type signalHandler[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, signalHandler[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, h := range s.handlers {
				if h.id == id {
					s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of registered handlers.
func (s *Signal[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

func (s *Signal[T]) emit(v T) {
	s.mu.RLock()
	hs := make([]signalHandler[T], len(s.handlers))
	copy(hs, s.handlers)
	s.mu.RUnlock()

	for _, h := range hs {
		h.fn(v)
	}
}

// Events groups the engine's signals, one per notification.
type Events struct {
	GameStarted          Signal[GameState]
	PhaseStarted         Signal[PhaseStarted]
	RoundCompleted       Signal[RoundCompleted]
	GameEnded            Signal[GameEnded]
	AnalysisPhaseReady   Signal[AnalysisReady]
	PlanningPhaseReady   Signal[PlanningReady]
	EventsPhaseReady     Signal[EventsReady]
	RealityPhaseReady    Signal[RealityReady]
	EvaluationPhaseReady Signal[EvaluationReady]
	InvestmentMade       Signal[InvestmentMade]
	ForecastMade         Signal[ForecastMade]

	// Any receives every notification after its typed handlers.
	Any Signal[Emission]
}

// dispatcher delivers queued notifications one at a time. A notification
// raised while another is being delivered (for example by a handler that
// calls back into the engine) is appended to the queue and delivered by the
// goroutine that is already draining it, so handlers never run concurrently
// and always observe notifications in the order they were raised.
type dispatcher struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
	logger   *slog.Logger
}

func (d *dispatcher) enqueue(fs ...func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fs...)
	d.mu.Unlock()
}

// drain runs queued handlers until the queue is empty. When another
// goroutine is already draining, it returns at once and that goroutine
// delivers what this one enqueued.
func (d *dispatcher) drain() {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for len(d.queue) > 0 {
		f := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()
		d.run(f)
		d.mu.Lock()
	}
	d.queue = nil
	d.draining = false
	d.mu.Unlock()
}

func (d *dispatcher) run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Game event handler panicked", "panic", r, "stack_trace", string(debug.Stack()))
		}
	}()
	f()
}

// notify queues delivery of v on sig followed by the catch-all signal.
func notify[T any](d *dispatcher, events *Events, sig *Signal[T], name EventName, v T) {
	d.enqueue(func() {
		sig.emit(v)
		events.Any.emit(Emission{Name: name, Payload: v})
	})
}
