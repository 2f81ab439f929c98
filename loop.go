// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import (
	"log/slog"
	"sync"

	"code.hybscloud.com/lfq"
	"github.com/eapache/queue"
)

// defaultMicrotaskCapacity sizes the microtask ring. Drives that resume
// on plain values stay within the ring; bursts spill to the overflow.
const defaultMicrotaskCapacity = 256

type config struct {
	logger            *slog.Logger
	microtaskCapacity int
}

// Option configures a Loop.
type Option func(*config)

// WithLogger sets the structured logger. The default discards records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMicrotaskCapacity sets the microtask ring size, rounded up to a
// power of two.
func WithMicrotaskCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.microtaskCapacity = n
		}
	}
}

// Loop is a single-goroutine cooperative scheduler. Every driver step
// runs on the loop goroutine, so at most one step of one coroutine
// executes at any time.
//
// Work arrives on two queues:
//
//   - Microtasks: scheduled by loop-resident code (a plain-value
//     resumption). A bounded lfq.SPSC ring whose producer and consumer
//     are both the loop goroutine, with an unbounded overflow that keeps
//     FIFO order once the ring is full.
//   - Tasks: submitted from any goroutine through Submit, typically by
//     awaitable continuations. A mutex-guarded queue drained in batches.
//
// Microtasks are drained before the first task of a batch and after
// each task.
type Loop struct {
	serial Serial
	log    *slog.Logger

	ring  lfq.SPSC[func()]
	spill *queue.Queue

	mu       sync.Mutex
	external *queue.Queue
	pending  map[*Future]func(error)
	closed   bool

	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

// NewLoop starts a Loop on a new goroutine.
func NewLoop(opts ...Option) *Loop {
	cfg := config{
		logger:            slog.New(slog.DiscardHandler),
		microtaskCapacity: defaultMicrotaskCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &Loop{
		serial:   nextLoopSerial(),
		spill:    queue.New(),
		external: queue.New(),
		pending:  make(map[*Future]func(error)),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	l.log = cfg.logger.With(slog.Uint64("loop", uint64(l.serial)))
	l.ring.Init(roundPow2(cfg.microtaskCapacity))
	go l.run()
	return l
}

var defaultLoop = sync.OnceValue(func() *Loop { return NewLoop() })

// Default returns the process-wide Loop used by Drive. It is never closed.
func Default() *Loop {
	return defaultLoop()
}

// Serial returns the serial number assigned to l.
func (l *Loop) Serial() Serial {
	return l.serial
}

// Submit queues fn to run on the loop goroutine. Safe for concurrent use.
// Returns ErrLoopClosed once Close was called.
func (l *Loop) Submit(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.external.Add(fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the loop and waits for its goroutine to exit. Tasks still
// queued are dropped and every unsettled Task rejects with
// ErrLoopClosed. Close must not be called from the loop goroutine.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.closed = true
	dropped := l.external.Length()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	close(l.quit)
	<-l.stopped
	for _, reject := range pending {
		reject(ErrLoopClosed)
	}
	l.log.Debug("loop stopped", slog.Int("dropped", dropped), slog.Int("abandoned", len(pending)))
	return nil
}

// track registers f so Close can reject it; f leaves the set once it settles.
func (l *Loop) track(f *Future, reject func(error)) {
	l.mu.Lock()
	if l.pending != nil {
		l.pending[f] = reject
	}
	l.mu.Unlock()
	untrack := func() {
		l.mu.Lock()
		delete(l.pending, f)
		l.mu.Unlock()
	}
	f.Then(func(any) { untrack() }, func(error) { untrack() })
}

// microtask schedules fn after the current task. Loop goroutine only.
func (l *Loop) microtask(fn func()) {
	if l.spill.Length() == 0 {
		if err := l.ring.Enqueue(&fn); err == nil {
			return
		}
	}
	l.spill.Add(fn)
}

func (l *Loop) nextMicrotask() (func(), bool) {
	if fn, err := l.ring.Dequeue(); err == nil {
		return fn, true
	}
	if l.spill.Length() > 0 {
		return l.spill.Remove().(func()), true
	}
	return nil, false
}

func (l *Loop) drain() {
	for {
		fn, ok := l.nextMicrotask()
		if !ok {
			return
		}
		l.exec(fn)
	}
}

// take detaches the queued tasks, or returns nil when there are none.
func (l *Loop) take() *queue.Queue {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.external.Length() == 0 {
		return nil
	}
	batch := l.external
	l.external = queue.New()
	return batch
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		l.drain()
		batch := l.take()
		if batch == nil {
			select {
			case <-l.wake:
				continue
			case <-l.quit:
				return
			}
		}
		for batch.Length() > 0 {
			select {
			case <-l.quit:
				return
			default:
			}
			l.exec(batch.Remove().(func()))
			l.drain()
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			l.log.Error("task panicked", slog.Any("err", newPanicError(p)))
		}
	}()
	fn()
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
