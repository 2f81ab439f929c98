// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import (
	"fmt"
	"log/slog"
)

// Task is the handle of one drive. The embedded Future settles exactly
// once with the coroutine's final value or its failure.
type Task struct {
	*Future
	loop *Loop
	d    *drive
}

// Drive runs factory(args...) to completion on the default Loop.
func Drive(factory Factory, args ...any) *Task {
	return Default().Drive(factory, args...)
}

// Drive instantiates factory(args...) on the loop goroutine and drives
// the coroutine to completion. It never runs coroutine code on the
// calling goroutine and never fails synchronously; every failure is
// delivered through the Task.
func (l *Loop) Drive(factory Factory, args ...any) *Task {
	t, resolve, reject := l.newTask()
	err := l.Submit(func() {
		if factory == nil {
			reject(&InvalidCoroutineError{Reason: "nil factory"})
			return
		}
		c, err := instantiate(factory, args)
		if err != nil {
			reject(err)
			return
		}
		t.d = l.start(c, resolve, reject)
	})
	if err != nil {
		reject(err)
	}
	return t
}

// Spawn drives an existing coroutine instance to completion.
func (l *Loop) Spawn(c Coroutine) *Task {
	t, resolve, reject := l.newTask()
	err := l.Submit(func() {
		if c == nil {
			reject(&InvalidCoroutineError{Reason: "nil coroutine"})
			return
		}
		t.d = l.start(c, resolve, reject)
	})
	if err != nil {
		reject(err)
	}
	return t
}

// Return asks the driver to terminate the coroutine early with v as its
// final value. The coroutine's pending cleanup runs first and may
// suspend again; the Task settles once the coroutine truly terminates.
// Return has no effect on a settled Task.
func (t *Task) Return(v any) {
	_ = t.loop.Submit(func() {
		d := t.d
		if d == nil || d.settled {
			return
		}
		d.gen++
		d.step(modeReturn, v, nil)
	})
}

func (l *Loop) newTask() (*Task, func(any), func(error)) {
	f, resolve, reject := NewFuture()
	l.track(f, reject)
	return &Task{Future: f, loop: l}, resolve, reject
}

func instantiate(factory Factory, args []any) (c Coroutine, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, &PropagatedBodyError{Err: newPanicError(p)}
		}
	}()
	c = factory(args...)
	if c == nil {
		return nil, &InvalidCoroutineError{Reason: "factory produced no coroutine"}
	}
	return c, nil
}

// drive owns one in-flight coroutine. All fields are confined to the
// loop goroutine.
type drive struct {
	loop    *Loop
	c       Coroutine
	serial  Serial
	gen     uint64
	settled bool
	resolve func(any)
	reject  func(error)
}

func (l *Loop) start(c Coroutine, resolve func(any), reject func(error)) *drive {
	d := &drive{
		loop:    l,
		c:       c,
		serial:  nextDriveSerial(),
		resolve: resolve,
		reject:  reject,
	}
	if cl, ok := c.(claimer); ok && !cl.claim() {
		d.fail(&InvalidCoroutineError{Reason: "coroutine is already driven"})
		return d
	}
	l.log.Debug("drive started", slog.Uint64("drive", uint64(d.serial)))
	d.step(modeResume, nil, nil)
	return d
}

// step advances the coroutine once and arranges the next resumption.
func (d *drive) step(m mode, v any, err error) {
	if d.settled {
		return
	}
	s, err := d.advance(m, v, err)
	if err != nil {
		d.fail(bodyError(err))
		return
	}
	if s.Done {
		d.succeed(s.Value)
		return
	}

	d.gen++
	gen := d.gen
	if s.Yielded.Kind() == KindValue {
		pv := s.Yielded.Value()
		d.loop.microtask(func() { d.resume(gen, modeResume, pv, nil) })
		return
	}
	a, nerr := d.loop.normalize(s.Yielded)
	if nerr != nil {
		// Thrown in first so the body can clean up or recover.
		d.loop.microtask(func() { d.resume(gen, modeThrow, nil, nerr) })
		return
	}
	a.OnResolve(func(v any) { d.post(gen, modeResume, v, nil) })
	a.OnReject(func(err error) { d.post(gen, modeThrow, nil, err) })
}

func (d *drive) advance(m mode, v any, err error) (s Step, e error) {
	defer func() {
		if p := recover(); p != nil {
			s, e = Step{}, newPanicError(p)
		}
	}()
	return advance(d.c, m, v, err)
}

// post hands a continuation back to the loop. Awaitables may settle on
// any goroutine. A closed loop has already rejected the drive.
func (d *drive) post(gen uint64, m mode, v any, err error) {
	_ = d.loop.Submit(func() { d.resume(gen, m, v, err) })
}

// resume ignores continuations of a suspension point that was abandoned
// by a forced return or already resumed.
func (d *drive) resume(gen uint64, m mode, v any, err error) {
	if gen != d.gen {
		return
	}
	d.step(m, v, err)
}

func (d *drive) succeed(v any) {
	d.settled = true
	d.loop.log.Debug("drive resolved", slog.Uint64("drive", uint64(d.serial)))
	d.resolve(v)
}

func (d *drive) fail(err error) {
	d.settled = true
	d.loop.log.Debug("drive rejected", slog.Uint64("drive", uint64(d.serial)), slog.Any("err", err))
	d.reject(err)
}

// normalize turns a non-plain Yield into a single Awaitable. The whole
// value is validated before any nested coroutine is spawned.
func (l *Loop) normalize(y Yield) (Awaitable, error) {
	if err := validate(y, ""); err != nil {
		return nil, err
	}
	return l.awaitable(y), nil
}

func validate(y Yield, path string) error {
	switch y.kind {
	case KindValue, KindAwaitable, KindCoroutine:
		return nil
	case KindSequence:
		for i, item := range y.items {
			if err := validate(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case KindMapping:
		for k, item := range y.keyed {
			if err := validate(item, fmt.Sprintf("%s[%q]", path, k)); err != nil {
				return err
			}
		}
		return nil
	}
	return &UnsupportedYieldError{Kind: y.kind, Path: path}
}

func (l *Loop) awaitable(y Yield) Awaitable {
	switch y.kind {
	case KindAwaitable:
		return y.await
	case KindCoroutine:
		return l.Spawn(y.co).Future
	case KindSequence:
		fs := make([]*Future, len(y.items))
		for i, item := range y.items {
			fs[i] = FromAwaitable(l.awaitable(item))
		}
		return JoinAll(fs...)
	case KindMapping:
		fs := make(map[string]*Future, len(y.keyed))
		for k, item := range y.keyed {
			fs[k] = FromAwaitable(l.awaitable(item))
		}
		return JoinKeyed(fs)
	}
	return Resolved(y.value)
}
