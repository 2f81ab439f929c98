// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import (
	"context"
	"sync"
	"time"

	"code.hybscloud.com/iox"
)

// Awaitable is anything a coroutine can suspend on. An implementation
// must eventually call exactly one kind of registered continuation,
// once per registration. Continuations may be invoked on any goroutine.
type Awaitable interface {
	OnResolve(fn func(v any))
	OnReject(fn func(err error))
}

type futureState uint8

const (
	futurePending futureState = iota
	futureResolved
	futureRejected
)

// Future is a one-shot result settled exactly once, either resolved
// with a value or rejected with an error. It implements Awaitable.
// Continuations run synchronously on the goroutine that settles the
// Future, or on the registering goroutine if it already settled.
type Future struct {
	mu        sync.Mutex
	state     futureState
	value     any
	err       error
	onResolve []func(any)
	onReject  []func(error)
	done      chan struct{}
}

// NewFuture returns a pending Future with its settle functions.
// Only the first call to either function has an effect.
func NewFuture() (f *Future, resolve func(v any), reject func(err error)) {
	f = &Future{done: make(chan struct{})}
	return f, f.resolve, f.reject
}

// Resolved returns a Future already resolved with v.
func Resolved(v any) *Future {
	f, resolve, _ := NewFuture()
	resolve(v)
	return f
}

// Rejected returns a Future already rejected with err.
func Rejected(err error) *Future {
	f, _, reject := NewFuture()
	reject(err)
	return f
}

// FromAwaitable adapts any Awaitable to a Future.
func FromAwaitable(a Awaitable) *Future {
	if f, ok := a.(*Future); ok {
		return f
	}
	f, resolve, reject := NewFuture()
	a.OnResolve(resolve)
	a.OnReject(reject)
	return f
}

// Go runs fn on a new goroutine and settles the Future with its result.
// A panic in fn rejects the Future.
func Go(fn func() (any, error)) *Future {
	f, resolve, reject := NewFuture()
	go settleWith(fn, resolve, reject)
	return f
}

// After runs fn once d has elapsed and settles the Future with its result.
func After(d time.Duration, fn func() (any, error)) *Future {
	f, resolve, reject := NewFuture()
	time.AfterFunc(d, func() { settleWith(fn, resolve, reject) })
	return f
}

func settleWith(fn func() (any, error), resolve func(any), reject func(error)) {
	defer func() {
		if p := recover(); p != nil {
			reject(newPanicError(p))
		}
	}()
	v, err := fn()
	if err != nil {
		reject(err)
		return
	}
	resolve(v)
}

func (f *Future) resolve(v any) {
	f.mu.Lock()
	if f.state != futurePending {
		f.mu.Unlock()
		return
	}
	f.state, f.value = futureResolved, v
	fns := f.onResolve
	f.onResolve, f.onReject = nil, nil
	close(f.done)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (f *Future) reject(err error) {
	f.mu.Lock()
	if f.state != futurePending {
		f.mu.Unlock()
		return
	}
	f.state, f.err = futureRejected, err
	fns := f.onReject
	f.onResolve, f.onReject = nil, nil
	close(f.done)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// OnResolve registers fn to run with the value once f resolves.
func (f *Future) OnResolve(fn func(v any)) {
	f.mu.Lock()
	switch f.state {
	case futurePending:
		f.onResolve = append(f.onResolve, fn)
		f.mu.Unlock()
	case futureResolved:
		v := f.value
		f.mu.Unlock()
		fn(v)
	default:
		f.mu.Unlock()
	}
}

// OnReject registers fn to run with the error once f rejects.
func (f *Future) OnReject(fn func(err error)) {
	f.mu.Lock()
	switch f.state {
	case futurePending:
		f.onReject = append(f.onReject, fn)
		f.mu.Unlock()
	case futureRejected:
		err := f.err
		f.mu.Unlock()
		fn(err)
	default:
		f.mu.Unlock()
	}
}

// Then registers both continuations at once. Either may be nil.
func (f *Future) Then(onResolve func(v any), onReject func(err error)) {
	if onResolve != nil {
		f.OnResolve(onResolve)
	}
	if onReject != nil {
		f.OnReject(onReject)
	}
}

// Done is closed once f settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Poll returns the outcome without blocking.
// It returns iox.ErrWouldBlock while f is pending.
func (f *Future) Poll() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case futureResolved:
		return f.value, nil
	case futureRejected:
		return nil, f.err
	}
	return nil, iox.ErrWouldBlock
}

// Wait blocks until f settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.Poll()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
