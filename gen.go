// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

// Func is the body of a goroutine-backed coroutine. It suspends through
// y and finishes by returning its final value or an error.
type Func func(y *Yielder, args ...any) (any, error)

// Gen returns a Factory whose coroutines run fn on a dedicated goroutine.
// The goroutine starts on the first Advance and hands control back and
// forth with the driver, so body code never runs concurrently with it.
//
// Early termination unwinds the body: deferred functions run and may
// themselves suspend through the Yielder. A nil fn yields a Factory
// that produces no coroutine.
func Gen(fn Func) Factory {
	return func(args ...any) Coroutine {
		if fn == nil {
			return nil
		}
		return &generator{
			fn:   fn,
			args: args,
			in:   make(chan signal),
			out:  make(chan outcome),
		}
	}
}

type genState uint8

const (
	genCreated genState = iota
	genSuspended
	genRunning
	genDone
)

// signal travels driver → body.
type signal struct {
	mode  mode
	value any
	err   error
}

// outcome travels body → driver.
type outcome struct {
	step Step
	err  error
}

type generator struct {
	owner
	fn    Func
	args  []any
	state genState
	in    chan signal
	out   chan outcome
}

func (g *generator) Advance(v any) (Step, error) {
	return g.resume(signal{mode: modeResume, value: v})
}

func (g *generator) ThrowInto(err error) (Step, error) {
	return g.resume(signal{mode: modeThrow, err: err})
}

func (g *generator) ForceReturn(v any) (Step, error) {
	return g.resume(signal{mode: modeReturn, value: v})
}

func (g *generator) resume(sig signal) (Step, error) {
	switch g.state {
	case genDone:
		return terminal(sig.mode, sig.value, sig.err)
	case genRunning:
		return Step{}, ErrRunning
	case genCreated:
		if sig.mode != modeResume {
			g.state = genDone
			return terminal(sig.mode, sig.value, sig.err)
		}
		g.state = genRunning
		go g.run()
	default:
		g.state = genRunning
		g.in <- sig
	}
	o := <-g.out
	if o.err != nil || o.step.Done {
		g.state = genDone
	} else {
		g.state = genSuspended
	}
	return o.step, o.err
}

// run executes the body and reports its termination exactly once.
func (g *generator) run() {
	y := &Yielder{g: g}
	var o outcome
	defer func() {
		if p := recover(); p != nil {
			if r, ok := p.(returnSignal); ok && r.y == y {
				o = outcome{step: Step{Value: r.value, Done: true}}
			} else {
				o = outcome{err: newPanicError(p)}
			}
		}
		y.done = true
		g.out <- o
	}()
	v, err := g.fn(y, g.args...)
	switch {
	case err != nil:
		o.err = err
	case y.returning:
		o.step = Step{Value: y.forced, Done: true}
	default:
		o.step = Step{Value: v, Done: true}
	}
}

// returnSignal unwinds a body that was asked to return early.
type returnSignal struct {
	y     *Yielder
	value any
}

// Yielder is the body side of a goroutine-backed coroutine.
// It must only be used by the body goroutine it was passed to.
type Yielder struct {
	g         *generator
	returning bool
	forced    any
	done      bool
}

// Yield suspends the body with v and returns what the driver resumes it
// with. An injected error is returned as err. A forced return unwinds
// the body with a panic that the coroutine recovers itself; deferred
// cleanup still runs and may call Yield again.
func (y *Yielder) Yield(v Yield) (any, error) {
	if y.done {
		panic(ErrYielderDone)
	}
	y.g.out <- outcome{step: Step{Yielded: v}}
	sig := <-y.g.in
	switch sig.mode {
	case modeThrow:
		return nil, sig.err
	case modeReturn:
		y.returning = true
		y.forced = sig.value
		panic(returnSignal{y: y, value: sig.value})
	}
	return sig.value, nil
}

// Await suspends on a.
func (y *Yielder) Await(a Awaitable) (any, error) {
	return y.Yield(Awaiting(a))
}

// Call delegates to the coroutine f(args...) and returns its result.
func (y *Yielder) Call(f Factory, args ...any) (any, error) {
	if f == nil {
		return y.Yield(Yield{})
	}
	return y.Yield(Delegate(f(args...)))
}

// Returning reports whether the body is unwinding after a forced return.
func (y *Yielder) Returning() bool {
	return y.returning
}
