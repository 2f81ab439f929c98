// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import (
	"errors"
	"fmt"
	"strings"

	"code.hybscloud.com/kont"
)

// Outcome is what an effect coroutine is resumed with at an AwaitOp.
// Exactly one of Value, Err or Returning is meaningful: the awaited
// value, an injected error, or a forced return carrying its value.
type Outcome struct {
	Value     any
	Err       error
	Returning bool
}

// AwaitOp is the effect operation for suspending on a Yield.
// Perform(AwaitOp{Yield: y}) suspends until the driver resumes with an Outcome.
type AwaitOp struct {
	kont.Phantom[Outcome]
	Yield Yield
}

// Await suspends on y and resumes with the raw Outcome. Bodies that
// handle injected errors or need cleanup on forced return branch on it.
func Await(y Yield) kont.Eff[Outcome] {
	return kont.Perform(AwaitOp{Yield: y})
}

// AwaitBind suspends on y and passes the resumed value to f.
// Fuses Perform(AwaitOp{}) + Bind. An injected error or a forced
// return short-circuits the rest of the computation.
func AwaitBind[B any](y Yield, f func(any) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Await(y), func(o Outcome) kont.Eff[B] {
		switch {
		case o.Returning:
			return kont.ThrowError[error, B](errReturned)
		case o.Err != nil:
			return kont.ThrowError[error, B](o.Err)
		}
		return f(o.Value)
	})
}

// errReturned short-circuits a computation that was forced to return.
var errReturned = errors.New("co: returned early")

// EffFunc builds the computation of an effect coroutine.
type EffFunc func(args ...any) kont.Eff[any]

// FromEff returns a Factory whose coroutines evaluate fn(args...) one
// effect at a time on the driving goroutine. The computation suspends
// on AwaitOp and may use kont error effects; any other effect fails the
// coroutine.
//
// kont runs a CatchError body to completion in one go, so that body
// cannot suspend: awaiting inside it fails the coroutine with
// ErrSuspendInCatch. To handle an injected error around an await,
// branch on Outcome.Err from Await.
//
// A forced return resumes the pending Await with Returning set. The
// computation may keep awaiting to clean up; its final value is then
// replaced by the forced one.
func FromEff(fn EffFunc) Factory {
	return func(args ...any) Coroutine {
		if fn == nil {
			return nil
		}
		return &effCoroutine{build: func() kont.Eff[any] { return fn(args...) }}
	}
}

// errorDispatcher is the structural interface of kont error operations.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// dispatchError runs op eagerly. An effect other than an error effect
// inside a scoped handler body surfaces from kont as a panic; that one
// is reported as ErrSuspendInCatch.
func dispatchError(op errorDispatcher, ctx *kont.ErrorContext[error]) (v kont.Resumed, err error) {
	defer func() {
		if p := recover(); p != nil {
			if !strings.Contains(fmt.Sprint(p), "unhandled effect") {
				panic(p)
			}
			v, err = nil, ErrSuspendInCatch
		}
	}()
	v, _ = op.DispatchError(ctx)
	return v, nil
}

type effCoroutine struct {
	owner
	build     func() kont.Eff[any]
	susp      *kont.Suspension[kont.Either[error, any]]
	started   bool
	done      bool
	returning bool
	forced    any
}

func (c *effCoroutine) Advance(v any) (Step, error) {
	return c.resume(modeResume, v, nil)
}

func (c *effCoroutine) ThrowInto(err error) (Step, error) {
	return c.resume(modeThrow, nil, err)
}

func (c *effCoroutine) ForceReturn(v any) (Step, error) {
	return c.resume(modeReturn, v, nil)
}

func (c *effCoroutine) resume(m mode, v any, err error) (s Step, e error) {
	if c.done {
		return terminal(m, v, err)
	}
	defer func() {
		if p := recover(); p != nil {
			c.done, c.susp = true, nil
			s, e = Step{}, newPanicError(p)
		}
	}()
	if !c.started {
		if m != modeResume {
			c.done = true
			return terminal(m, v, err)
		}
		c.started = true
		wrapped := kont.Map[kont.Resumed, any, kont.Either[error, any]](c.build(), func(r any) kont.Either[error, any] {
			return kont.Right[error, any](r)
		})
		return c.settle(kont.StepExpr(kont.Reify(wrapped)))
	}
	o := Outcome{Value: v, Err: err}
	if m == modeReturn {
		c.returning, c.forced = true, v
		o.Returning = true
	}
	susp := c.susp
	c.susp = nil
	return c.settle(susp.Resume(o))
}

// settle runs error effects eagerly and stops at the next AwaitOp or
// at completion.
func (c *effCoroutine) settle(result kont.Either[error, any], susp *kont.Suspension[kont.Either[error, any]]) (Step, error) {
	for susp != nil {
		switch op := susp.Op().(type) {
		case AwaitOp:
			c.susp = susp
			return Step{Yielded: op.Yield}, nil
		case errorDispatcher:
			var ctx kont.ErrorContext[error]
			v, err := dispatchError(op, &ctx)
			if err != nil {
				c.done = true
				return Step{}, err
			}
			if ctx.HasErr {
				susp.Discard()
				result, susp = kont.Left[error, any](ctx.Err), nil
				continue
			}
			result, susp = susp.Resume(v)
		default:
			susp.Discard()
			c.done = true
			return Step{}, fmt.Errorf("co: unhandled effect %T in effect coroutine", op)
		}
	}
	c.done = true
	if err, ok := result.GetLeft(); ok {
		if err == errReturned && c.returning {
			return Step{Value: c.forced, Done: true}, nil
		}
		return Step{}, err
	}
	v, _ := result.GetRight()
	if c.returning {
		v = c.forced
	}
	return Step{Value: v, Done: true}, nil
}
