// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrLoopClosed is reported for work submitted to a closed Loop.
	ErrLoopClosed = errors.New("co: loop closed")

	// ErrYielderDone is raised when a Yielder is used after its body returned.
	ErrYielderDone = errors.New("co: yield after coroutine completion")

	// ErrRunning is returned when a coroutine is resumed while it is running.
	ErrRunning = errors.New("co: coroutine already running")

	// ErrSuspendInCatch is returned when an effect coroutine awaits inside
	// a kont CatchError body.
	ErrSuspendInCatch = errors.New("co: await inside CatchError body")
)

// InvalidCoroutineError reports a factory that did not produce a
// drivable coroutine.
type InvalidCoroutineError struct {
	Reason string
}

func (e *InvalidCoroutineError) Error() string {
	return "co: invalid coroutine: " + e.Reason
}

// UnsupportedYieldError reports a suspension value of an unsupported
// shape. Path locates the offending element inside a sequence or
// mapping ("" for the top level, "[2]", "[\"k\"]" and so on).
type UnsupportedYieldError struct {
	Kind Kind
	Path string
}

func (e *UnsupportedYieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("co: unsupported yield of kind %s", e.Kind)
	}
	return fmt.Sprintf("co: unsupported yield of kind %s at %s", e.Kind, e.Path)
}

// PropagatedBodyError carries an error raised inside a coroutine body,
// including an injected one the body did not handle.
type PropagatedBodyError struct {
	Err error
}

func (e *PropagatedBodyError) Error() string {
	return "co: coroutine failed: " + e.Err.Error()
}

func (e *PropagatedBodyError) Unwrap() error {
	return e.Err
}

// bodyError classifies an error leaving a coroutine. Errors this package
// already produced are passed through so nested drives do not stack
// wrappers.
func bodyError(err error) error {
	switch err.(type) {
	case *PropagatedBodyError, *UnsupportedYieldError, *InvalidCoroutineError:
		return err
	}
	return &PropagatedBodyError{Err: err}
}

// panicError is a recovered panic together with the stack it unwound.
type panicError struct {
	value any
	stack []byte
}

func newPanicError(v any) error {
	return &panicError{value: v, stack: debug.Stack()}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// ErrorWithStack renders the panic value followed by its stack.
func (p *panicError) ErrorWithStack() string {
	return fmt.Sprintf("%v\n\n%s", p.value, p.stack)
}

func (p *panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}
