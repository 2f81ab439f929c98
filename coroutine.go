// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

// Step is the outcome of advancing a coroutine once.
// While Done is false, Yielded holds the suspension value.
// Once Done is true, Value holds the final result.
type Step struct {
	Yielded Yield
	Value   any
	Done    bool
}

// Coroutine is a resumable computation advanced by a driver.
//
// Each method resumes the coroutine from its last suspension point and
// runs it to the next one. A returned error means the body terminated
// abnormally. A terminal coroutine answers without running body code:
// Advance reports Done with a nil Value, ForceReturn reports Done with
// the given value, and ThrowInto returns the given error.
type Coroutine interface {
	// Advance resumes with v as the value of the pending suspension point.
	Advance(v any) (Step, error)
	// ThrowInto resumes by raising err at the pending suspension point.
	ThrowInto(err error) (Step, error)
	// ForceReturn terminates early with v as the final value. Pending
	// cleanup runs first and may suspend again, in which case the
	// returned Step is not Done and driving continues normally.
	ForceReturn(v any) (Step, error)
}

// Factory creates a coroutine in its initial, not yet started state.
type Factory func(args ...any) Coroutine

type mode uint8

const (
	modeResume mode = iota
	modeThrow
	modeReturn
)

// advance applies one resumption of the given mode to c.
func advance(c Coroutine, m mode, v any, err error) (Step, error) {
	switch m {
	case modeThrow:
		return c.ThrowInto(err)
	case modeReturn:
		return c.ForceReturn(v)
	default:
		return c.Advance(v)
	}
}

// terminal answers a resumption of a coroutine that already finished.
func terminal(m mode, v any, err error) (Step, error) {
	switch m {
	case modeThrow:
		return Step{}, err
	case modeReturn:
		return Step{Value: v, Done: true}, nil
	default:
		return Step{Done: true}, nil
	}
}
