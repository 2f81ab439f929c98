// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co_test

import (
	"errors"
	"strings"
	"testing"

	"code.hybscloud.com/co"
)

// mustStep fails the test on a step error. Use as mustStep(t)(c.Advance(v)).
func mustStep(t *testing.T) func(co.Step, error) co.Step {
	t.Helper()
	return func(s co.Step, err error) co.Step {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return s
	}
}

func expectYield(t *testing.T, s co.Step, want any) {
	t.Helper()
	if s.Done {
		t.Fatalf("expected suspension, got done with %v", s.Value)
	}
	if s.Yielded.Kind() != co.KindValue {
		t.Fatalf("expected plain yield, got %s", s.Yielded.Kind())
	}
	if s.Yielded.Value() != want {
		t.Fatalf("yielded %v, want %v", s.Yielded.Value(), want)
	}
}

func expectDone(t *testing.T, s co.Step, want any) {
	t.Helper()
	if !s.Done {
		t.Fatalf("expected done, got suspension of kind %s", s.Yielded.Kind())
	}
	if s.Value != want {
		t.Fatalf("final value %v, want %v", s.Value, want)
	}
}

func TestGenAdvanceSendsValues(t *testing.T) {
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		x, _ := y.Yield(co.Plain(1))
		return x.(int) + 2, nil
	})()

	expectYield(t, mustStep(t)(c.Advance(nil)), 1)
	expectDone(t, mustStep(t)(c.Advance(1)), 3)
	expectDone(t, mustStep(t)(c.Advance(nil)), nil)
}

func TestGenArguments(t *testing.T) {
	seq := co.Gen(func(y *co.Yielder, args ...any) (any, error) {
		start, number := args[0].(int), args[1].(int)
		for ; number > 0; number-- {
			y.Yield(co.Plain(start))
			start++
		}
		return nil, nil
	})

	c := seq(3, 2)
	expectYield(t, mustStep(t)(c.Advance(nil)), 3)
	expectYield(t, mustStep(t)(c.Advance(nil)), 4)
	expectDone(t, mustStep(t)(c.Advance(nil)), nil)
}

func TestGenThrowHandled(t *testing.T) {
	var caught error
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		y.Yield(co.Plain(1))
		if _, err := y.Yield(co.Plain(2)); err != nil {
			caught = err
		}
		y.Yield(co.Plain(3))
		y.Yield(co.Plain(4))
		return nil, nil
	})()

	boom := errors.New("boom!")
	expectYield(t, mustStep(t)(c.Advance(nil)), 1)
	expectYield(t, mustStep(t)(c.Advance(nil)), 2)
	expectYield(t, mustStep(t)(c.ThrowInto(boom)), 3)
	if caught != boom {
		t.Fatalf("caught %v, want %v", caught, boom)
	}
	expectYield(t, mustStep(t)(c.Advance(nil)), 4)
}

func TestGenThrowUnhandled(t *testing.T) {
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		x, err := y.Yield(co.Plain(1))
		if err != nil {
			return nil, err
		}
		z, err := y.Yield(co.Plain(x.(int) + 1))
		if err != nil {
			return nil, err
		}
		y.Yield(co.Plain(z.(int) * 10))
		return nil, nil
	})()

	hello := errors.New("hello")
	expectYield(t, mustStep(t)(c.Advance(nil)), 1)
	expectYield(t, mustStep(t)(c.Advance(1)), 2)
	if _, err := c.ThrowInto(hello); err != hello {
		t.Fatalf("ThrowInto got %v, want %v", err, hello)
	}
	expectDone(t, mustStep(t)(c.Advance(nil)), nil)
}

func TestGenTerminalIsDeterministic(t *testing.T) {
	c := plainGen("a", "b", "c")()
	for _, want := range []string{"a", "b", "c"} {
		expectYield(t, mustStep(t)(c.Advance(nil)), want)
	}
	mustStep(t)(c.Advance(nil))

	expectDone(t, mustStep(t)(c.ForceReturn("d")), "d")
	expectDone(t, mustStep(t)(c.ForceReturn("e")), "e")
	expectDone(t, mustStep(t)(c.Advance(nil)), nil)
	late := errors.New("late")
	if _, err := c.ThrowInto(late); err != late {
		t.Fatalf("ThrowInto on finished coroutine got %v, want %v", err, late)
	}
}

func TestGenNotStarted(t *testing.T) {
	ran := false
	body := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		ran = true
		return nil, nil
	})

	expectDone(t, mustStep(t)(body().ForceReturn("early")), "early")

	early := errors.New("early")
	if _, err := body().ThrowInto(early); err != early {
		t.Fatalf("ThrowInto before start got %v, want %v", err, early)
	}
	if ran {
		t.Fatal("body ran for a coroutine that never started")
	}
}

func TestGenForceReturnRunsCleanupOnce(t *testing.T) {
	cleanups := 0
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		defer func() { cleanups++ }()
		y.Yield(co.Plain("a"))
		y.Yield(co.Plain("b"))
		return "natural", nil
	})()

	expectYield(t, mustStep(t)(c.Advance(nil)), "a")
	expectDone(t, mustStep(t)(c.ForceReturn("forced")), "forced")
	if cleanups != 1 {
		t.Fatalf("cleanup ran %d times, want 1", cleanups)
	}
	mustStep(t)(c.ForceReturn("again"))
	if cleanups != 1 {
		t.Fatalf("cleanup ran %d times after terminal return, want 1", cleanups)
	}
}

func TestGenForceReturnCleanupSuspends(t *testing.T) {
	var returning bool
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		defer func() {
			returning = y.Returning()
			y.Yield(co.Plain("cleanup"))
		}()
		y.Yield(co.Plain("body"))
		return "natural", nil
	})()

	expectYield(t, mustStep(t)(c.Advance(nil)), "body")
	expectYield(t, mustStep(t)(c.ForceReturn("forced")), "cleanup")
	if !returning {
		t.Fatal("Returning() should report true during cleanup")
	}
	expectDone(t, mustStep(t)(c.Advance(nil)), "forced")
}

func TestGenPanic(t *testing.T) {
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		y.Yield(co.Plain(1))
		panic("test panic")
	})()

	mustStep(t)(c.Advance(nil))
	_, err := c.Advance(nil)
	if err == nil || !strings.Contains(err.Error(), "test panic") {
		t.Fatalf("expected panic error, got %v", err)
	}
	expectDone(t, mustStep(t)(c.Advance(nil)), nil)
}

func TestGenPanicUnwrapsError(t *testing.T) {
	boom := errors.New("boom")
	c := co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		panic(boom)
	})()
	if _, err := c.Advance(nil); !errors.Is(err, boom) {
		t.Fatalf("expected error wrapping %v, got %v", boom, err)
	}
}

func TestGenNilBody(t *testing.T) {
	if c := co.Gen(nil)(); c != nil {
		t.Fatalf("expected nil coroutine, got %T", c)
	}
}
