// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import "iter"

// Values pulls the plain values c yields, advancing it with nil each
// time, without a driver or a Loop. Body code runs on the ranging
// goroutine's turn, so it must not suspend on awaitables: a non-plain
// yield ends the iteration with an *UnsupportedYieldError. A body error
// ends it with that error.
//
// Leaving the range loop early force-returns c so its cleanup runs.
func Values(c Coroutine) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if c == nil {
			yield(nil, &InvalidCoroutineError{Reason: "nil coroutine"})
			return
		}
		if cl, ok := c.(claimer); ok && !cl.claim() {
			yield(nil, &InvalidCoroutineError{Reason: "coroutine is already driven"})
			return
		}
		s, err := c.Advance(nil)
		for {
			if err != nil {
				yield(nil, bodyError(err))
				return
			}
			if s.Done {
				return
			}
			if k := s.Yielded.Kind(); k != KindValue {
				finish(c)
				yield(nil, &UnsupportedYieldError{Kind: k})
				return
			}
			if !yield(s.Yielded.Value(), nil) {
				finish(c)
				return
			}
			s, err = c.Advance(nil)
		}
	}
}

// Collect gathers every value Values produces.
func Collect(c Coroutine) ([]any, error) {
	var out []any
	for v, err := range Values(c) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// finish force-returns c and steps any cleanup it runs to termination.
func finish(c Coroutine) {
	s, err := c.ForceReturn(nil)
	for err == nil && !s.Done {
		if k := s.Yielded.Kind(); k == KindValue {
			s, err = c.Advance(s.Yielded.Value())
		} else {
			s, err = c.ThrowInto(&UnsupportedYieldError{Kind: k})
		}
	}
}
