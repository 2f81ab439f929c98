// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/co"
)

// newLoop starts a Loop that is closed when the test ends.
func newLoop(tb testing.TB, opts ...co.Option) *co.Loop {
	tb.Helper()
	l := co.NewLoop(opts...)
	tb.Cleanup(func() { _ = l.Close() })
	return l
}

// wait blocks until f settles, failing the test after a generous timeout.
func wait(tb testing.TB, f *co.Future) (any, error) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		tb.Fatal("future did not settle")
	}
	return v, err
}

// never is an awaitable that never settles and counts registrations.
type never struct {
	registered chan struct{}
}

func newNever() *never {
	return &never{registered: make(chan struct{}, 2)}
}

func (n *never) OnResolve(func(any)) { n.registered <- struct{}{} }
func (n *never) OnReject(func(error)) { n.registered <- struct{}{} }

// plainGen yields each of values as a plain value and returns the
// resumption values it received.
func plainGen(values ...any) co.Factory {
	return co.Gen(func(y *co.Yielder, _ ...any) (any, error) {
		got := make([]any, 0, len(values))
		for _, v := range values {
			r, err := y.Yield(co.Plain(v))
			if err != nil {
				return nil, err
			}
			got = append(got, r)
		}
		return got, nil
	})
}
