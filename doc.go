// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package co drives coroutines to completion by resolving what they
// yield and feeding results or errors back in, after the JavaScript
// co library.
//
// # Architecture
//
//   - Coroutines: [Coroutine] is a three-operation protocol ([Coroutine.Advance],
//     [Coroutine.ThrowInto], [Coroutine.ForceReturn]) answering a [Step].
//     [Gen] builds goroutine-backed coroutines with a [Yielder];
//     [FromEff] builds effect coroutines on [code.hybscloud.com/kont] that
//     suspend with [AwaitOp].
//   - Suspension values: [Yield] is a closed union built by [Plain], [Awaiting],
//     [Delegate], [Sequence]/[All] and [Keyed].
//   - Awaitables: anything with OnResolve/OnReject ([Awaitable]); [Future] is
//     the package's one-shot implementation, combined by [JoinAll] and [JoinKeyed].
//   - Scheduling: a [Loop] runs every driver step on one goroutine. Microtasks
//     use a bounded [code.hybscloud.com/lfq] ring with an overflow queue;
//     cross-goroutine tasks arrive through [Loop.Submit].
//
// # Driving
//
// [Loop.Drive] (or [Drive] on the [Default] loop) instantiates a coroutine
// and steps it: a plain value resumes it on the next tick, an awaitable
// resumes it with its value or throws its error in, a coroutine is
// driven as a nested drive, and sequences or mappings are joined.
// The returned [Task] settles exactly once. [Task.Return] forces an
// early return, running the coroutine's cleanup first.
//
// Failures: [InvalidCoroutineError] for a factory that produced nothing,
// [UnsupportedYieldError] for an invalid suspension value, and
// [PropagatedBodyError] for errors escaping the body.
//
// # Example
//
//	sum := co.Gen(func(y *co.Yielder, args ...any) (any, error) {
//		v, err := y.Await(co.After(time.Second, func() (any, error) {
//			return args[0].(int) + args[1].(int), nil
//		}))
//		if err != nil {
//			return nil, err
//		}
//		return v, nil
//	})
//	v, err := co.Drive(sum, 1, 2).Wait(ctx) // 3 after about a second
package co
