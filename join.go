// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import "sync"

// JoinAll resolves with the values of fs in order once all of them
// resolved, or rejects with the first rejection observed. Remaining
// futures are not cancelled; their later outcomes are ignored.
func JoinAll(fs ...*Future) *Future {
	f, resolve, reject := NewFuture()
	if len(fs) == 0 {
		resolve([]any{})
		return f
	}
	var (
		mu      sync.Mutex
		values  = make([]any, len(fs))
		pending = len(fs)
	)
	for i, g := range fs {
		g.OnResolve(func(v any) {
			mu.Lock()
			values[i] = v
			pending--
			last := pending == 0
			mu.Unlock()
			if last {
				resolve(values)
			}
		})
		g.OnReject(reject)
	}
	return f
}

// JoinKeyed is JoinAll over a mapping; the resolved map[string]any
// carries the same keys as m.
func JoinKeyed(m map[string]*Future) *Future {
	f, resolve, reject := NewFuture()
	if len(m) == 0 {
		resolve(map[string]any{})
		return f
	}
	var (
		mu      sync.Mutex
		values  = make(map[string]any, len(m))
		pending = len(m)
	)
	for k, g := range m {
		g.OnResolve(func(v any) {
			mu.Lock()
			values[k] = v
			pending--
			last := pending == 0
			mu.Unlock()
			if last {
				resolve(values)
			}
		})
		g.OnReject(reject)
	}
	return f
}
