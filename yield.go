// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

// Kind tags the shape of a Yield.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindValue
	KindAwaitable
	KindCoroutine
	KindSequence
	KindMapping
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindValue:     "value",
	KindAwaitable: "awaitable",
	KindCoroutine: "coroutine",
	KindSequence:  "sequence",
	KindMapping:   "mapping",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Yield is the value a coroutine produces at a suspension point.
// It is a closed union; build it with Plain, Awaiting, Delegate,
// Sequence, All or Keyed. The zero Yield is KindInvalid.
type Yield struct {
	kind  Kind
	value any
	await Awaitable
	co    Coroutine
	items []Yield
	keyed map[string]Yield
}

// Plain yields an already available value. The coroutine is resumed
// with v on the next scheduling tick.
func Plain(v any) Yield {
	return Yield{kind: KindValue, value: v}
}

// Awaiting yields an awaitable; the coroutine resumes with its outcome.
// A nil awaitable produces an invalid Yield.
func Awaiting(a Awaitable) Yield {
	if a == nil {
		return Yield{}
	}
	return Yield{kind: KindAwaitable, await: a}
}

// Delegate yields a sub-coroutine, which is driven to completion and
// whose result or error becomes the outcome of this suspension point.
// A nil coroutine produces an invalid Yield.
func Delegate(c Coroutine) Yield {
	if c == nil {
		return Yield{}
	}
	return Yield{kind: KindCoroutine, co: c}
}

// Sequence yields an ordered list; it resumes with []any once every
// element settled, or fails with the first rejection.
func Sequence(ys []Yield) Yield {
	return Yield{kind: KindSequence, items: ys}
}

// All is the variadic form of Sequence.
func All(ys ...Yield) Yield {
	return Sequence(ys)
}

// Keyed yields a mapping; it resumes with map[string]any holding the
// same keys, or fails with the first rejection.
func Keyed(m map[string]Yield) Yield {
	return Yield{kind: KindMapping, keyed: m}
}

// Kind reports the shape of y.
func (y Yield) Kind() Kind {
	return y.kind
}

// Value returns the payload of a KindValue yield.
func (y Yield) Value() any {
	return y.value
}
