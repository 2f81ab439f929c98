// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package co

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing identifier.
// Loops and drives each take the next value from their own counter.
type Serial = uint32

var (
	loopCounter  atomix.Uint32
	driveCounter atomix.Uint32
)

func nextLoopSerial() Serial {
	return loopCounter.Add(1)
}

func nextDriveSerial() Serial {
	return driveCounter.Add(1)
}

// owner is a one-shot ownership claim embedded in coroutines built by
// this package. The first claim wins; the counter is never decremented,
// so an instance is driven by at most one driver over its lifetime.
type owner struct {
	claims atomix.Uint32
}

func (o *owner) claim() bool {
	return o.claims.Add(1) == 1
}

// claimer is implemented by coroutines that enforce single ownership.
type claimer interface {
	claim() bool
}
