// SPDX-License-Identifier: MIT

// Package bitint provides power-of-two helpers for buffer and FFT sizing.
// All operations are O(1), allocation-free, and safe to call from the
// real-time audio path.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Exact powers of two are preserved; zero and negative inputs yield 1.
// The size-1 before bits.Len is what keeps exact powers from doubling.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
// Powers of two have a single set bit, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
