// Package bitmap provides densely-packed bit sequences used to hold raw and
// sifted key material.
package bitmap

import (
	"fmt"
	"math/bits"
	"strings"
)

const byteSize = 8

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored so that tests can group bits for legibility.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %q", s)
		}
	}
	return d, nil
}

// Parity returns the overall parity of d, with true corresponding to 1 and
// false to 0.
func Parity(d Dense) bool {
	var sum byte
	for _, b := range d.bits {
		sum ^= b
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in d.
func CountOnes(d Dense) int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Differences returns the number of positions at which a and b disagree. Both
// must have the same size.
func Differences(a, b Dense) (int, error) {
	if a.len != b.len {
		return 0, fmt.Errorf("comparing bitmaps of different lengths: %d != %d", a.len, b.len)
	}
	return CountOnes(XOr(a, b)), nil
}

// Equal reports whether a and b have the same size and hold the same bits.
func Equal(a, b Dense) bool {
	n, err := Differences(a, b)
	return err == nil && n == 0
}

// Prefix renders at most n leading bits of d as '0'/'1' characters, followed
// by "..." when d was truncated.
func Prefix(d Dense, n int) string {
	var sb strings.Builder
	for i := 0; i < d.len && i < n; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	if d.len > n {
		sb.WriteString("...")
	}
	return sb.String()
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}
