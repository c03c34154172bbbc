package qkd

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/qkd/bitmap"
)

// ParityBlockSize is the number of sifted bits covered by each parity check.
const ParityBlockSize = 7

// MinCorrectionLength is the shortest sifted key worth checking.
const MinCorrectionLength = 2 * ParityBlockSize

// A Correction reports the outcome of the block parity check. Blocks whose
// parities differ are only flagged; nothing is repaired.
type Correction struct {
	Skipped bool
	Blocks  int
	Flagged []int
}

// checkParity compares Alice's and Bob's parity over consecutive blocks of
// blockSize sifted bits. A trailing partial block is checked over the bits it
// has.
func checkParity(k siftedKey, blockSize int) (Correction, error) {
	n := k.Len()
	if n < 2*blockSize {
		return Correction{Skipped: true}, nil
	}
	var c Correction
	for start := 0; start < n; start += blockSize {
		end := start + blockSize
		if end > n {
			end = n
		}
		a, err := bitmap.Slice(k.alice, start, end)
		if err != nil {
			return Correction{}, fmt.Errorf("slicing block %d: %w", c.Blocks, err)
		}
		b, err := bitmap.Slice(k.bob, start, end)
		if err != nil {
			return Correction{}, fmt.Errorf("slicing block %d: %w", c.Blocks, err)
		}
		if bitmap.Parity(a) != bitmap.Parity(b) {
			c.Flagged = append(c.Flagged, c.Blocks)
		}
		c.Blocks++
	}
	return c, nil
}
