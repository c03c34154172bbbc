package qkd

import (
	"math"
	"strings"
	"testing"

	"github.com/alan-christopher/qkdsim/qkd/bitmap"
)

func mustDense(t *testing.T, s string) bitmap.Dense {
	d, err := bitmap.FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func mustKey(t *testing.T, alice, bob string) siftedKey {
	if len(alice) != len(bob) {
		t.Fatalf("bugged test setup: key lengths %d != %d", len(alice), len(bob))
	}
	k := siftedKey{alice: mustDense(t, alice), bob: mustDense(t, bob)}
	for i := range alice {
		k.positions = append(k.positions, i)
	}
	return k
}

func TestCheckParity(t *testing.T) {
	tcs := []struct {
		name        string
		alice       string
		bob         string
		wantSkipped bool
		wantBlocks  int
		wantFlagged []int
	}{
		{
			name:        "too short",
			alice:       "1011010110100",
			bob:         "1011010110100",
			wantSkipped: true,
		},
		{
			name:       "identical",
			alice:      "10110101101001",
			bob:        "10110101101001",
			wantBlocks: 2,
		},
		{
			name:        "single error in second block",
			alice:       "10110101101001",
			bob:         "10110101111001",
			wantBlocks:  2,
			wantFlagged: []int{1},
		},
		{
			name:       "two errors in one block cancel",
			alice:      "10110101101001",
			bob:        "01110101101001",
			wantBlocks: 2,
		},
		{
			name:        "trailing partial block",
			alice:       "1011010110100111",
			bob:         "1011010110100110",
			wantBlocks:  3,
			wantFlagged: []int{2},
		},
		{
			name:        "every block",
			alice:       strings.Repeat("0", 21),
			bob:         "100000001000000010000",
			wantBlocks:  3,
			wantFlagged: []int{0, 1, 2},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := checkParity(mustKey(t, tc.alice, tc.bob), ParityBlockSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Skipped != tc.wantSkipped {
				t.Errorf("Skipped == %v, want %v", got.Skipped, tc.wantSkipped)
			}
			if got.Blocks != tc.wantBlocks {
				t.Errorf("Blocks == %v, want %v", got.Blocks, tc.wantBlocks)
			}
			if len(got.Flagged) != len(tc.wantFlagged) {
				t.Fatalf("Flagged == %v, want %v", got.Flagged, tc.wantFlagged)
			}
			for i := range got.Flagged {
				if got.Flagged[i] != tc.wantFlagged[i] {
					t.Errorf("Flagged == %v, want %v", got.Flagged, tc.wantFlagged)
					break
				}
			}
		})
	}
}

func TestAmplify(t *testing.T) {
	tcs := []struct {
		raw, want int
	}{
		{0, 0},
		{-3, 0},
		{1, 0},
		{4, 3},
		{5, 4},
		{14, 11},
		{437, 349},
		{1000, 800},
	}
	for _, tc := range tcs {
		if got := amplify(tc.raw); got != tc.want {
			t.Errorf("amplify(%d) == %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestAmplifyMatchesFactor(t *testing.T) {
	for raw := 0; raw <= 2000; raw++ {
		want := int(math.Floor(AmplificationFactor * float64(raw)))
		if got := amplify(raw); got != want {
			t.Fatalf("amplify(%d) == %d, want floor(%v * %d) = %d", raw, got, AmplificationFactor, raw, want)
		}
	}
}

func TestErrorRate(t *testing.T) {
	tcs := []struct {
		name  string
		alice string
		bob   string
		want  float64
	}{
		{"empty", "", "", 0},
		{"identical", "1100", "1100", 0},
		{"one of four", "1100", "1101", 0.25},
		{"all", "1010", "0101", 1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorRate(mustKey(t, tc.alice, tc.bob)); got != tc.want {
				t.Errorf("errorRate() == %v, want %v", got, tc.want)
			}
		})
	}
}
