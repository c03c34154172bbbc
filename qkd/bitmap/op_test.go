package bitmap

import (
	"bytes"
	"testing"
)

func TestXOr(t *testing.T) {
	tcs := []struct {
		name string
		a, b Dense
		eout Dense
	}{
		{
			name: "aligned",
			a:    mustDense(t, "10100000"),
			b:    mustDense(t, "01100000"),
			eout: mustDense(t, "11000000"),
		}, {
			name: "short a",
			a:    mustDense(t, "101"),
			b:    mustDense(t, "01111000"),
			eout: mustDense(t, "11011000"),
		}, {
			name: "short b",
			a:    mustDense(t, "01111000"),
			b:    mustDense(t, "101"),
			eout: mustDense(t, "11011000"),
		}, {
			name: "multibyte",
			a:    mustDense(t, "0111 1000 1011 1011"),
			b:    mustDense(t, "1010 1010 1100 0110"),
			eout: mustDense(t, "1101 0010 0111 1101"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := XOr(tc.a, tc.b)
			if out.Size() != tc.eout.Size() {
				t.Errorf("got bitmap of len %d, want %d", out.Size(), tc.eout.Size())
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("XOr(%08b, %08b) == %08b, want %08b", tc.a.Data(), tc.b.Data(), out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestSlice(t *testing.T) {
	tcs := []struct {
		name  string
		start int
		end   int
		bits  Dense
		eout  Dense
	}{
		{
			name:  "full slice",
			bits:  mustDense(t, "11101101"),
			start: 0,
			end:   8,
			eout:  mustDense(t, "11101101"),
		}, {
			name: "empty slice",
			bits: mustDense(t, "11101101"),
			eout: mustDense(t, ""),
		}, {
			name:  "aligned",
			bits:  mustDense(t, "10000010 11101101 01000001"),
			start: 8,
			end:   16,
			eout:  mustDense(t, "11101101"),
		}, {
			name:  "parity block",
			bits:  mustDense(t, "1000001 0111011 01"),
			start: 7,
			end:   14,
			eout:  mustDense(t, "0111011"),
		}, {
			name:  "unaligned end",
			bits:  mustDense(t, "11111111 00000000 1000 0000"),
			start: 8,
			end:   17,
			eout:  mustDense(t, "00000000 1"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Slice(tc.bits, tc.start, tc.end)
			if err != nil {
				t.Fatalf("slice(%d, %d) = %v, want nil error", tc.start, tc.end, err)
			}
			if out.Size() != tc.eout.Size() {
				t.Errorf("got bitmap of len %d, want %d", out.Size(), tc.eout.Size())
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("Data() == %v, want %v", out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestSliceErrors(t *testing.T) {
	d := mustDense(t, "1010")
	for _, r := range [][2]int{{-1, 2}, {3, 2}, {0, 5}} {
		if _, err := Slice(d, r[0], r[1]); err == nil {
			t.Errorf("Slice(d, %d, %d) returned nil error", r[0], r[1])
		}
	}
}
