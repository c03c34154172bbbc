package bitmap

import (
	"testing"
)

func mustDense(t *testing.T, s string) Dense {
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func TestParity(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		want bool
	}{
		{"empty", NewDense(nil, 0), false},
		{"single one", mustDense(t, "0000001"), true},
		{"even block", mustDense(t, "1100110"), false},
		{"multibyte odd", mustDense(t, "10000000 11"), true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parity(tc.data); got != tc.want {
				t.Errorf("Parity(%s) == %v, want %v", Prefix(tc.data, 64), got, tc.want)
			}
		})
	}
}

func TestDifferences(t *testing.T) {
	a := mustDense(t, "10110010 101")
	b := mustDense(t, "10010011 100")
	n, err := Differences(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Differences() == %d, want 3", n)
	}
	if _, err := Differences(a, mustDense(t, "1")); err == nil {
		t.Errorf("Differences() of mismatched lengths returned nil error")
	}
	if n, _ := Differences(a, a); n != 0 {
		t.Errorf("Differences(a, a) == %d, want 0", n)
	}
}

func TestEqual(t *testing.T) {
	tcs := []struct {
		name string
		a, b Dense
		want bool
	}{
		{"both empty", NewDense(nil, 0), NewDense(nil, 0), true},
		{"same bits", mustDense(t, "10110010 101"), mustDense(t, "10110010 101"), true},
		{"one bit differs", mustDense(t, "10110010 101"), mustDense(t, "10110010 100"), false},
		{"different sizes", mustDense(t, "101"), mustDense(t, "1010"), false},
		{"prefix of other", mustDense(t, "1011"), mustDense(t, "10110"), false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%s, %s) == %v, want %v", Prefix(tc.a, 64), Prefix(tc.b, 64), got, tc.want)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	d := mustDense(t, "10110000 1")
	if got := Prefix(d, 4); got != "1011..." {
		t.Errorf("Prefix(d, 4) == %q, want %q", got, "1011...")
	}
	if got := Prefix(d, 20); got != "101100001" {
		t.Errorf("Prefix(d, 20) == %q, want %q", got, "101100001")
	}
}

func TestFromStringRejectsJunk(t *testing.T) {
	if _, err := FromString("10x1"); err == nil {
		t.Errorf("FromString(\"10x1\") returned nil error")
	}
}
