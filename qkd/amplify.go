package qkd

// Privacy amplification keeps AmplificationNumerator/AmplificationDenominator
// of the sifted key.
const (
	AmplificationNumerator   = 4
	AmplificationDenominator = 5

	// AmplificationFactor is the surviving fraction as a float.
	AmplificationFactor = float64(AmplificationNumerator) / AmplificationDenominator
)

// amplify returns floor(AmplificationFactor * raw), computed in integers so
// the floor is exact.
func amplify(raw int) int {
	if raw <= 0 {
		return 0
	}
	return raw * AmplificationNumerator / AmplificationDenominator
}
