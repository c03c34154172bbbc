package relay

import (
	"fmt"
	"io"
)

// Labels read back by the log analysers.
const (
	LabelEndToEndAttenuation = "End-to-end attenuation: "
	LabelEndToEndKeyRate     = "End-to-end key rate: "
	LabelWeak                = "WARNING: signal too weak"
)

func render(w io.Writer, c Chain) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("=== Multi-Hop Relay Simulation ===\n")
	printf("Hops: %d\n", len(c.Links))
	for i, l := range c.Links {
		printf("Link %d (%s -> %s): delay %.4f ms, distance %.2f km, attenuation %.6g, key rate %.2f bit/s\n",
			i+1, l.From, l.To, l.DelayMs, l.DistanceKm, l.Attenuation, l.KeyRate)
		if l.Weak {
			printf("%s on link %d (%s -> %s): attenuation %.3e below %.0e\n",
				LabelWeak, i+1, l.From, l.To, l.Attenuation, WeakThreshold)
		}
	}
	printf("%s%.6g\n", LabelEndToEndAttenuation, c.Attenuation)
	printf("%s%.2f bit/s\n", LabelEndToEndKeyRate, c.KeyRate)
	printf("\n")
	return err
}
