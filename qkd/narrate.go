package qkd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/alan-christopher/qkdsim/qkd/photon"
)

// DumpPrefix bounds the number of symbols printed for each per-qubit dump.
const DumpPrefix = 32

// Labels read back by the log analysers. Their wording and relative order are
// load-bearing.
const (
	LabelEavesdropping = "Eavesdropping: "
	LabelRawKey        = "Sifted raw key length: "
	LabelQBER          = "Quantum Bit Error Rate (QBER): "
	LabelFinalKey      = "Final secure key length (after privacy amplification): "
	LabelSucceeded     = "Protocol SUCCEEDED"
	LabelAborted       = "Protocol ABORTED"
)

// A transcript is the data of a run that its narration is rendered from.
type transcript struct {
	protocol     Protocol
	participants Participants
	eavesdrop    bool
	qubits       int
	lossRate     float64
	errorRate    float64
	threshold    float64

	sent         []photon.Qubit
	eveBases     []photon.Basis
	bobBases     []photon.Basis
	pairs        []photon.Pair
	aliceResults []photon.Measurement
	bob          []photon.Measurement

	lost       int
	conclusive int
	sifted     int
	siftedKey  string
	qber       float64
	bell       *bellOutcome
	correction Correction
	result     Result
}

// errWriter remembers the first write error so rendering can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (t *transcript) render(w io.Writer) error {
	ew := &errWriter{w: w}
	p := t.participants
	ew.printf("=== %v Protocol Simulation ===\n", t.protocol)
	if t.eavesdrop {
		ew.printf("Participants: %s -> %s (eavesdropper: %s)\n", p.Alice, p.Bob, p.Eve)
		ew.printf("%sActive\n", LabelEavesdropping)
	} else {
		ew.printf("Participants: %s -> %s\n", p.Alice, p.Bob)
		ew.printf("%sNone\n", LabelEavesdropping)
	}
	ew.printf("Qubits sent: %d\n", t.qubits)
	ew.printf("Channel loss rate: %.4f\n", t.lossRate)
	ew.printf("Channel error rate: %.4f\n", t.errorRate)

	if t.protocol == E91 {
		t.renderPairs(ew)
	} else {
		t.renderQubits(ew)
	}

	ew.printf("Qubits lost in channel: %d\n", t.lost)
	switch t.protocol {
	case B92:
		ew.printf("Conclusive measurements: %d\n", t.conclusive)
	case E91:
		ew.printf("Bell test pairs: %d\n", t.bell.pairs)
	}
	ew.printf("%s%d bits\n", LabelRawKey, t.sifted)
	ew.printf("%s sifted key (first %d): %s\n", t.participants.Alice, DumpPrefix, t.siftedKey)
	ew.printf("%s%.4f\n", LabelQBER, t.qber)
	if t.bell != nil {
		if t.bell.violated {
			ew.printf("Bell inequality test: violated (entanglement preserved)\n")
		} else {
			ew.printf("Bell inequality test: satisfied (entanglement disturbed)\n")
		}
	} else if !math.IsNaN(t.threshold) {
		ew.printf("QBER threshold: %.4f\n", t.threshold)
	}

	res := t.result
	if res.Accepted {
		c := t.correction
		if c.Skipped {
			ew.printf("Error correction: skipped (fewer than %d sifted bits)\n", MinCorrectionLength)
		} else {
			ew.printf("Error correction: %d parity blocks of %d bits, %d flagged\n",
				c.Blocks, ParityBlockSize, len(c.Flagged))
		}
		ew.printf("Privacy amplification: %d -> %d bits\n", res.RawKeyLength, res.FinalKeyLength)
	}
	ew.printf("%s%d bits\n", LabelFinalKey, res.FinalKeyLength)
	if res.Accepted {
		ew.printf("%s\n", LabelSucceeded)
	} else {
		ew.printf("%s: %s\n", LabelAborted, res.Reason)
	}
	ew.printf("\n")
	return ew.err
}

func (t *transcript) renderQubits(ew *errWriter) {
	var bits, bases strings.Builder
	for _, q := range head(len(t.sent)) {
		bits.WriteString(fmt.Sprint(t.sent[q].Bit))
		bases.WriteString(t.sent[q].Basis.String())
	}
	ew.printf("%s bits (first %d): %s%s\n", t.participants.Alice, DumpPrefix, bits.String(), ellipsis(len(t.sent)))
	ew.printf("%s bases (first %d): %s%s\n", t.participants.Alice, DumpPrefix, bases.String(), ellipsis(len(t.sent)))
	if t.eveBases != nil {
		ew.printf("%s bases (first %d): %s%s\n", t.participants.Eve, DumpPrefix, basisString(t.eveBases), ellipsis(len(t.eveBases)))
	}
	ew.printf("%s bases (first %d): %s%s\n", t.participants.Bob, DumpPrefix, basisString(t.bobBases), ellipsis(len(t.bobBases)))
	ew.printf("%s results (first %d): %s%s\n", t.participants.Bob, DumpPrefix, outcomeString(t.bob), ellipsis(len(t.bob)))
}

func (t *transcript) renderPairs(ew *errWriter) {
	var a, b strings.Builder
	for _, i := range head(len(t.pairs)) {
		a.WriteString(fmt.Sprint(t.pairs[i].AliceAngle + 1))
		b.WriteString(fmt.Sprint(t.pairs[i].BobAngle + 1))
	}
	ew.printf("%s analyser settings (first %d): %s%s\n", t.participants.Alice, DumpPrefix, a.String(), ellipsis(len(t.pairs)))
	ew.printf("%s analyser settings (first %d): %s%s\n", t.participants.Bob, DumpPrefix, b.String(), ellipsis(len(t.pairs)))
	ew.printf("%s results (first %d): %s%s\n", t.participants.Alice, DumpPrefix, outcomeString(t.aliceResults), ellipsis(len(t.aliceResults)))
	ew.printf("%s results (first %d): %s%s\n", t.participants.Bob, DumpPrefix, outcomeString(t.bob), ellipsis(len(t.bob)))
}

func head(n int) []int {
	if n > DumpPrefix {
		n = DumpPrefix
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func ellipsis(n int) string {
	if n > DumpPrefix {
		return "..."
	}
	return ""
}

func basisString(bs []photon.Basis) string {
	var sb strings.Builder
	for _, i := range head(len(bs)) {
		sb.WriteString(bs[i].String())
	}
	return sb.String()
}

func outcomeString(ms []photon.Measurement) string {
	var sb strings.Builder
	for _, i := range head(len(ms)) {
		sb.WriteString(ms[i].Value.String())
	}
	return sb.String()
}
