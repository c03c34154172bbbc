package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alan-christopher/qkdsim/classical"
	"github.com/alan-christopher/qkdsim/qkd"
)

// Section headers of the comparison log. Each table ends where the next
// "---" line begins.
const (
	HeaderClean        = "--- Performance Without Eavesdropping ---"
	HeaderEavesdropped = "--- Performance With Eavesdropping ---"
	HeaderClassical    = "--- Classical Key Exchange Baseline ---"
	Terminator         = "---"
)

// ClassicalScheme names the baseline in the comparison log.
const ClassicalScheme = "X25519+ML-KEM-1024"

// LogName returns the file name of p's narration log.
func LogName(p qkd.Protocol) string {
	return strings.ToLower(p.String()) + "_log.txt"
}

// Efficiency is the fraction of sent qubits that ended up as secure key bits,
// as a percentage.
func Efficiency(res qkd.Result, qubits int) float64 {
	if qubits <= 0 {
		return 0
	}
	return 100 * float64(res.FinalKeyLength) / float64(qubits)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func detection(b bool) string {
	if b {
		return "Detected"
	}
	return "Not Detected"
}

// WriteComparison renders the comparison tables.
func (c Comparison) WriteComparison(w io.Writer) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("=== QKD Protocol Comparison ===\n")
	printf("Qubits per run: %d\n", c.Qubits)
	printf("Channel loss rate: %.4f\n", c.LossRate)
	printf("Channel error rate: %.4f\n\n", c.ErrorRate)

	printf("%s\n", HeaderClean)
	printf("Protocol | Success | QBER | Raw Key | Final Key | Efficiency\n")
	for _, r := range c.Clean {
		res := r.Result
		printf("%v | %s | %.4f | %d | %d | %.2f%%\n",
			res.Protocol, yesNo(res.Accepted), res.ErrorRate, res.RawKeyLength, res.FinalKeyLength,
			Efficiency(res, c.Qubits))
	}

	printf("%s\n", HeaderEavesdropped)
	printf("Protocol | Success | QBER | Raw Key | Final Key | Detection\n")
	for _, r := range c.Eavesdropped {
		res := r.Result
		printf("%v | %s | %.4f | %d | %d | %s\n",
			res.Protocol, yesNo(res.Accepted), res.ErrorRate, res.RawKeyLength, res.FinalKeyLength,
			detection(res.Detected()))
	}

	printf("%s\n", HeaderClassical)
	printf("Scheme | Eavesdropping | Success | Key Bits | Handshake | Encryption | Detection\n")
	for _, res := range c.Classical {
		printf("%s | %s | %s | %d | %v | %v | %s\n",
			ClassicalScheme, eavesdropping(res), yesNo(res.Accepted), res.KeyBits,
			res.Handshake, res.Encryption, detection(res.Detected))
	}
	printf("%s\n", Terminator)
	return err
}

func eavesdropping(res classical.Result) string {
	if res.Eavesdropping {
		return "Active"
	}
	return "None"
}

// WriteLogs writes one narration log per protocol, clean run first, and the
// comparison log into dir.
func (c Comparison) WriteLogs(dir, comparisonName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for i := range c.Clean {
		p := c.Clean[i].Result.Protocol
		data := append(append([]byte(nil), c.Clean[i].Log...), c.Eavesdropped[i].Log...)
		if err := os.WriteFile(filepath.Join(dir, LogName(p)), data, 0o644); err != nil {
			return fmt.Errorf("writing %v log: %w", p, err)
		}
	}
	f, err := os.Create(filepath.Join(dir, comparisonName))
	if err != nil {
		return fmt.Errorf("creating comparison log: %w", err)
	}
	if err := c.WriteComparison(f); err != nil {
		f.Close()
		return fmt.Errorf("writing comparison log: %w", err)
	}
	return f.Close()
}

// WriteRecords streams every run's result as framed records, clean runs
// first.
func (c Comparison) WriteRecords(w io.Writer) error {
	rw := qkd.NewRecordWriter(w)
	for _, runs := range [][]Run{c.Clean, c.Eavesdropped} {
		for _, r := range runs {
			if err := rw.Write(r.Result); err != nil {
				return fmt.Errorf("writing record for run %s: %w", r.ID, err)
			}
		}
	}
	return nil
}
