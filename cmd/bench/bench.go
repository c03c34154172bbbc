// bench.go runs one protocol simulation for each entry in the cartesian
// product of a collection of run parameters, e.g. channel noise and qubits
// sent, and outputs a CSV of relevant statistics for each combination, e.g.
// sifted and final key length.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/template"

	"github.com/alan-christopher/qkdsim/qkd"
	flag "github.com/spf13/pflag"
)

var (
	protocols = flag.StringSlice("protocol", []string{"BB84", "B92", "E91"}, "The protocols to simulate.")
	qubits    = flag.IntSlice("qubits", []int{1000}, "The number of qubits (or entangled pairs) to send.")
	loss      = flag.Float64Slice("loss", []float64{0.1}, "The probability that a qubit is lost in the channel.")
	noise     = flag.Float64Slice("noise", []float64{0.05}, "The probability that channel noise flips a conclusive result.")
	eve       = flag.BoolSlice("eve", []bool{false, true}, "Whether an intercept-resend eavesdropper sits on the channel.")
	seed      = flag.Int64("seed", 42, "The seed of every run's random source.")
	records   = flag.String("records", "", "If set, also write framed result records to this file.")
)

var (
	inputs  = []string{"protocol", "qubits", "loss", "noise", "eve"}
	columns = []string{"Protocol", "Qubits", "LossRate", "ErrorRate", "Eavesdrop",
		"Lost", "Conclusive", "RawKeyBits", "QBER", "FinalKeyBits", "Accepted", "Detected",
		"Reason"}
)

// An Experiment packages together the result of simulating a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Protocol  qkd.Protocol
	Qubits    int
	LossRate  float64
	ErrorRate float64
	Eavesdrop bool

	// Fields corresponding to experiment results
	Lost         int
	Conclusive   int
	RawKeyBits   int
	QBER         float64
	FinalKeyBits int
	Accepted     bool
	Detected     bool
	Reason       string
}

func main() {
	flag.Parse()
	var rw *qkd.RecordWriter
	if *records != "" {
		f, err := os.Create(*records)
		if err != nil {
			log.Fatalf("Creating %s: %v", *records, err)
		}
		defer f.Close()
		rw = qkd.NewRecordWriter(f)
	}

	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		args = append(args, lookupInput(inp))
	}
	applyCartesian(func(args []interface{}) {
		p, err := qkd.ParseProtocol(args[inpIndex("protocol")].(string))
		if err != nil {
			log.Fatalf("%v", err)
		}
		exp := &Experiment{
			Protocol:  p,
			Qubits:    args[inpIndex("qubits")].(int),
			LossRate:  args[inpIndex("loss")].(float64),
			ErrorRate: args[inpIndex("noise")].(float64),
			Eavesdrop: args[inpIndex("eve")].(bool),
		}
		res, err := bench(exp)
		if err != nil {
			log.Printf("Benching %v: %v", exp, err)
			return
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatalf("BUG: could not fill in line template: %v", err)
		}
		if rw != nil {
			if err := rw.Write(res); err != nil {
				log.Fatalf("Writing record: %v", err)
			}
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment) (qkd.Result, error) {
	res, stats, err := qkd.Run(exp.Protocol, qkd.Opts{
		Eavesdrop: exp.Eavesdrop,
		ErrorRate: exp.ErrorRate,
		LossRate:  exp.LossRate,
		Qubits:    exp.Qubits,
		Rand:      qkd.Seeded(*seed),
	})
	if err != nil {
		return qkd.Result{}, err
	}
	exp.Lost = stats.Lost
	exp.Conclusive = stats.Conclusive
	exp.RawKeyBits = res.RawKeyLength
	exp.QBER = res.ErrorRate
	exp.FinalKeyBits = res.FinalKeyLength
	exp.Accepted = res.Accepted
	exp.Detected = res.Detected()
	exp.Reason = string(res.Reason)
	return res, nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(name string) []interface{} {
	var r []interface{}
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetBoolSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetStringSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		log.Fatalf("Unknown type for input %s", name)
	}
	return r
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
