// qkdsim compares quantum key distribution protocols against a classical key
// exchange, with and without an eavesdropper.
//
// Usage:
//
//	qkdsim compare [flags]
//	qkdsim relay [flags]
//	qkdsim trials [flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alan-christopher/qkdsim/internal/config"
	"github.com/alan-christopher/qkdsim/internal/telemetry"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var commands = map[string]func(ctx context.Context, args []string) error{
	"compare": runCompare,
	"relay":   runRelay,
	"trials":  runTrials,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd(ctx, os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "qkdsim %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: qkdsim <compare|relay|trials> [flags]\n")
}

// common holds the flags shared by every sub-command.
type common struct {
	configPath string
	logFormat  string
	qubits     int
	loss       float64
	noise      float64
	seed       int64
	out        string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML scenario file. Flags override its values.")
	fs.StringVar(&c.logFormat, "log-format", "none", "Operational log format: none, console or json.")
	fs.IntVar(&c.qubits, "qubits", 0, "Qubits (or entangled pairs) per run.")
	fs.Float64Var(&c.loss, "loss", 0, "Probability that a qubit is lost in the channel.")
	fs.Float64Var(&c.noise, "noise", 0, "Probability that channel noise flips a conclusive result.")
	fs.Int64Var(&c.seed, "seed", 0, "Root seed for every run.")
	fs.StringVar(&c.out, "out", "", "Directory for the generated logs.")
}

// load reads the scenario and applies any flags that were set explicitly.
func (c *common) load(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if fs.Changed("qubits") {
		cfg.Qubits = c.qubits
	}
	if fs.Changed("loss") {
		cfg.LossRate = c.loss
	}
	if fs.Changed("noise") {
		cfg.ErrorRate = c.noise
	}
	if fs.Changed("seed") {
		cfg.Seed = c.seed
	}
	if fs.Changed("out") {
		cfg.Output.Dir = c.out
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (c *common) logger() (*zap.Logger, error) {
	switch c.logFormat {
	case "none":
		return zap.NewNop(), nil
	case "console":
		return zap.NewDevelopment()
	case "json":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown log format %q", c.logFormat)
	}
}

func newMetrics() (*telemetry.Metrics, error) {
	// Collectors are created unregistered; nothing scrapes a one-shot run.
	m, err := telemetry.NewMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	return m, nil
}
