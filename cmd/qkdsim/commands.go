package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alan-christopher/qkdsim/internal/config"
	"github.com/alan-christopher/qkdsim/internal/telemetry"
	"github.com/alan-christopher/qkdsim/qkd"
	"github.com/alan-christopher/qkdsim/relay"
	"github.com/alan-christopher/qkdsim/session"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func newSession(cfg config.Config, log *zap.Logger) (*session.Session, error) {
	ps, err := cfg.ProtocolList()
	if err != nil {
		return nil, err
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return session.New(session.Opts{
		Protocols:    ps,
		Participants: cfg.QKDParticipants(),
		Qubits:       cfg.Qubits,
		LossRate:     cfg.LossRate,
		ErrorRate:    cfg.ErrorRate,
		Seed:         cfg.Seed,
		LinkDelay:    cfg.LinkDelay(),
		PayloadBytes: cfg.Classical.PayloadBytes,
		Logger:       log,
		Metrics:      m,
		Tracer:       telemetry.NewTracer(nil),
	})
}

func runCompare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	var c common
	c.register(fs)
	recordsPath := fs.String("records", "", "If set, also write framed result records to this file.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("records") {
		cfg.Output.Records = *recordsPath
	}
	log, err := c.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	cmp, err := s.Compare(ctx)
	if err != nil {
		return err
	}
	if err := cmp.WriteLogs(cfg.Output.Dir, cfg.Output.ComparisonLog); err != nil {
		return err
	}
	if cfg.Output.Records != "" {
		f, err := os.Create(cfg.Output.Records)
		if err != nil {
			return fmt.Errorf("creating records file: %w", err)
		}
		if err := cmp.WriteRecords(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	log.Info("comparison written", zap.String("dir", cfg.Output.Dir))
	return cmp.WriteComparison(os.Stdout)
}

func runRelay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	var c common
	c.register(fs)
	sourceRate := fs.Float64("source-rate", 0, "Unattenuated key rate in bit/s.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("source-rate") {
		cfg.Relay.SourceRate = *sourceRate
	}
	log, err := c.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	_, end := telemetry.NewTracer(nil).Start(ctx, "relay.evaluate")
	chain, err := relay.Evaluate(cfg.Relay.Hops, relay.Opts{
		SourceRate:  cfg.Relay.SourceRate,
		LossDBPerKm: &cfg.Relay.LossDBPerKm,
		Log:         os.Stdout,
		Logger:      log,
	})
	end(err)
	if err != nil {
		return err
	}
	m, err := newMetrics()
	if err != nil {
		return err
	}
	m.ObserveRelay(chain)
	return nil
}

func runTrials(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trials", flag.ContinueOnError)
	var c common
	c.register(fs)
	proto := fs.String("protocol", "BB84", "Protocol to repeat.")
	eve := fs.Bool("eve", false, "Place an eavesdropper on the channel.")
	k := fs.Int("trials", 0, "Number of repetitions.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	if fs.Changed("trials") {
		cfg.Trials = *k
	}
	p, err := qkd.ParseProtocol(*proto)
	if err != nil {
		return err
	}
	log, err := c.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	ts, err := s.Trials(ctx, p, *eve, cfg.Trials)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(cfg.Output.Dir, strings.ToLower(p.String())+"_trials.txt"))
	if err != nil {
		return err
	}
	if err := session.WriteTrials(f, ts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return session.WriteTrials(os.Stdout, ts)
}
