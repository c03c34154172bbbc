// Package telemetry records Prometheus metrics and OpenTelemetry spans for
// simulation runs.
package telemetry

import (
	"fmt"
	"strconv"

	"github.com/alan-christopher/qkdsim/classical"
	"github.com/alan-christopher/qkdsim/qkd"
	"github.com/alan-christopher/qkdsim/relay"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "qkdsim"

// Metrics holds the collectors updated after each run.
type Metrics struct {
	Runs          *prometheus.CounterVec
	ErrorRate     *prometheus.HistogramVec
	FinalKeyBits  *prometheus.CounterVec
	ClassicalRuns *prometheus.CounterVec
	RelayWeak     prometheus.Counter
	RelayKeyRate  prometheus.Gauge
}

// NewMetrics builds the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Protocol runs by protocol, eavesdropping and outcome.",
		}, []string{"protocol", "eavesdropping", "outcome"}),
		ErrorRate: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "qber",
			Help:      "Estimated quantum bit error rate per run.",
			Buckets:   prometheus.LinearBuckets(0, 0.05, 11),
		}, []string{"protocol", "eavesdropping"}),
		FinalKeyBits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "final_key_bits_total",
			Help:      "Secure key bits produced after privacy amplification.",
		}, []string{"protocol"}),
		ClassicalRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "classical_exchanges_total",
			Help:      "Classical baseline exchanges by eavesdropping.",
		}, []string{"eavesdropping"}),
		RelayWeak: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "relay_weak_links_total",
			Help:      "Relay links whose attenuation fell below the weak-signal threshold.",
		}),
		RelayKeyRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "relay_key_rate_bits",
			Help:      "End-to-end key rate of the last evaluated relay chain, in bit/s.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Runs, m.ErrorRate, m.FinalKeyBits, m.ClassicalRuns, m.RelayWeak, m.RelayKeyRate} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

// Outcome labels a run result.
func Outcome(res qkd.Result) string {
	switch {
	case res.Accepted:
		return "accepted"
	case res.Detected():
		return "detected"
	default:
		return "aborted"
	}
}

// ObserveRun records a protocol run. It is safe to call on a nil *Metrics.
func (m *Metrics) ObserveRun(res qkd.Result) {
	if m == nil {
		return
	}
	eve := strconv.FormatBool(res.Eavesdropping)
	p := res.Protocol.String()
	m.Runs.WithLabelValues(p, eve, Outcome(res)).Inc()
	if res.RawKeyLength > 0 && res.Protocol != qkd.E91 {
		m.ErrorRate.WithLabelValues(p, eve).Observe(res.ErrorRate)
	}
	m.FinalKeyBits.WithLabelValues(p).Add(float64(res.FinalKeyLength))
}

// ObserveClassical records a classical baseline exchange.
func (m *Metrics) ObserveClassical(res classical.Result) {
	if m == nil {
		return
	}
	m.ClassicalRuns.WithLabelValues(strconv.FormatBool(res.Eavesdropping)).Inc()
}

// ObserveRelay records an evaluated relay chain.
func (m *Metrics) ObserveRelay(c relay.Chain) {
	if m == nil {
		return
	}
	for _, l := range c.Links {
		if l.Weak {
			m.RelayWeak.Inc()
		}
	}
	m.RelayKeyRate.Set(c.KeyRate)
}
