package telemetry

import (
	"github.com/entrhq/uirunner/pkg/command"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uirunner"

// Metrics counts commands and records their timings.
type Metrics struct {
	Commands       *prometheus.CounterVec
	Failures       *prometheus.CounterVec
	InFlight       prometheus.Gauge
	ExecutionTime  *prometheus.HistogramVec
	TransitionTime *prometheus.HistogramVec
	ThinkTime      prometheus.Counter
}

// NewMetrics registers the command metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "total",
				Help:      "Total number of finished commands",
			},
			[]string{"command", "status"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "failures_total",
				Help:      "Total number of failed commands by failure kind",
			},
			[]string{"kind"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "in_flight",
				Help:      "Number of commands currently running",
			},
		),
		ExecutionTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "execution_seconds",
				Help:      "Command execution time in seconds, excluding think time",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"command"},
		),
		TransitionTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "transition_seconds",
				Help:      "Time spent waiting on the UI within a command, in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"command"},
		),
		ThinkTime: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "think_seconds_total",
				Help:      "Total simulated user think time in seconds",
			},
		),
	}
}

func (m *Metrics) CommandStarted(command.Command) {
	m.InFlight.Inc()
}

func (m *Metrics) CommandFinished(cmd command.Command) {
	m.InFlight.Dec()
	m.Commands.WithLabelValues(cmd.Name, cmd.Status.String()).Inc()
	if cmd.Failure != nil {
		m.Failures.WithLabelValues(cmd.Failure.Kind).Inc()
	}
	m.ExecutionTime.WithLabelValues(cmd.Name).Observe(cmd.ExecutionTime.Seconds())
	m.TransitionTime.WithLabelValues(cmd.Name).Observe(cmd.TransitionTime.Seconds())
	m.ThinkTime.Add(cmd.ThinkTime.Seconds())
}

var _ command.Observer = (*Metrics)(nil)
