package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	units         *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	signals       *prometheus.CounterVec
	signalsClosed *prometheus.CounterVec
	closedPnL     *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// New creates a Prometheus recorder registered on the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		units: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_stage_units_total",
				Help: "Pipeline units processed by stage and outcome",
			},
			[]string{"stage", "result"},
		),
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_stage_duration_seconds",
				Help:    "Wall time of a pipeline stage across all units",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_emitted_total",
				Help: "Signals created by type and strategy",
			},
			[]string{"signal_type", "strategy"},
		),
		signalsClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_closed_total",
				Help: "Signals closed by a reversal",
			},
			[]string{"signal_type"},
		),
		closedPnL: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_closed_pnl_pct",
				Help:    "Realized P&L percent of closed signals",
				Buckets: []float64{-20, -10, -5, -2, 0, 2, 5, 10, 20},
			},
			[]string{"signal_type"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordUnit counts one unit outcome (success, skipped, failed).
func (r *Recorder) RecordUnit(stage, result string) {
	r.units.WithLabelValues(stage, result).Inc()
}

func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordSignal(signalType, strategy string) {
	r.signals.WithLabelValues(signalType, strategy).Inc()
}

func (r *Recorder) RecordSignalClosed(signalType string, pnlPct float64) {
	r.signalsClosed.WithLabelValues(signalType).Inc()
	r.closedPnL.WithLabelValues(signalType).Observe(pnlPct)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
