package daemon

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

var (
	// Most handlers post a status or a message somewhere, so take
	// around a second.
	jobDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "sdm",
		Subsystem: "daemon",
		Name:      "job_duration_seconds",
		Help:      "Duration of event dispatch jobs, in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{fluxmetrics.LabelEventType, fluxmetrics.LabelSuccess})

	queueDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "sdm",
		Subsystem: "daemon",
		Name:      "queue_duration_seconds",
		Help:      "Duration of time spent in the job queue before execution, in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{})

	queueLength = prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: "sdm",
		Subsystem: "daemon",
		Name:      "queue_length_count",
		Help:      "Count of jobs waiting in the queue to be run.",
	}, []string{})

	goalsPlanned = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "sdm",
		Subsystem: "daemon",
		Name:      "goals_planned_total",
		Help:      "Count of goals planned for pushes, by goal and initial state.",
	}, []string{fluxmetrics.LabelGoal, fluxmetrics.LabelState})

	sideEffectCompletions = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "sdm",
		Subsystem: "daemon",
		Name:      "side_effect_completions_total",
		Help:      "Count of goals completed by side effects, by goal and state.",
	}, []string{fluxmetrics.LabelGoal, fluxmetrics.LabelState})
)
