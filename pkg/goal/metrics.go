package goal

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

const (
	LabelRule    = fluxmetrics.LabelRule
	LabelOutcome = fluxmetrics.LabelOutcome
)

var (
	ruleEvaluations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "sdm",
		Subsystem: "goal",
		Name:      "push_rule_evaluations_total",
		Help:      "Count of push rule evaluations, by rule and outcome.",
	}, []string{fluxmetrics.LabelRule, fluxmetrics.LabelOutcome})
)
