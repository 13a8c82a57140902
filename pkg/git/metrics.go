package git

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

const LabelCommand = "command"

var (
	gitDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "sdm",
		Subsystem: "git",
		Name:      "command_duration_seconds",
		Help:      "Duration of git commands, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{LabelCommand, fluxmetrics.LabelSuccess})
)
