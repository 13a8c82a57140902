package github

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

var (
	requestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "sdm",
		Subsystem: "github",
		Name:      "request_duration_seconds",
		Help:      "Duration of GitHub API operations, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{fluxmetrics.LabelOperation, fluxmetrics.LabelSuccess})
)
