package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

// Loop runs queued jobs, one at a time, until told to stop.
func (d *Daemon) Loop(stop chan struct{}, wg *sync.WaitGroup, logger log.Logger) {
	defer wg.Done()

	for {
		select {
		case <-stop:
			logger.Log("stopping", "true")
			return
		case job := <-d.Jobs.Ready():
			queueLength.Set(float64(d.Jobs.Len()))
			jobLogger := log.With(logger, "jobID", job.ID, "kind", job.Kind)
			jobLogger.Log("state", "in-progress")
			start := time.Now()
			err := job.Do(jobLogger)
			jobDuration.With(
				fluxmetrics.LabelEventType, job.Kind,
				fluxmetrics.LabelSuccess, fmt.Sprint(err == nil),
			).Observe(time.Since(start).Seconds())
			if err != nil {
				jobLogger.Log("state", "done", "success", "false", "err", err)
			} else {
				jobLogger.Log("state", "done", "success", "true")
			}
		}
	}
}
