package worker

import (
	"daily-digest/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job names used as metric labels.
const (
	JobSweep = "cache_sweep"
	JobWarm  = "cache_warm"
)

// WorkerMetrics provides Prometheus metrics for the maintenance scheduler.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// per-job execution metrics.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Job metrics:
//   - worker_cron_job_runs_total: Job runs by job and status
//   - worker_cron_job_duration_seconds: Duration histogram by job
//   - worker_cache_entries_swept_total: Expired entries removed by sweeps
//   - worker_content_types_warmed_total: Warm-up results by status
//   - worker_cron_job_last_success_timestamp: Last successful run by job
//
// promauto registers on creation, so create one instance per process.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts job runs.
	// Labels: job (cache_sweep, cache_warm), status (started, success, failure)
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds measures job execution time.
	// Labels: job
	CronJobDurationSeconds *prometheus.HistogramVec

	// CacheEntriesSweptTotal counts entries removed by sweeps.
	CacheEntriesSweptTotal prometheus.Counter

	// ContentTypesWarmedTotal counts per-type warm-up results.
	// Labels: status (success, failure)
	ContentTypesWarmedTotal *prometheus.CounterVec

	// CronJobLastSuccessTimestamp records the Unix time of the last success.
	// Labels: job
	CronJobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics creates and registers the scheduler metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled job runs by job and status",
		}, []string{"job", "status"}),

		CronJobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of scheduled job execution in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 30, 60, 300}, // sweeps are sub-millisecond, warm-ups take seconds
		}, []string{"job"}),

		CacheEntriesSweptTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cache_entries_swept_total",
			Help: "Total number of expired cache entries removed by scheduled sweeps",
		}),

		ContentTypesWarmedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_content_types_warmed_total",
			Help: "Total number of content type warm-ups by status",
		}, []string{"status"}),

		CronJobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run by job",
		}, []string{"job"}),
	}
}

// RecordJobRun increments the run counter for job and status.
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.CronJobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes a job's execution time in seconds.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.CronJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordSwept adds the number of entries removed by a sweep.
func (m *WorkerMetrics) RecordSwept(count int) {
	if count > 0 {
		m.CacheEntriesSweptTotal.Add(float64(count))
	}
}

// RecordWarmed counts one content type warm-up result.
func (m *WorkerMetrics) RecordWarmed(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.ContentTypesWarmedTotal.WithLabelValues(status).Inc()
}

// RecordLastSuccess stamps the current time for job.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.CronJobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
