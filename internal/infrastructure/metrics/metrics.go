package metrics

import (
	"context"
	"fmt"

	"healthsync-aggregator/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// RunMetrics collects the outcome of one aggregation run. Each run owns its
// registry so the pushed snapshot only describes that run.
type RunMetrics struct {
	registry *prometheus.Registry

	jobRows     *prometheus.GaugeVec
	jobSuccess  *prometheus.GaugeVec
	jobDuration *prometheus.GaugeVec
	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		jobRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthsync_aggregator_job_rows",
			Help: "Rows written to the warehouse by the last run, per job",
		}, []string{"job", "table"}),
		jobSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthsync_aggregator_job_success",
			Help: "1 if the job completed in the last run, 0 otherwise",
		}, []string{"job", "table", "status"}),
		jobDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthsync_aggregator_job_duration_seconds",
			Help: "Duration of the aggregate and load steps of a job",
		}, []string{"job", "table"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "healthsync_aggregator_run_duration_seconds",
			Help: "Duration of the last aggregation run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "healthsync_aggregator_last_complete_run_timestamp_seconds",
			Help: "Unix time of the last run in which every job completed",
		}),
	}
}

// Registry exposes the collectors of this run
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) ObserveJob(report entity.JobReport) {
	m.jobRows.WithLabelValues(report.Job, report.Table).Set(float64(report.Rows))
	m.jobDuration.WithLabelValues(report.Job, report.Table).Set(report.Duration.Seconds())

	success := 0.0
	if report.Succeeded() {
		success = 1
	}
	m.jobSuccess.WithLabelValues(report.Job, report.Table, string(report.Status)).Set(success)
}

func (m *RunMetrics) ObserveRun(report *entity.RunReport) {
	m.runDuration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	if report.Complete() {
		m.lastSuccess.Set(float64(report.FinishedAt.Unix()))
	}
}

// Push sends the run's metrics to a Prometheus Pushgateway
func (m *RunMetrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
