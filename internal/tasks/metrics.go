package tasks

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespaceConstant    = "chores"
	taskLabelConstant           = "task"
	stepLabelConstant           = "step"
	stepIndexLabelConstant      = "step_index"
	outcomeLabelConstant        = "outcome"
	statusLabelConstant         = "status"
	taskStatusSucceededConstant = "succeeded"
	taskStatusFailedConstant    = "failed"
)

// Metrics records task and step outcomes in a dedicated Prometheus registry.
// It satisfies Recorder.
type Metrics struct {
	registry           *prometheus.Registry
	stepRuns           *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec
	taskRuns           *prometheus.CounterVec
	taskDuration       *prometheus.GaugeVec
	taskLastSuccess    *prometheus.GaugeVec
	taskLastFailedStep *prometheus.GaugeVec
	now                func() time.Time
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		stepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "step_runs_total",
			Help:      "Finished task steps by outcome.",
		}, []string{taskLabelConstant, stepLabelConstant, stepIndexLabelConstant, outcomeLabelConstant}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of task steps.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{taskLabelConstant, stepLabelConstant}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "task_runs_total",
			Help:      "Finished task invocations by status.",
		}, []string{taskLabelConstant, statusLabelConstant}),
		taskDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "task_last_duration_seconds",
			Help:      "Duration of the most recent invocation of each task.",
		}, []string{taskLabelConstant}),
		taskLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "task_last_success_timestamp_seconds",
			Help:      "Unix time of the most recent successful invocation of each task.",
		}, []string{taskLabelConstant}),
		taskLastFailedStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      "task_last_failed_step",
			Help:      "Zero-based index of the failing step in the most recent invocation, -1 when it succeeded.",
		}, []string{taskLabelConstant}),
		now: time.Now,
	}

	metrics.registry.MustRegister(
		metrics.stepRuns,
		metrics.stepDuration,
		metrics.taskRuns,
		metrics.taskDuration,
		metrics.taskLastSuccess,
		metrics.taskLastFailedStep,
	)
	return metrics
}

// StepFinished implements Recorder.
func (metrics *Metrics) StepFinished(taskName string, stepIndex int, step Step, outcome StepOutcome, duration time.Duration) {
	metrics.stepRuns.WithLabelValues(taskName, step.Name, strconv.Itoa(stepIndex), string(outcome)).Inc()
	if outcome == StepOutcomeDryRun {
		return
	}
	metrics.stepDuration.WithLabelValues(taskName, step.Name).Observe(duration.Seconds())
}

// TaskFinished implements Recorder.
func (metrics *Metrics) TaskFinished(result TaskResult) {
	status := taskStatusFailedConstant
	if result.Succeeded {
		status = taskStatusSucceededConstant
		metrics.taskLastSuccess.WithLabelValues(result.TaskName).Set(float64(metrics.now().Unix()))
	}
	metrics.taskRuns.WithLabelValues(result.TaskName, status).Inc()
	metrics.taskDuration.WithLabelValues(result.TaskName).Set(result.Duration.Seconds())
	metrics.taskLastFailedStep.WithLabelValues(result.TaskName).Set(float64(result.FailedStep))
}

// Gatherer exposes the underlying registry.
func (metrics *Metrics) Gatherer() prometheus.Gatherer {
	return metrics.registry
}

// WriteTextfile writes the metrics in the node_exporter textfile-collector format.
func (metrics *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, metrics.registry)
}
