package tasks

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunnerCounts summarizes a runner's work at the moment of a heartbeat.
type RunnerCounts struct {
	// Running is the number of executions this worker currently holds.
	Running int

	// Capacity is this worker's configured MaxConcurrency.
	Capacity int

	// RecentlyFinished is how many executions this worker completed since
	// the previous pulse.
	RecentlyFinished int
}

// Heartbeat publishes periodic runner pulses as Prometheus gauges and
// lifecycle events, the way a supervised worker pool reports liveness to
// whatever is watching it.
type Heartbeat struct {
	logger *slog.Logger

	running  *prometheus.GaugeVec
	capacity *prometheus.GaugeVec
	finished *prometheus.GaugeVec
	status   *prometheus.GaugeVec
}

// NewHeartbeat builds a Heartbeat registered against reg. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewHeartbeat(reg prometheus.Registerer, logger *slog.Logger) *Heartbeat {
	if logger == nil {
		logger = slog.Default().With("component", "task-scheduler")
	}
	factory := promauto.With(reg)
	return &Heartbeat{
		logger: logger,
		running: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restflow_task_runner_executions_running",
			Help: "Executions currently held by this task runner worker.",
		}, []string{"worker_id"}),
		capacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restflow_task_runner_capacity",
			Help: "Configured maximum concurrent executions for this worker.",
		}, []string{"worker_id"}),
		finished: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restflow_task_runner_executions_finished",
			Help: "Executions this worker finished since the previous heartbeat.",
		}, []string{"worker_id"}),
		status: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restflow_task_runner_status",
			Help: "1 if the worker is running, 0 once stopped.",
		}, []string{"worker_id"}),
	}
}

// Pulse records one heartbeat for workerID.
func (h *Heartbeat) Pulse(workerID string, counts RunnerCounts) {
	if h == nil {
		return
	}
	h.running.WithLabelValues(workerID).Set(float64(counts.Running))
	h.capacity.WithLabelValues(workerID).Set(float64(counts.Capacity))
	h.finished.WithLabelValues(workerID).Set(float64(counts.RecentlyFinished))
	h.status.WithLabelValues(workerID).Set(1)

	h.logger.Debug("runner heartbeat",
		"worker_id", workerID,
		"running", counts.Running,
		"capacity", counts.Capacity,
		"recently_finished", counts.RecentlyFinished,
	)
}

// RunnerStopped records the worker's lifecycle transition to stopped.
func (h *Heartbeat) RunnerStopped(workerID string) {
	if h == nil {
		return
	}
	h.status.WithLabelValues(workerID).Set(0)
	h.logger.Info("runner stopped", "worker_id", workerID)
}
