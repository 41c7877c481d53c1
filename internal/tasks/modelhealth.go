package tasks

import (
	"sync"
	"time"
)

// ModelHealthStatus classifies how usable a model currently looks.
type ModelHealthStatus string

const (
	ModelHealthy     ModelHealthStatus = "healthy"
	ModelDegraded    ModelHealthStatus = "degraded"
	ModelUnavailable ModelHealthStatus = "unavailable"
)

// modelHealthRecord tracks one model's status and when that status expires.
type modelHealthRecord struct {
	status  ModelHealthStatus
	expires time.Time
}

// ModelHealthTracker records per-model health with a TTL, so a model marked
// Unavailable after exhausting its retry budget is automatically eligible
// again once the TTL lapses rather than staying blacklisted forever. An
// Executor implementation consults this to pick the next model in a task's
// configured ordered list when the preferred one looks unhealthy.
type ModelHealthTracker struct {
	mu      sync.Mutex
	records map[string]modelHealthRecord

	degradedTTL    time.Duration
	unavailableTTL time.Duration
}

// NewModelHealthTracker builds a tracker. degradedTTL and unavailableTTL
// default to 1 minute and 5 minutes respectively.
func NewModelHealthTracker(degradedTTL, unavailableTTL time.Duration) *ModelHealthTracker {
	if degradedTTL <= 0 {
		degradedTTL = time.Minute
	}
	if unavailableTTL <= 0 {
		unavailableTTL = 5 * time.Minute
	}
	return &ModelHealthTracker{
		records:        make(map[string]modelHealthRecord),
		degradedTTL:    degradedTTL,
		unavailableTTL: unavailableTTL,
	}
}

// Status returns model's current health, treating an expired or unrecorded
// entry as Healthy.
func (t *ModelHealthTracker) Status(model string) ModelHealthStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[model]
	if !ok || time.Now().After(rec.expires) {
		return ModelHealthy
	}
	return rec.status
}

// MarkDegraded flags model as degraded for the tracker's degradedTTL, e.g.
// after a single transient failure that hasn't yet exhausted retries.
func (t *ModelHealthTracker) MarkDegraded(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[model] = modelHealthRecord{status: ModelDegraded, expires: time.Now().Add(t.degradedTTL)}
}

// MarkUnavailable flags model as unavailable for the tracker's
// unavailableTTL, e.g. after its retry budget is exhausted.
func (t *ModelHealthTracker) MarkUnavailable(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[model] = modelHealthRecord{status: ModelUnavailable, expires: time.Now().Add(t.unavailableTTL)}
}

// MarkHealthy clears any recorded degradation for model, e.g. after a
// successful call.
func (t *ModelHealthTracker) MarkHealthy(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, model)
}

// NextAvailable walks preferred in order and returns the first model that
// isn't Unavailable, falling back to the last entry if every model in the
// list is currently unavailable (better to try the least-bad option than
// to refuse the task outright).
func (t *ModelHealthTracker) NextAvailable(preferred []string) string {
	if len(preferred) == 0 {
		return ""
	}
	for _, model := range preferred {
		if t.Status(model) != ModelUnavailable {
			return model
		}
	}
	return preferred[len(preferred)-1]
}
