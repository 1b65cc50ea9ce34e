// Package metrics records per-stage wall-clock timings for one analysis run.
package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StageTiming is one recorded pipeline stage.
type StageTiming struct {
	Duration  float64 `json:"duration"`  // seconds
	Timestamp string  `json:"timestamp"` // RFC 3339, stage start
}

// ProgressSink receives stage completions as they happen. Implementations must
// be safe for calls from the run goroutine.
type ProgressSink interface {
	StageCompleted(runID, stage string, timing StageTiming)
}

// Tracker accumulates stage timings under a run id.
type Tracker struct {
	mu     sync.Mutex
	runID  string
	stages map[string]StageTiming
	order  []string
	sink   ProgressSink
	now    func() time.Time
}

// NewTracker creates a tracker with a fresh run id. sink may be nil.
func NewTracker(sink ProgressSink) *Tracker {
	return &Tracker{
		runID:  uuid.NewString(),
		stages: make(map[string]StageTiming),
		sink:   sink,
		now:    time.Now,
	}
}

// RunID returns the identifier assigned to this run.
func (t *Tracker) RunID() string { return t.runID }

// Track times fn under the given stage name. The error is passed through;
// failed stages are still recorded.
func (t *Tracker) Track(stage string, fn func() error) error {
	start := t.now()
	err := fn()
	timing := StageTiming{
		Duration:  t.now().Sub(start).Seconds(),
		Timestamp: start.UTC().Format(time.RFC3339),
	}

	t.mu.Lock()
	if _, exists := t.stages[stage]; !exists {
		t.order = append(t.order, stage)
	}
	t.stages[stage] = timing
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink.StageCompleted(t.runID, stage, timing)
	}
	return err
}

// Snapshot returns the recorded stages and their order so far.
func (t *Tracker) Snapshot() (map[string]StageTiming, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stages := make(map[string]StageTiming, len(t.stages))
	for k, v := range t.stages {
		stages[k] = v
	}
	order := append([]string(nil), t.order...)
	return stages, order
}
