package api

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/analysis"
	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/emit"
	"github.com/causalab/semdag-engine/internal/metrics"
	"github.com/causalab/semdag-engine/pkg/models"
)

// Run status values as reported by the server. Completed and no_evidence
// mirror the pipeline outcome; running and failed are server-side states.
const (
	runStatusRunning = "running"
	runStatusFailed  = "failed"
)

// StageEvent is one completed pipeline stage, as pushed to clients.
type StageEvent struct {
	Stage     string  `json:"stage"`
	Duration  float64 `json:"duration"`
	Timestamp string  `json:"timestamp"`
}

// RunState is the server's view of one launched analysis.
type RunState struct {
	RunID      string          `json:"runId"`
	ConfigName string          `json:"configName"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	Stages     []StageEvent    `json:"stages"`
	Outcome    *models.Outcome `json:"outcome,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// RunManager launches analyses in the background and tracks their state. It
// doubles as the metrics.ProgressSink so stage completions reach both the
// state table and the websocket hub.
type RunManager struct {
	store     analysis.EvidenceStore
	hub       *Hub
	outputDir string
	log       *zap.Logger

	mu   sync.Mutex
	runs map[string]*RunState
}

func NewRunManager(store analysis.EvidenceStore, hub *Hub, outputDir string, log *zap.Logger) *RunManager {
	return &RunManager{
		store:     store,
		hub:       hub,
		outputDir: outputDir,
		log:       log,
		runs:      make(map[string]*RunState),
	}
}

// Launch starts one analysis in the background. Each run writes its artifacts
// into its own subdirectory of the output dir, keyed by run id, so concurrent
// runs never share files.
func (m *RunManager) Launch(cfg config.Config, markovMode bool) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	tracker := metrics.NewTracker(m)
	runID := tracker.RunID()
	runDir := filepath.Join(m.outputDir, runID)
	runner := analysis.New(m.store, cfg, emit.New(runDir, m.log), markovMode, m.log)

	state := &RunState{
		RunID:      runID,
		ConfigName: cfg.Name,
		Status:     runStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	m.mu.Lock()
	m.runs[runID] = state
	m.mu.Unlock()

	go func() {
		outcome, err := runner.Run(context.Background(), tracker)

		m.mu.Lock()
		if err != nil {
			state.Status = runStatusFailed
			state.Error = err.Error()
		} else {
			state.Status = outcome.Status
			state.Outcome = &outcome
		}
		m.mu.Unlock()

		if err != nil {
			m.log.Error("run failed", zap.String("run_id", runID), zap.Error(err))
		}
		m.broadcast(map[string]any{
			"type":   "run_finished",
			"run_id": runID,
			"status": state.Status,
		})
	}()

	return runID, nil
}

// StageCompleted implements metrics.ProgressSink.
func (m *RunManager) StageCompleted(runID, stage string, timing metrics.StageTiming) {
	event := StageEvent{Stage: stage, Duration: timing.Duration, Timestamp: timing.Timestamp}

	m.mu.Lock()
	if state, ok := m.runs[runID]; ok {
		state.Stages = append(state.Stages, event)
	}
	m.mu.Unlock()

	m.broadcast(map[string]any{
		"type":      "stage_completed",
		"run_id":    runID,
		"stage":     stage,
		"duration":  timing.Duration,
		"timestamp": timing.Timestamp,
	})
}

// Get returns a copy of one run's state.
func (m *RunManager) Get(runID string) (RunState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.runs[runID]
	if !ok {
		return RunState{}, false
	}
	return copyState(state), true
}

// List returns all runs, newest first.
func (m *RunManager) List() []RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunState, 0, len(m.runs))
	for _, state := range m.runs {
		out = append(out, copyState(state))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// RunDir returns the artifact directory for a run id.
func (m *RunManager) RunDir(runID string) string {
	return filepath.Join(m.outputDir, runID)
}

func copyState(state *RunState) RunState {
	c := *state
	c.Stages = append([]StageEvent(nil), state.Stages...)
	if state.Outcome != nil {
		outcome := *state.Outcome
		c.Outcome = &outcome
	}
	return c
}

func (m *RunManager) broadcast(payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.hub.Broadcast(data)
}
