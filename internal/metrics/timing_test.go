package metrics

import (
	"errors"
	"testing"
	"time"
)

type recordingSink struct {
	events []string
}

func (s *recordingSink) StageCompleted(runID, stage string, timing StageTiming) {
	s.events = append(s.events, stage)
}

func TestTrackRecordsStages(t *testing.T) {
	tracker := NewTracker(nil)

	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	calls := 0
	tracker.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 2 * time.Second)
	}

	if err := tracker.Track("hop_expansion", func() error { return nil }); err != nil {
		t.Fatalf("Track returned error: %v", err)
	}

	stages, order := tracker.Snapshot()
	if len(order) != 1 || order[0] != "hop_expansion" {
		t.Fatalf("order = %v", order)
	}
	timing := stages["hop_expansion"]
	if timing.Duration != 2.0 {
		t.Errorf("duration = %v, want 2.0", timing.Duration)
	}
	if timing.Timestamp != "2026-08-24T12:00:00Z" {
		t.Errorf("timestamp = %q", timing.Timestamp)
	}
}

func TestTrackPassesErrorThrough(t *testing.T) {
	tracker := NewTracker(nil)
	wantErr := errors.New("stage failed")
	if err := tracker.Track("graph_construction", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Track error = %v, want %v", err, wantErr)
	}
	stages, _ := tracker.Snapshot()
	if _, ok := stages["graph_construction"]; !ok {
		t.Error("failed stage should still be recorded")
	}
}

func TestTrackNotifiesSink(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(sink)
	_ = tracker.Track("a", func() error { return nil })
	_ = tracker.Track("b", func() error { return nil })

	if len(sink.events) != 2 || sink.events[0] != "a" || sink.events[1] != "b" {
		t.Errorf("sink events = %v", sink.events)
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	a, b := NewTracker(nil), NewTracker(nil)
	if a.RunID() == b.RunID() {
		t.Error("two trackers share a run id")
	}
	if a.RunID() == "" {
		t.Error("empty run id")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker(nil)
	_ = tracker.Track("a", func() error { return nil })
	stages, order := tracker.Snapshot()
	stages["injected"] = StageTiming{}
	order[0] = "mutated"

	got, gotOrder := tracker.Snapshot()
	if _, ok := got["injected"]; ok {
		t.Error("snapshot map is not a copy")
	}
	if gotOrder[0] != "a" {
		t.Error("snapshot order is not a copy")
	}
}
