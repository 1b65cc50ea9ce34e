package expand

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/pkg/models"
)

type fakeStore struct {
	evidence    bool
	evidenceErr error
	byHop       map[int][]models.Assertion
	hopErr      map[int]error
	queries     []models.HopQuery
}

func (f *fakeStore) ExistsEvidence(ctx context.Context, q models.HopQuery) (bool, error) {
	return f.evidence, f.evidenceErr
}

func (f *fakeStore) ExpandHop(ctx context.Context, q models.HopQuery) ([]models.Assertion, error) {
	f.queries = append(f.queries, q)
	if err := f.hopErr[q.Hop]; err != nil {
		return nil, err
	}
	return f.byHop[q.Hop], nil
}

func testConfig(degree int) config.Config {
	return config.Config{
		Name:          "test",
		ExposureCUIs:  []string{"C0011570"},
		OutcomeCUIs:   []string{"C0002395"},
		ExposureLabel: "Depression",
		OutcomeLabel:  "Alzheimers_Disease",
		Predicates:    []string{"CAUSES"},
		Degree:        degree,
		Threshold:     10,
	}
}

func assertion(subjCUI, objCUI string) models.Assertion {
	return models.Assertion{
		SubjectCUI: subjCUI, SubjectName: subjCUI + "_name",
		ObjectCUI: objCUI, ObjectName: objCUI + "_name",
		Predicate: "CAUSES", EvidenceCount: 20,
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	store := &fakeStore{evidence: false}
	result, err := New(store, testConfig(3), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.EvidenceFound {
		t.Error("EvidenceFound should be false")
	}
	if len(store.queries) != 0 {
		t.Errorf("no hop query should run after failed pre-flight, got %d", len(store.queries))
	}
}

func TestPreflightErrorIsFatal(t *testing.T) {
	store := &fakeStore{evidenceErr: errors.New("connection reset")}
	if _, err := New(store, testConfig(3), zap.NewNop()).Run(context.Background()); err == nil {
		t.Fatal("expected error from failed pre-flight query")
	}
}

func TestFrontierIsHopOneCUISet(t *testing.T) {
	store := &fakeStore{
		evidence: true,
		byHop: map[int][]models.Assertion{
			1: {assertion("C0011570", "C100"), assertion("C200", "C0002395")},
			2: {assertion("C100", "C300")},
			3: {assertion("C300", "C400")},
		},
	}
	result, err := New(store, testConfig(3), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantFrontier := []string{"C0011570", "C100", "C200", "C0002395"}
	if len(result.Frontier) != len(wantFrontier) {
		t.Fatalf("frontier = %v, want %v", result.Frontier, wantFrontier)
	}
	for i, cui := range wantFrontier {
		if result.Frontier[i] != cui {
			t.Errorf("frontier[%d] = %s, want %s", i, result.Frontier[i], cui)
		}
	}

	// Hops 2 and 3 must both be scoped by the hop-1 CUI set, not by each
	// other's discoveries.
	for _, q := range store.queries[1:] {
		if len(q.Frontier) != len(wantFrontier) {
			t.Errorf("hop %d frontier = %v, want hop-1 CUI set", q.Hop, q.Frontier)
		}
	}
	if store.queries[0].Frontier != nil {
		t.Error("hop 1 must not carry a frontier")
	}
}

func TestHopLevelAnnotation(t *testing.T) {
	store := &fakeStore{
		evidence: true,
		byHop: map[int][]models.Assertion{
			1: {assertion("C0011570", "C100")},
			2: {assertion("C100", "C300")},
		},
	}
	result, err := New(store, testConfig(2), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Assertions) != 2 {
		t.Fatalf("got %d assertions", len(result.Assertions))
	}
	if result.Assertions[0].HopLevel != 1 || result.Assertions[1].HopLevel != 2 {
		t.Errorf("hop levels = %d, %d", result.Assertions[0].HopLevel, result.Assertions[1].HopLevel)
	}
	if result.Assertions[0].SubjectCUI != "C0011570" || result.Assertions[1].SubjectCUI != "C100" {
		t.Errorf("assertions not in hop order: %+v", result.Assertions)
	}
}

func TestPerHopThresholds(t *testing.T) {
	cfg := testConfig(2)
	cfg.ThresholdsByDegree = map[int]int{1: 100, 2: 5}
	store := &fakeStore{
		evidence: true,
		byHop:    map[int][]models.Assertion{1: {assertion("C0011570", "C100")}},
	}
	if _, err := New(store, cfg, zap.NewNop()).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if store.queries[0].MinPMIDs != 100 {
		t.Errorf("hop 1 min_pmids = %d, want 100", store.queries[0].MinPMIDs)
	}
	if store.queries[1].MinPMIDs != 5 {
		t.Errorf("hop 2 min_pmids = %d, want 5", store.queries[1].MinPMIDs)
	}
}

func TestHopErrorCarriesHopContext(t *testing.T) {
	store := &fakeStore{
		evidence: true,
		byHop:    map[int][]models.Assertion{1: {assertion("C0011570", "C100")}},
		hopErr:   map[int]error{2: errors.New("timeout")},
	}
	_, err := New(store, testConfig(2), zap.NewNop()).Run(context.Background())
	if err == nil {
		t.Fatal("expected hop 2 failure to propagate")
	}
}

func TestEmptyHopOneStopsExpansion(t *testing.T) {
	// Pre-flight can pass while hop 1 returns nothing (thresholds differ
	// only in pathological configs, but the guard must hold).
	store := &fakeStore{evidence: true, byHop: map[int][]models.Assertion{}}
	result, err := New(store, testConfig(3), zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(store.queries) != 1 {
		t.Errorf("expansion should stop after empty hop 1, ran %d hops", len(store.queries))
	}
	if !result.EvidenceFound {
		t.Error("EvidenceFound should still be true after a passing pre-flight")
	}
}

func TestCancellationHonored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &fakeStore{evidence: true}
	if _, err := New(store, testConfig(2), zap.NewNop()).Run(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
