package markov

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/consolidate"
	"github.com/causalab/semdag-engine/pkg/models"
)

type fakeStore struct {
	byTarget map[string][]string
	err      error
	targets  []string
}

func (f *fakeStore) MarkovBlanket(ctx context.Context, target string, predicates []string, minPMIDs int, blocklist []string) ([]string, error) {
	f.targets = append(f.targets, target)
	if f.err != nil {
		return nil, f.err
	}
	return f.byTarget[target], nil
}

func testConfig() config.Config {
	return config.Config{
		Name:          "test",
		ExposureCUIs:  []string{"C0011570"},
		OutcomeCUIs:   []string{"C0002395"},
		ExposureLabel: "Depression",
		OutcomeLabel:  "Alzheimers_Disease",
		Predicates:    []string{"CAUSES"},
		Degree:        1,
		Threshold:     10,
	}
}

func testMapper() *consolidate.Mapper {
	assertions := []models.Assertion{
		{
			SubjectCUI: "C0011570", SubjectName: "Depression",
			ObjectCUI: "C0002395", ObjectName: "Alzheimer's Disease",
			Predicate: "CAUSES", EvidenceCount: 20, HopLevel: 1,
		},
	}
	return consolidate.NewMapper(assertions, testConfig(), nil, zap.NewNop())
}

func TestUnionAcrossTargets(t *testing.T) {
	store := &fakeStore{byTarget: map[string][]string{
		"C0011570": {"Chronic Stress", "Inflammation"},
		"C0002395": {"Inflammation", "Amyloid beta"},
	}}
	blanket, err := New(store, testConfig(), zap.NewNop()).Union(context.Background(), testMapper())
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}

	if len(store.targets) != 2 {
		t.Fatalf("queried targets = %v", store.targets)
	}
	for _, want := range []string{"Chronic_Stress", "Inflammation", "Amyloid_beta", "Depression", "Alzheimers_Disease"} {
		if !blanket[want] {
			t.Errorf("blanket missing %q: %v", want, blanket)
		}
	}
	if len(blanket) != 5 {
		t.Errorf("blanket size = %d, want 5", len(blanket))
	}
}

func TestUnionConsolidatesTargetSurfaceNames(t *testing.T) {
	// A blanket member that is a canonical name of a target folds to the
	// configured label instead of appearing twice.
	store := &fakeStore{byTarget: map[string][]string{
		"C0011570": {"Alzheimer's Disease"},
		"C0002395": {},
	}}
	blanket, err := New(store, testConfig(), zap.NewNop()).Union(context.Background(), testMapper())
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if !blanket["Alzheimers_Disease"] {
		t.Errorf("outcome label missing: %v", blanket)
	}
	if blanket["Alzheimer_s_Disease"] {
		t.Error("unconsolidated target name leaked into the blanket")
	}
}

func TestUnionStoreErrorIsFatal(t *testing.T) {
	store := &fakeStore{err: errors.New("query failed")}
	if _, err := New(store, testConfig(), zap.NewNop()).Union(context.Background(), testMapper()); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestUnionAlwaysContainsTargetLabels(t *testing.T) {
	// The mapper is built from assertions that never mention the target
	// CUIs, so its exposure/outcome node sets are empty. The configured
	// labels must join the blanket regardless.
	assertions := []models.Assertion{
		{
			SubjectCUI: "C100", SubjectName: "Inflammation",
			ObjectCUI: "C200", ObjectName: "Apoptosis",
			Predicate: "CAUSES", EvidenceCount: 20, HopLevel: 1,
		},
	}
	mapper := consolidate.NewMapper(assertions, testConfig(), nil, zap.NewNop())
	store := &fakeStore{byTarget: map[string][]string{}}

	blanket, err := New(store, testConfig(), zap.NewNop()).Union(context.Background(), mapper)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if !blanket["Depression"] || !blanket["Alzheimers_Disease"] {
		t.Errorf("target labels missing from empty blanket: %v", blanket)
	}
}
