package emit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/metrics"
	"github.com/causalab/semdag-engine/pkg/models"
)

func testEmitter(t *testing.T) (*Emitter, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, zap.NewNop()), dir
}

func testGraph() models.Graph {
	g := models.NewGraph()
	for _, n := range []string{"Depression", "Inflammation", "Alzheimers_Disease"} {
		g.Nodes[n] = true
	}
	g.Edges[models.Edge{Src: "Depression", Dst: "Inflammation"}] = true
	g.Edges[models.Edge{Src: "Inflammation", Dst: "Alzheimers_Disease"}] = true
	g.Exposures["Depression"] = true
	g.Outcomes["Alzheimers_Disease"] = true
	return g
}

func TestWriteDAG(t *testing.T) {
	e, _ := testEmitter(t)
	path, err := e.WriteDAG(3, testGraph(), "Depression", "Alzheimers_Disease")
	if err != nil {
		t.Fatalf("WriteDAG failed: %v", err)
	}
	if filepath.Base(path) != "degree_3.R" {
		t.Errorf("artifact name = %s", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	script := string(raw)

	for _, want := range []string{
		"library(dagitty)",
		"g <- dagitty('dag {",
		" Depression [exposure]",
		" Alzheimers_Disease [outcome]",
		" Inflammation\n",
		" Depression -> Inflammation",
		" Inflammation -> Alzheimers_Disease",
		"adjustmentSets(g, exposure='Depression', outcome='Alzheimers_Disease')",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}

	// Deterministic output: writing again yields identical bytes.
	path2, err := e.WriteDAG(3, testGraph(), "Depression", "Alzheimers_Disease")
	if err != nil {
		t.Fatal(err)
	}
	raw2, _ := os.ReadFile(path2)
	if string(raw2) != script {
		t.Error("DAG script is not byte-stable across writes")
	}
}

func TestWriteMarkovBlanketDAG(t *testing.T) {
	e, _ := testEmitter(t)
	path, err := e.WriteMarkovBlanketDAG(testGraph(), "Depression", "Alzheimers_Disease")
	if err != nil {
		t.Fatalf("WriteMarkovBlanketDAG failed: %v", err)
	}
	if filepath.Base(path) != "MarkovBlanket_Union.R" {
		t.Errorf("artifact name = %s", filepath.Base(path))
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "g_mb <- dagitty('dag {") {
		t.Error("blanket script missing g_mb graph declaration")
	}
}

func dossierAssertion(pmids []string) models.Assertion {
	return models.Assertion{
		SubjectCUI: "C0011570", SubjectName: "Depression",
		ObjectCUI: "C0002395", ObjectName: "Alzheimer's Disease",
		Predicate: "CAUSES", EvidenceCount: len(pmids),
		PMIDs: pmids, HopLevel: 1,
	}
}

func TestWriteDossierStructure(t *testing.T) {
	e, _ := testEmitter(t)
	assertions := []models.Assertion{dossierAssertion([]string{"100", "200"})}
	sentences := map[string][]string{
		"100": {"Depression causes dementia.", "Depression causes dementia.", "Second sentence."},
	}

	path, err := e.WriteDossier(2, assertions, sentences)
	if err != nil {
		t.Fatalf("WriteDossier failed: %v", err)
	}
	if filepath.Base(path) != "causal_assertions_2.json" {
		t.Errorf("artifact name = %s", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		PMIDSentences map[string][]string `json:"pmid_sentences"`
		Assertions    []struct {
			Subj     string   `json:"subj"`
			SubjCUI  string   `json:"subj_cui"`
			Pred     string   `json:"predicate"`
			Obj      string   `json:"obj"`
			ObjCUI   string   `json:"obj_cui"`
			EvCount  int      `json:"ev_count"`
			PMIDRefs []string `json:"pmid_refs"`
		} `json:"assertions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("dossier is not valid JSON: %v\n%s", err, raw)
	}

	// Sentence deduplication per pmid.
	if got := doc.PMIDSentences["100"]; len(got) != 2 {
		t.Errorf("pmid 100 sentences = %v, want 2 deduplicated", got)
	}
	// Every referenced pmid has a key, empty when nothing was fetched.
	if got, ok := doc.PMIDSentences["200"]; !ok || len(got) != 0 {
		t.Errorf("pmid 200 entry = %v (present=%v), want empty array", got, ok)
	}

	if len(doc.Assertions) != 1 {
		t.Fatalf("assertions = %d", len(doc.Assertions))
	}
	a := doc.Assertions[0]
	if a.Subj != "Depression" || a.SubjCUI != "C0011570" || a.Pred != "CAUSES" ||
		a.Obj != "Alzheimer's Disease" || a.ObjCUI != "C0002395" || a.EvCount != 2 {
		t.Errorf("assertion record = %+v", a)
	}
	if len(a.PMIDRefs) != 2 {
		t.Errorf("pmid_refs = %v", a.PMIDRefs)
	}
}

func TestWriteDossierPMIDRefsSingleLine(t *testing.T) {
	e, _ := testEmitter(t)
	pmids := make([]string, 30)
	for i := range pmids {
		pmids[i] = fmt.Sprintf("9%04d", i)
	}
	path, err := e.WriteDossier(1, []models.Assertion{dossierAssertion(pmids)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)

	for _, line := range strings.Split(string(raw), "\n") {
		if strings.Contains(line, `"pmid_refs"`) {
			if !strings.HasSuffix(strings.TrimRight(line, " "), "]") {
				t.Errorf("pmid_refs not on a single line: %q", line)
			}
			return
		}
	}
	t.Fatal("pmid_refs line not found")
}

func TestWriteDossierLongSentenceArraysWrap(t *testing.T) {
	e, _ := testEmitter(t)
	many := make([]string, 12)
	for i := range many {
		many[i] = strings.Repeat("s", i+1)
	}
	few := []string{"one", "two"}

	path, err := e.WriteDossier(1, []models.Assertion{dossierAssertion([]string{"100", "200"})},
		map[string][]string{"100": many, "200": few})
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	text := string(raw)

	if !strings.Contains(text, `"100": [`+"\n") {
		t.Error("array over the threshold should wrap to one element per line")
	}
	if !strings.Contains(text, `"200": ["one", "two"]`) {
		t.Error("short array should stay on one line")
	}
}

func TestWriteMetrics(t *testing.T) {
	e, _ := testEmitter(t)
	stages := map[string]metrics.StageTiming{
		"hop_expansion":      {Duration: 1.5, Timestamp: "2026-08-24T12:00:00Z"},
		"graph_construction": {Duration: 0.25, Timestamp: "2026-08-24T12:00:02Z"},
	}
	order := []string{"hop_expansion", "graph_construction"}

	path, err := e.WriteMetrics("run-1", stages, order)
	if err != nil {
		t.Fatalf("WriteMetrics failed: %v", err)
	}
	raw, _ := os.ReadFile(path)

	var doc struct {
		RunID  string                         `json:"run_id"`
		Stages map[string]metrics.StageTiming `json:"stages"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("metrics not valid JSON: %v\n%s", err, raw)
	}
	if doc.RunID != "run-1" {
		t.Errorf("run_id = %q", doc.RunID)
	}
	if doc.Stages["hop_expansion"].Duration != 1.5 {
		t.Errorf("stages = %+v", doc.Stages)
	}

	// Recording order is preserved in the emitted text.
	text := string(raw)
	if strings.Index(text, "hop_expansion") > strings.Index(text, "graph_construction") {
		t.Error("stage order not preserved")
	}
}

func TestWriteNoEvidenceRecord(t *testing.T) {
	e, _ := testEmitter(t)
	cfg := config.Config{
		Name:          "test",
		ExposureCUIs:  []string{"C0011570"},
		OutcomeCUIs:   []string{"C0002395"},
		ExposureLabel: "Depression",
		OutcomeLabel:  "Alzheimers_Disease",
		Predicates:    []string{"CAUSES"},
		Degree:        3,
		Threshold:     50,
	}

	path, err := e.WriteNoEvidenceRecord("run-2", cfg)
	if err != nil {
		t.Fatalf("WriteNoEvidenceRecord failed: %v", err)
	}
	if filepath.Base(path) != "analysis_status.json" {
		t.Errorf("artifact name = %s", filepath.Base(path))
	}

	raw, _ := os.ReadFile(path)
	var doc struct {
		RunID        string   `json:"run_id"`
		Status       string   `json:"status"`
		Reason       string   `json:"reason"`
		ExposureCUIs []string `json:"exposure_cuis"`
		MinPMIDs     int      `json:"min_pmids"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("status record not valid JSON: %v\n%s", err, raw)
	}
	if doc.Status != models.StatusNoEvidence {
		t.Errorf("status = %q", doc.Status)
	}
	if doc.MinPMIDs != 50 || len(doc.ExposureCUIs) != 1 {
		t.Errorf("record = %+v", doc)
	}
	if !strings.Contains(doc.Reason, "50") {
		t.Errorf("reason should name the threshold: %q", doc.Reason)
	}
}
