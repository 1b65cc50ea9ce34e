// Package emit serializes the run artifacts: the DAGitty R scripts, the
// evidence dossier, the performance metrics, and the no-evidence status
// record.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/metrics"
	"github.com/causalab/semdag-engine/pkg/models"
)

// Emitter writes all artifacts of one run into a single output directory.
type Emitter struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Emitter {
	return &Emitter{dir: dir, log: log}
}

func (e *Emitter) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	e.log.Info("artifact written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// WriteDAG emits degree_{k}.R: a DAGitty script that rebuilds the consolidated
// graph, annotates exposure and outcome nodes, and prints adjustment sets.
func (e *Emitter) WriteDAG(degree int, g models.Graph, exposureLabel, outcomeLabel string) (string, error) {
	script := dagittyScript(g, exposureLabel, outcomeLabel, "g", "gg", "coords", "adjSets", "Adjustment Set")
	return e.write(fmt.Sprintf("degree_%d.R", degree), []byte(script))
}

// WriteMarkovBlanketDAG emits MarkovBlanket_Union.R for the subgraph induced
// on the blanket node set.
func (e *Emitter) WriteMarkovBlanketDAG(g models.Graph, exposureLabel, outcomeLabel string) (string, error) {
	script := dagittyScript(g, exposureLabel, outcomeLabel, "g_mb", "gg_mb", "coords_mb", "adjSets_mb", "Union Markov Blanket Adjustment Set")
	return e.write("MarkovBlanket_Union.R", []byte(script))
}

func dagittyScript(g models.Graph, exposureLabel, outcomeLabel, gVar, ggVar, coordsVar, adjVar, setTitle string) string {
	var b strings.Builder
	b.WriteString("library(dagitty)\n")
	b.WriteString("library(SEMgraph)\n")
	b.WriteString(gVar + " <- dagitty('dag {\n")

	annotated := make(map[string]bool)
	for _, n := range sortedSet(g.Exposures) {
		fmt.Fprintf(&b, " %s [exposure]\n", n)
		annotated[n] = true
	}
	for _, n := range sortedSet(g.Outcomes) {
		if annotated[n] {
			continue
		}
		fmt.Fprintf(&b, " %s [outcome]\n", n)
		annotated[n] = true
	}
	for _, n := range g.SortedNodes() {
		if !annotated[n] {
			fmt.Fprintf(&b, " %s\n", n)
		}
	}
	for _, edge := range g.SortedEdges() {
		fmt.Fprintf(&b, " %s -> %s\n", edge.Src, edge.Dst)
	}
	b.WriteString("}')\n\n")

	fmt.Fprintf(&b, "%s <- dagitty2graph(%s)\n", ggVar, gVar)
	fmt.Fprintf(&b, "%s <- layout_nicely(%s, dim = 2)\n", coordsVar, ggVar)
	fmt.Fprintf(&b, "plot(%s, layout = %s)\n", ggVar, coordsVar)
	fmt.Fprintf(&b, "%s <- adjustmentSets(%s, exposure='%s', outcome='%s')\n", adjVar, gVar, exposureLabel, outcomeLabel)
	fmt.Fprintf(&b, "print(%s)\n", adjVar)
	fmt.Fprintf(&b, "for(i in seq_along(%s)) {\n", adjVar)
	fmt.Fprintf(&b, "  cat('%s', i, ':\\n')\n", setTitle)
	fmt.Fprintf(&b, "  print(%s[[i]])\n", adjVar)
	fmt.Fprintf(&b, "  V(%s)$color <- ifelse(V(%s)$name %%in%% %s[[i]], 'red', 'black')\n", ggVar, ggVar, adjVar)
	fmt.Fprintf(&b, "  plot(%s, layout=%s, vertex.color=V(%s)$color, main=paste('%s', i))\n", ggVar, coordsVar, ggVar, setTitle)
	b.WriteString("}\n")
	return b.String()
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WriteMetrics emits performance_metrics.json with the per-stage timings in
// recording order.
func (e *Emitter) WriteMetrics(runID string, stages map[string]metrics.StageTiming, order []string) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("run_id"), jsonString(runID))
	b.WriteString("  \"stages\": {\n")
	for i, stage := range order {
		t := stages[stage]
		fmt.Fprintf(&b, "    %s: {\"duration\": %s, \"timestamp\": %s}", jsonString(stage), formatSeconds(t.Duration), jsonString(t.Timestamp))
		if i < len(order)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }\n}\n")
	return e.write("performance_metrics.json", []byte(b.String()))
}

// WriteNoEvidenceRecord emits analysis_status.json explaining a run that ended
// before any artifact could be produced.
func (e *Emitter) WriteNoEvidenceRecord(runID string, cfg config.Config) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("run_id"), jsonString(runID))
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("status"), jsonString(models.StatusNoEvidence))
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("reason"),
		jsonString(fmt.Sprintf("no triple involving the exposure or outcome concepts meets the %d distinct-pmid threshold under predicates %s",
			cfg.HopThreshold(1), strings.Join(cfg.Predicates, ", "))))
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("exposure_cuis"), inlineStringArray(cfg.ExposureCUIs))
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("outcome_cuis"), inlineStringArray(cfg.OutcomeCUIs))
	fmt.Fprintf(&b, "  %s: %s,\n", jsonString("predicates"), inlineStringArray(cfg.Predicates))
	fmt.Fprintf(&b, "  %s: %d,\n", jsonString("min_pmids"), cfg.HopThreshold(1))
	fmt.Fprintf(&b, "  %s: %s\n", jsonString("timestamp"), jsonString(time.Now().UTC().Format(time.RFC3339)))
	b.WriteString("}\n")
	return e.write("analysis_status.json", []byte(b.String()))
}
