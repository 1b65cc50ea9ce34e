// Package analysis orchestrates one full run: expansion, consolidation, graph
// construction, sentence retrieval, optional Markov blanket, and artifact
// emission.
package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/consolidate"
	"github.com/causalab/semdag-engine/internal/emit"
	"github.com/causalab/semdag-engine/internal/expand"
	"github.com/causalab/semdag-engine/internal/graph"
	"github.com/causalab/semdag-engine/internal/markov"
	"github.com/causalab/semdag-engine/internal/metrics"
	"github.com/causalab/semdag-engine/internal/names"
	"github.com/causalab/semdag-engine/pkg/models"
)

// EvidenceStore is everything the pipeline needs from the database layer.
// *db.Store satisfies it; tests use fakes.
type EvidenceStore interface {
	expand.Store
	markov.Store
	FetchSentences(ctx context.Context, refs []models.SentenceRef) (map[string][]string, error)
	FetchCanonicalNames(ctx context.Context, cuis []string) (map[string]string, error)
}

// Runner executes the pipeline for one configuration.
type Runner struct {
	store      EvidenceStore
	cfg        config.Config
	emitter    *emit.Emitter
	markovMode bool
	log        *zap.Logger
}

func New(store EvidenceStore, cfg config.Config, emitter *emit.Emitter, markovMode bool, log *zap.Logger) *Runner {
	return &Runner{store: store, cfg: cfg, emitter: emitter, markovMode: markovMode, log: log}
}

// Run executes every stage in order, timing each through the tracker.
// Database failures during expansion or the blanket computation are fatal;
// canonical-name and sentence fetch failures degrade the artifacts and log a
// warning. A failed pre-flight is not an error: the run ends with the
// no-evidence status record as its only artifact.
func (r *Runner) Run(ctx context.Context, tracker *metrics.Tracker) (models.Outcome, error) {
	if err := r.cfg.Validate(); err != nil {
		return models.Outcome{}, err
	}

	outcome := models.Outcome{
		RunID:         tracker.RunID(),
		Degree:        r.cfg.Degree,
		MarkovBlanket: r.markovMode,
	}
	r.log.Info("analysis starting",
		zap.String("run_id", outcome.RunID),
		zap.String("config", r.cfg.Name),
		zap.Int("degree", r.cfg.Degree),
		zap.Bool("markov_blanket", r.markovMode))

	var expansion expand.Result
	err := tracker.Track("hop_expansion", func() error {
		var err error
		expansion, err = expand.New(r.store, r.cfg, r.log).Run(ctx)
		return err
	})
	if err != nil {
		return models.Outcome{}, err
	}

	if !expansion.EvidenceFound {
		outcome.Status = models.StatusNoEvidence
		if _, err := r.emitter.WriteNoEvidenceRecord(outcome.RunID, r.cfg); err != nil {
			return models.Outcome{}, err
		}
		if err := r.writeMetrics(tracker); err != nil {
			return models.Outcome{}, err
		}
		return outcome, nil
	}
	outcome.AssertionCount = len(expansion.Assertions)

	var mapper *consolidate.Mapper
	err = tracker.Track("name_consolidation", func() error {
		canonical, err := r.store.FetchCanonicalNames(ctx, r.cfg.TargetCUIs())
		if err != nil {
			r.log.Warn("canonical name fetch failed, falling back to CUI-derived labels", zap.Error(err))
			canonical = nil
		}
		mapper = consolidate.NewMapper(expansion.Assertions, r.cfg, canonical, r.log)
		return nil
	})
	if err != nil {
		return models.Outcome{}, err
	}

	var g models.Graph
	err = tracker.Track("graph_construction", func() error {
		g = graph.Build(expansion.Assertions, mapper)
		return nil
	})
	if err != nil {
		return models.Outcome{}, err
	}
	outcome.NodeCount = len(g.Nodes)
	outcome.EdgeCount = len(g.Edges)
	r.log.Info("graph constructed",
		zap.Int("nodes", outcome.NodeCount),
		zap.Int("edges", outcome.EdgeCount),
		zap.Int("assertions", outcome.AssertionCount))

	var sentences map[string][]string
	err = tracker.Track("sentence_retrieval", func() error {
		refs := collectRefs(expansion.Assertions)
		fetched, err := r.store.FetchSentences(ctx, refs)
		if err != nil {
			r.log.Warn("sentence fetch failed, emitting dossier without sentence texts", zap.Error(err))
			fetched = map[string][]string{}
		}
		sentences = fetched
		return nil
	})
	if err != nil {
		return models.Outcome{}, err
	}

	var blanket map[string]bool
	if r.markovMode {
		err = tracker.Track("markov_blanket", func() error {
			var err error
			blanket, err = markov.New(r.store, r.cfg, r.log).Union(ctx, mapper)
			return err
		})
		if err != nil {
			return models.Outcome{}, err
		}
	}

	exposureLabel := names.Clean(r.cfg.ExposureLabel)
	outcomeLabel := names.Clean(r.cfg.OutcomeLabel)
	err = tracker.Track("artifact_emission", func() error {
		if _, err := r.emitter.WriteDAG(r.cfg.Degree, g, exposureLabel, outcomeLabel); err != nil {
			return err
		}
		if _, err := r.emitter.WriteDossier(r.cfg.Degree, expansion.Assertions, sentences); err != nil {
			return err
		}
		if r.markovMode {
			sub := graph.InducedSubgraph(g, blanket)
			if _, err := r.emitter.WriteMarkovBlanketDAG(sub, exposureLabel, outcomeLabel); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Outcome{}, err
	}

	if err := r.writeMetrics(tracker); err != nil {
		return models.Outcome{}, err
	}

	outcome.Status = models.StatusCompleted
	r.log.Info("analysis completed", zap.String("run_id", outcome.RunID))
	return outcome, nil
}

func (r *Runner) writeMetrics(tracker *metrics.Tracker) error {
	stages, order := tracker.Snapshot()
	if _, err := r.emitter.WriteMetrics(tracker.RunID(), stages, order); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func collectRefs(assertions []models.Assertion) []models.SentenceRef {
	seen := make(map[models.SentenceRef]bool)
	var refs []models.SentenceRef
	for _, a := range assertions {
		for _, ref := range a.SentenceRefs {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
