// Package expand grows the evidence set hop by hop around the exposure and
// outcome concepts.
package expand

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/pkg/models"
)

// Store is the slice of the evidence store the expander needs.
type Store interface {
	ExistsEvidence(ctx context.Context, q models.HopQuery) (bool, error)
	ExpandHop(ctx context.Context, q models.HopQuery) ([]models.Assertion, error)
}

// Result carries everything one full expansion produced.
type Result struct {
	// Assertions holds every admitted assertion across all hops, annotated
	// with the hop that admitted it. A triple admitted at two hops appears
	// twice.
	Assertions []models.Assertion
	// Frontier is the hop-1 CUI set. It scopes every hop from 2 onward:
	// later hops widen the evidence around the same neighborhood rather
	// than walking further out.
	Frontier []string
	// EvidenceFound is false when the pre-flight check failed and no hops
	// were run.
	EvidenceFound bool
}

// Expander runs the pre-flight check and the bounded hop loop.
type Expander struct {
	store Store
	cfg   config.Config
	log   *zap.Logger
}

func New(store Store, cfg config.Config, log *zap.Logger) *Expander {
	return &Expander{store: store, cfg: cfg, log: log}
}

// Run performs the pre-flight check, then expands hop 1 through cfg.Degree.
// A failed pre-flight returns EvidenceFound=false with no error; any store
// failure aborts the whole expansion.
func (e *Expander) Run(ctx context.Context) (Result, error) {
	preflight := models.HopQuery{
		Hop:          1,
		ExposureCUIs: e.cfg.ExposureCUIs,
		OutcomeCUIs:  e.cfg.OutcomeCUIs,
		Predicates:   e.cfg.Predicates,
		MinPMIDs:     e.cfg.HopThreshold(1),
		Blocklist:    e.cfg.BlocklistCUIs,
	}
	found, err := e.store.ExistsEvidence(ctx, preflight)
	if err != nil {
		return Result{}, fmt.Errorf("pre-flight check: %w", err)
	}
	if !found {
		e.log.Warn("no qualifying evidence for target concepts",
			zap.Strings("exposure_cuis", e.cfg.ExposureCUIs),
			zap.Strings("outcome_cuis", e.cfg.OutcomeCUIs),
			zap.Int("min_pmids", e.cfg.HopThreshold(1)))
		return Result{EvidenceFound: false}, nil
	}

	var result Result
	result.EvidenceFound = true
	for hop := 1; hop <= e.cfg.Degree; hop++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("expansion canceled before hop %d: %w", hop, err)
		}

		q := models.HopQuery{
			Hop:        hop,
			Predicates: e.cfg.Predicates,
			MinPMIDs:   e.cfg.HopThreshold(hop),
			Blocklist:  e.cfg.BlocklistCUIs,
		}
		if hop == 1 {
			q.ExposureCUIs = e.cfg.ExposureCUIs
			q.OutcomeCUIs = e.cfg.OutcomeCUIs
		} else {
			q.Frontier = result.Frontier
		}

		assertions, err := e.store.ExpandHop(ctx, q)
		if err != nil {
			return Result{}, fmt.Errorf("hop %d: %w", hop, err)
		}
		for i := range assertions {
			assertions[i].HopLevel = hop
		}
		e.log.Info("hop expanded",
			zap.Int("hop", hop),
			zap.Int("assertions", len(assertions)),
			zap.Int("min_pmids", q.MinPMIDs))

		result.Assertions = append(result.Assertions, assertions...)
		if hop == 1 {
			result.Frontier = frontierCUIs(assertions)
			if len(result.Frontier) == 0 {
				break
			}
		}
	}
	return result, nil
}

// frontierCUIs collects the distinct subject and object CUIs of the hop-1
// assertions in first-seen order.
func frontierCUIs(assertions []models.Assertion) []string {
	seen := make(map[string]bool, len(assertions)*2)
	var frontier []string
	for _, a := range assertions {
		for _, cui := range []string{a.SubjectCUI, a.ObjectCUI} {
			if !seen[cui] {
				seen[cui] = true
				frontier = append(frontier, cui)
			}
		}
	}
	return frontier
}
