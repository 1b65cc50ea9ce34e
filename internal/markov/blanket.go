// Package markov computes the Markov blanket node set around the exposure and
// outcome concepts.
package markov

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/consolidate"
	"github.com/causalab/semdag-engine/internal/names"
)

// Store is the slice of the evidence store the blanket computation needs.
type Store interface {
	MarkovBlanket(ctx context.Context, target string, predicates []string, minPMIDs int, blocklist []string) ([]string, error)
}

// Computer unions per-target blankets into one consolidated node set.
type Computer struct {
	store Store
	cfg   config.Config
	log   *zap.Logger
}

func New(store Store, cfg config.Config, log *zap.Logger) *Computer {
	return &Computer{store: store, cfg: cfg, log: log}
}

// Union computes the blanket of every exposure and outcome CUI at the flat
// threshold and returns the union as consolidated node labels, always
// including the exposure and outcome labels themselves. A target sitting in
// another target's blanket is kept; only the degenerate self-spouse case is
// filtered, and that happens in the store query.
func (c *Computer) Union(ctx context.Context, mapper *consolidate.Mapper) (map[string]bool, error) {
	blanket := make(map[string]bool)
	for _, target := range c.cfg.TargetCUIs() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("markov blanket canceled before target %s: %w", target, err)
		}
		surfaceNames, err := c.store.MarkovBlanket(ctx, target, c.cfg.Predicates, c.cfg.Threshold, c.cfg.BlocklistCUIs)
		if err != nil {
			return nil, fmt.Errorf("markov blanket for %s: %w", target, err)
		}
		c.log.Info("markov blanket computed",
			zap.String("target_cui", target),
			zap.Int("members", len(surfaceNames)))
		for _, name := range surfaceNames {
			blanket[mapper.ConsolidatedName(name)] = true
		}
	}
	// The configured labels join unconditionally, even when no retained
	// assertion mentions a target CUI, so the blanket script always carries
	// the nodes its adjustmentSets call names.
	blanket[names.Clean(c.cfg.ExposureLabel)] = true
	blanket[names.Clean(c.cfg.OutcomeLabel)] = true
	return blanket, nil
}
