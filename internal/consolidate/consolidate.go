// Package consolidate elects one display label per concept so that the many
// surface names of a CUI collapse to a single graph node, and the exposure and
// outcome concepts collapse to their configured labels.
package consolidate

import (
	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
	"github.com/causalab/semdag-engine/internal/names"
	"github.com/causalab/semdag-engine/pkg/models"
)

// Mapper resolves surface names to consolidated node labels.
type Mapper struct {
	display       map[string]string
	exposureNodes map[string]bool
	outcomeNodes  map[string]bool
}

// NewMapper builds the mapper from the retained assertions, the configured
// target labels, and the canonical names fetched from the store. The canonical
// map may be incomplete (or nil, after a failed fetch); targets missing from
// both the assertions and the canonical map fall back to a CUI-derived name.
func NewMapper(assertions []models.Assertion, cfg config.Config, canonical map[string]string, log *zap.Logger) *Mapper {
	counts := make(map[string]map[string]int)
	bump := func(cui, name string) {
		if counts[cui] == nil {
			counts[cui] = make(map[string]int)
		}
		counts[cui][name]++
	}
	for _, a := range assertions {
		bump(a.SubjectCUI, a.SubjectName)
		bump(a.ObjectCUI, a.ObjectName)
	}

	elected := make(map[string]string, len(counts))
	for cui, byName := range counts {
		elected[cui] = electName(byName)
	}

	m := &Mapper{
		display:       make(map[string]string),
		exposureNodes: make(map[string]bool),
		outcomeNodes:  make(map[string]bool),
	}
	m.foldTargets(cfg.ExposureCUIs, cfg.ExposureLabel, "Exposure_", elected, canonical, m.exposureNodes)
	m.foldTargets(cfg.OutcomeCUIs, cfg.OutcomeLabel, "Outcome_", elected, canonical, m.outcomeNodes)

	log.Debug("consolidation mapper built",
		zap.Int("cuis", len(elected)),
		zap.Int("folded_names", len(m.display)))
	return m
}

// foldTargets maps every known surface name of the target CUIs onto the
// cleaned configured label.
func (m *Mapper) foldTargets(cuis []string, label, fallbackPrefix string, elected, canonical map[string]string, nodeSet map[string]bool) {
	display := names.Clean(label)
	for _, cui := range cuis {
		var candidates []string
		if name, ok := elected[cui]; ok {
			candidates = append(candidates, name)
			nodeSet[display] = true
		}
		if name, ok := canonical[cui]; ok {
			candidates = append(candidates, name)
		}
		if len(candidates) == 0 {
			candidates = append(candidates, fallbackPrefix+cui)
		}
		for _, name := range candidates {
			m.display[names.Clean(name)] = display
		}
	}
}

// electName picks the most frequent surface name; ties break to the
// lexicographically smallest cleaned form, then the smallest raw form.
func electName(byName map[string]int) string {
	var best string
	bestCount := -1
	for name, count := range byName {
		if count > bestCount {
			best, bestCount = name, count
			continue
		}
		if count < bestCount {
			continue
		}
		bc, cc := names.Clean(best), names.Clean(name)
		if cc < bc || (cc == bc && name < best) {
			best = name
		}
	}
	return best
}

// ConsolidatedName cleans the surface name and applies the target folding.
func (m *Mapper) ConsolidatedName(surface string) string {
	cleaned := names.Clean(surface)
	if display, ok := m.display[cleaned]; ok {
		return display
	}
	return cleaned
}

// ExposureNodeSet returns the consolidated exposure labels whose CUIs appear
// in the assertion set.
func (m *Mapper) ExposureNodeSet() map[string]bool { return m.exposureNodes }

// OutcomeNodeSet returns the consolidated outcome labels whose CUIs appear in
// the assertion set.
func (m *Mapper) OutcomeNodeSet() map[string]bool { return m.outcomeNodes }
