// Package graph assembles the consolidated causal graph from the retained
// assertions.
package graph

import (
	"github.com/causalab/semdag-engine/internal/consolidate"
	"github.com/causalab/semdag-engine/pkg/models"
)

// Build folds the assertion list through the consolidation mapper into a
// deduplicated, self-loop-free directed graph. The consolidated exposure and
// outcome labels are always present as nodes, even when no surviving edge
// touches them. Contradictory edge pairs (A->B and B->A) are both kept.
func Build(assertions []models.Assertion, mapper *consolidate.Mapper) models.Graph {
	g := models.NewGraph()
	for _, a := range assertions {
		u := mapper.ConsolidatedName(a.SubjectName)
		v := mapper.ConsolidatedName(a.ObjectName)
		if u == v {
			continue
		}
		g.Nodes[u] = true
		g.Nodes[v] = true
		g.Edges[models.Edge{Src: u, Dst: v}] = true
	}
	for label := range mapper.ExposureNodeSet() {
		g.Nodes[label] = true
		g.Exposures[label] = true
	}
	for label := range mapper.OutcomeNodeSet() {
		g.Nodes[label] = true
		g.Outcomes[label] = true
	}
	return g
}

// InducedSubgraph restricts g to the given node set: only edges with both
// endpoints in keep survive, and exposure/outcome tags carry over for kept
// nodes.
func InducedSubgraph(g models.Graph, keep map[string]bool) models.Graph {
	sub := models.NewGraph()
	for n := range g.Nodes {
		if keep[n] {
			sub.Nodes[n] = true
		}
	}
	for e := range g.Edges {
		if keep[e.Src] && keep[e.Dst] {
			sub.Edges[e] = true
		}
	}
	for n := range g.Exposures {
		if sub.Nodes[n] {
			sub.Exposures[n] = true
		}
	}
	for n := range g.Outcomes {
		if sub.Nodes[n] {
			sub.Outcomes[n] = true
		}
	}
	return sub
}
