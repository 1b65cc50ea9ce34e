package models

import "sort"

// SortedNodes returns the node labels in lexicographic order.
func (g Graph) SortedNodes() []string {
	nodes := make([]string, 0, len(g.Nodes))
	for n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// SortedEdges returns the edges ordered by source then destination label.
func (g Graph) SortedEdges() []Edge {
	edges := make([]Edge, 0, len(g.Edges))
	for e := range g.Edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src != edges[j].Src {
			return edges[i].Src < edges[j].Src
		}
		return edges[i].Dst < edges[j].Dst
	})
	return edges
}
