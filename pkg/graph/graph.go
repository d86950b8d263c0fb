package graph

import (
	"sort"
)

// Graph is a weighted undirected graph over actor IDs. Adding weight between
// two nodes always updates both directions, so the adjacency is symmetric.
//
// A Graph is built for one clustering request and is not safe for
// concurrent mutation.
type Graph struct {
	nodes []string
	adj   map[string]map[string]float64
}

// WeightedPair is one undirected edge with A < B.
type WeightedPair struct {
	A      string
	B      string
	Weight float64
}

// NewGraph creates a graph containing the given nodes and no edges.
func NewGraph(ids ...string) *Graph {
	g := &Graph{
		nodes: make([]string, 0, len(ids)),
		adj:   make(map[string]map[string]float64, len(ids)),
	}
	for _, id := range ids {
		g.AddNode(id)
	}
	return g
}

// AddNode inserts id if it is not already present.
func (g *Graph) AddNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.nodes = append(g.nodes, id)
	g.adj[id] = make(map[string]float64)
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// AddWeight accumulates w on the edge between a and b in both directions.
// Both nodes must exist; non-positive weights are ignored.
func (g *Graph) AddWeight(a, b string, w float64) {
	if w <= 0 || !g.HasNode(a) || !g.HasNode(b) {
		return
	}
	g.adj[a][b] += w
	if a != b {
		g.adj[b][a] += w
	}
}

// Weight returns the accumulated weight between a and b.
func (g *Graph) Weight(a, b string) float64 {
	return g.adj[a][b]
}

// Neighbors returns the adjacency row of id. The map is owned by the graph
// and must not be modified.
func (g *Graph) Neighbors(id string) map[string]float64 {
	return g.adj[id]
}

// Nodes returns node IDs in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Degree returns the weighted degree of id, the sum of its incident weights.
func (g *Graph) Degree(id string) float64 {
	var k float64
	for _, w := range g.adj[id] {
		k += w
	}
	return k
}

// TotalWeight returns m, half the sum of all weighted degrees.
func (g *Graph) TotalWeight() float64 {
	var sum float64
	for _, id := range g.nodes {
		sum += g.Degree(id)
	}
	return sum / 2
}

// Edges lists every undirected edge once, ordered by (A, B).
func (g *Graph) Edges() []WeightedPair {
	var out []WeightedPair
	for _, a := range g.nodes {
		for b, w := range g.adj[a] {
			if a <= b {
				out = append(out, WeightedPair{A: a, B: b, Weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, a := range g.nodes {
		for b := range g.adj[a] {
			if a <= b {
				n++
			}
		}
	}
	return n
}
