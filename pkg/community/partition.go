package community

import (
	"sort"

	"github.com/assemblage/backend/pkg/graph"
)

// Partition maps node IDs to community labels.
type Partition map[string]int

// Groups returns the members of every community with member IDs sorted.
func (p Partition) Groups() map[int][]string {
	groups := make(map[int][]string)
	for n, c := range p {
		groups[c] = append(groups[c], n)
	}
	for _, members := range groups {
		sort.Strings(members)
	}
	return groups
}

// Len returns the number of distinct communities.
func (p Partition) Len() int {
	seen := make(map[int]struct{}, len(p))
	for _, c := range p {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// Modularity computes Q = Σ_c [ in_c / 2m − (tot_c / 2m)² ] where in_c is
// the weight of edges inside c counted from both endpoints and tot_c the
// summed degree of its members. Graphs without edge weight score 0.
// Nodes missing from p are treated as singletons.
func Modularity(g *graph.Graph, p Partition) float64 {
	twoM := 2 * g.TotalWeight()
	if twoM == 0 {
		return 0
	}

	in := make(map[int]float64)
	tot := make(map[int]float64)
	singles := 0.0
	for _, n := range g.Nodes() {
		c, ok := p[n]
		k := g.Degree(n)
		if !ok {
			// Singleton: only a self-loop can be internal.
			loop := g.Weight(n, n)
			singles += loop/twoM - (k/twoM)*(k/twoM)
			continue
		}
		tot[c] += k
		for neighbor, w := range g.Neighbors(n) {
			if nc, ok := p[neighbor]; ok && nc == c {
				in[c] += w
			}
		}
	}

	q := singles
	for c, t := range tot {
		q += in[c]/twoM - (t/twoM)*(t/twoM)
	}
	return q
}
