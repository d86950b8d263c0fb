package community

import (
	"sort"

	"github.com/assemblage/backend/pkg/graph"
)

const unassigned = -1

// assignment holds the node→community mapping together with each
// community's total incident weight (tot). Every node move goes through
// remove followed by insert:
//
//   - remove(n): n is assigned; afterwards n is unassigned and tot of its
//     old community no longer includes k_n.
//   - insert(n, c): n is unassigned; afterwards n belongs to c and tot[c]
//     includes k_n.
//
// Between the two calls the node's own weight is excluded from every tot,
// which is the state gains are evaluated in.
type assignment struct {
	g         *graph.Graph
	community map[string]int
	degree    map[string]float64
	tot       map[int]float64
	twoM      float64
}

// newAssignment puts every node into its own singleton community, labelled
// by its position in the graph's node order.
func newAssignment(g *graph.Graph) *assignment {
	nodes := g.Nodes()
	a := &assignment{
		g:         g,
		community: make(map[string]int, len(nodes)),
		degree:    make(map[string]float64, len(nodes)),
		tot:       make(map[int]float64, len(nodes)),
		twoM:      2 * g.TotalWeight(),
	}
	for i, n := range nodes {
		k := g.Degree(n)
		a.community[n] = i
		a.degree[n] = k
		a.tot[i] = k
	}
	return a
}

func (a *assignment) remove(n string) int {
	c := a.community[n]
	a.tot[c] -= a.degree[n]
	a.community[n] = unassigned
	return c
}

func (a *assignment) insert(n string, c int) {
	a.community[n] = c
	a.tot[c] += a.degree[n]
}

// linksByCommunity returns k_i_in for every community adjacent to n,
// ignoring self-loops.
func (a *assignment) linksByCommunity(n string) map[int]float64 {
	links := make(map[int]float64)
	for neighbor, w := range a.g.Neighbors(n) {
		if neighbor == n {
			continue
		}
		if c := a.community[neighbor]; c != unassigned {
			links[c] += w
		}
	}
	return links
}

// gain is k_i_in − tot_c·k_i / 2m for an unassigned node with degree ki.
func (a *assignment) gain(c int, kIn, ki float64) float64 {
	return kIn - a.tot[c]*ki/a.twoM
}

// moveNode performs one local move for n and reports whether n changed
// community. The current community is always a candidate and wins ties.
func (a *assignment) moveNode(n string) bool {
	ki := a.degree[n]
	current := a.remove(n)
	links := a.linksByCommunity(n)

	best := current
	bestGain := a.gain(current, links[current], ki)

	candidates := make([]int, 0, len(links))
	for c := range links {
		if c != current {
			candidates = append(candidates, c)
		}
	}
	sort.Ints(candidates)

	for _, c := range candidates {
		if g := a.gain(c, links[c], ki); g > bestGain {
			best, bestGain = c, g
		}
	}

	a.insert(n, best)
	return best != current
}

// partition relabels communities to 0..k-1 in order of first appearance in
// the graph's node order.
func (a *assignment) partition() Partition {
	labels := make(map[int]int)
	p := make(Partition, len(a.community))
	for _, n := range a.g.Nodes() {
		c := a.community[n]
		l, ok := labels[c]
		if !ok {
			l = len(labels)
			labels[c] = l
		}
		p[n] = l
	}
	return p
}
