package community

import (
	"github.com/assemblage/backend/pkg/graph"
)

// DefaultMaxPasses bounds the number of sweeps over all nodes.
const DefaultMaxPasses = 5

// Detector partitions a weighted graph by greedy single-level modularity
// optimisation. Each pass visits every node once, in the order given by
// the configured OrderFunc, and moves it to the neighbouring community
// with the strictly greatest modularity gain. Detection stops after a pass
// without moves or after MaxPasses passes, whichever comes first.
//
// There is no aggregation phase, so the result is a local optimum of the
// single-level heuristic.
type Detector struct {
	maxPasses int
	order     OrderFunc
}

// NewDetectorParams configures a Detector. A MaxPasses below 1 falls back
// to DefaultMaxPasses and a nil Order to RandomOrder.
type NewDetectorParams struct {
	MaxPasses int
	Order     OrderFunc
}

func NewDetector(params NewDetectorParams) *Detector {
	if params.MaxPasses < 1 {
		params.MaxPasses = DefaultMaxPasses
	}
	if params.Order == nil {
		params.Order = RandomOrder()
	}
	return &Detector{
		maxPasses: params.MaxPasses,
		order:     params.Order,
	}
}

// Result is the outcome of one detection run.
type Result struct {
	Partition  Partition
	Modularity float64
	// Passes is the number of sweeps run, including the final one without
	// moves. It is 0 when the graph has no edges.
	Passes int
	Moves  int
}

// Detect runs the local-move phase on g. A graph with no edge weight keeps
// every node in its own singleton community.
func (d *Detector) Detect(g *graph.Graph) Result {
	a := newAssignment(g)
	if g.Len() == 0 || a.twoM == 0 {
		p := a.partition()
		return Result{Partition: p}
	}

	nodes := g.Nodes()
	res := Result{}
	for pass := 1; pass <= d.maxPasses; pass++ {
		res.Passes = pass
		moved := 0
		for _, n := range d.order(nodes) {
			if a.moveNode(n) {
				moved++
			}
		}
		res.Moves += moved
		if moved == 0 {
			break
		}
	}

	res.Partition = a.partition()
	res.Modularity = Modularity(g, res.Partition)
	return res
}
