package reconcile

import (
	"fmt"

	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/logger"
	"github.com/assemblage/backend/pkg/resolve"
)

const (
	DefaultDescription   = "AI-discovered association."
	DefaultMediatorScore = 0.65
	FormalNature         = "mediator"
	defaultConfidence    = "High"
	defaultSource        = "AI Forensic Analysis"
)

// Reconciler merges heuristic edges with formal claims about the same
// actors. Formal claims name their endpoints by free text and are resolved
// against the actor name table before merging.
//
// A Reconciler is built per request and is not safe for concurrent use.
type Reconciler struct {
	names *resolve.NameTable
	ids   map[string]struct{}
	newID func() (string, error)
}

// NewReconcilerParams configures a Reconciler. A zero DistanceThreshold
// uses resolve.DefaultDistanceThreshold and a nil NewID uses util.NewID.
type NewReconcilerParams struct {
	Actors            []common.Actor
	DistanceThreshold int
	NewID             func() (string, error)
}

func NewReconciler(params NewReconcilerParams) *Reconciler {
	threshold := params.DistanceThreshold
	if threshold <= 0 {
		threshold = resolve.DefaultDistanceThreshold
	}
	newID := params.NewID
	if newID == nil {
		newID = util.NewID
	}

	ids := make(map[string]struct{}, len(params.Actors))
	for _, a := range params.Actors {
		ids[a.ID] = struct{}{}
	}

	return &Reconciler{
		names: resolve.NewNameTable(params.Actors).WithThreshold(threshold),
		ids:   ids,
		newID: newID,
	}
}

// Stats counts what a reconciliation run did.
type Stats struct {
	Heuristic  int `json:"heuristic"`
	Upgraded   int `json:"upgraded"`
	Added      int `json:"added"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
}

type pairKey struct {
	lo, hi string
}

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Reconcile returns the merged edge list.
//
// Heuristic edges keep their order, ID and direction. When a resolved formal
// claim covers the same unordered pair, the edge takes the claim's kind,
// description and analysis and becomes formal. Formal claims that matched
// no heuristic edge are appended as new edges in first-seen order. Among
// several claims on one pair the last one wins; among several heuristic
// edges on one pair the first one wins.
//
// The result never holds two edges for the same unordered pair.
func (r *Reconciler) Reconcile(heuristic []common.Edge, claims []common.FormalClaim) ([]common.Edge, Stats, error) {
	stats := Stats{}

	formal := make(map[pairKey]common.Edge)
	var order []pairKey
	for _, c := range claims {
		e, ok := r.resolveClaim(c)
		if !ok {
			stats.Dropped++
			continue
		}
		k := keyOf(e.Source, e.Target)
		if _, seen := formal[k]; !seen {
			order = append(order, k)
		}
		formal[k] = e
	}

	out := make([]common.Edge, 0, len(heuristic)+len(formal))
	seen := make(map[pairKey]struct{}, len(heuristic))
	for i, h := range heuristic {
		if h.Source == "" || h.Target == "" {
			return nil, stats, common.NewValidationError("edges", "edge at index %d has an empty endpoint", i)
		}
		k := keyOf(h.Source, h.Target)
		if _, dup := seen[k]; dup {
			stats.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		stats.Heuristic++

		h = withDefaultKind(h)
		if h.Provenance == "" {
			h.Provenance = common.ProvenanceHeuristic
		}

		if f, ok := formal[k]; ok {
			h.Kind = f.Kind
			h.Label = f.Kind
			h.Description = f.Description
			h.Analysis = f.Analysis
			h.Provenance = common.ProvenanceFormal
			h.Nature = FormalNature
			delete(formal, k)
			stats.Upgraded++
		}
		out = append(out, h)
	}

	for _, k := range order {
		f, ok := formal[k]
		if !ok {
			continue
		}
		id, err := r.newID()
		if err != nil {
			return nil, stats, fmt.Errorf("failed to generate edge id: %w", err)
		}
		f.ID = id
		out = append(out, f)
		stats.Added++
	}

	logger.Debug("[Reconcile] Merged links",
		"heuristic", stats.Heuristic,
		"upgraded", stats.Upgraded,
		"added", stats.Added,
		"dropped", stats.Dropped,
		"duplicates", stats.Duplicates,
	)

	return out, stats, nil
}

func (r *Reconciler) resolveClaim(c common.FormalClaim) (common.Edge, bool) {
	source, ok := r.resolveSource(c)
	if !ok {
		return common.Edge{}, false
	}
	target, ok := r.names.Resolve(c.TargetName)
	if !ok || target == source {
		return common.Edge{}, false
	}

	kind := c.Kind
	if kind == "" {
		kind = common.DefaultEdgeKind
	}
	description := c.Description
	if description == "" {
		description = DefaultDescription
	}

	return common.Edge{
		Source:      source,
		Target:      target,
		Kind:        kind,
		Label:       kind,
		Description: description,
		Provenance:  common.ProvenanceFormal,
		Nature:      FormalNature,
		Analysis:    analysisFor(c),
	}, true
}

func (r *Reconciler) resolveSource(c common.FormalClaim) (string, bool) {
	if c.SourceID != "" {
		if _, ok := r.ids[c.SourceID]; ok {
			return c.SourceID, true
		}
	}
	return r.names.Resolve(c.SourceName)
}

func analysisFor(c common.FormalClaim) *common.Analysis {
	if c.Analysis != nil {
		a := *c.Analysis
		if a.Classification == "" {
			a.Classification = ClassifyMediator(a.MediatorScore)
		}
		if a.EmpiricalTraces == nil {
			a.EmpiricalTraces = []string{}
		}
		return &a
	}

	traces := []string{}
	if c.Description != "" {
		traces = append(traces, c.Description)
	}
	return &common.Analysis{
		MediatorScore:   DefaultMediatorScore,
		Classification:  ClassifyMediator(DefaultMediatorScore),
		EmpiricalTraces: traces,
		Confidence:      defaultConfidence,
		Source:          defaultSource,
	}
}

func withDefaultKind(e common.Edge) common.Edge {
	switch {
	case e.Kind == "" && e.Label == "":
		e.Kind = common.DefaultEdgeKind
		e.Label = common.DefaultEdgeKind
	case e.Kind == "":
		e.Kind = e.Label
	case e.Label == "":
		e.Label = e.Kind
	}
	return e
}
