package reconcile

import (
	"errors"
	"fmt"
	"testing"

	"github.com/assemblage/backend/pkg/common"
)

func testActors() []common.Actor {
	return []common.Actor{
		{ID: "o", Name: "OpenAI Inc.", Category: "Startup"},
		{ID: "ec", Name: "European Commission", Category: "Policymaker"},
		{ID: "m", Name: "Mozilla Foundation", Category: "Civil Society"},
		{ID: "d", Name: "Data Workers Union", Category: "Civil Society"},
	}
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("gen-%d", n), nil
	}
}

func newTestReconciler() *Reconciler {
	return NewReconciler(NewReconcilerParams{Actors: testActors(), NewID: sequentialIDs()})
}

func pairCount(edges []common.Edge) map[pairKey]int {
	counts := make(map[pairKey]int)
	for _, e := range edges {
		counts[keyOf(e.Source, e.Target)]++
	}
	return counts
}

func TestReconcile_KeepsHeuristicDirection(t *testing.T) {
	r := newTestReconciler()
	heuristic := []common.Edge{{ID: "h1", Source: "ec", Target: "o", Kind: "regulates"}}
	claims := []common.FormalClaim{{SourceName: "OpenAI", TargetName: "European Commission", Kind: "lobbies", Description: "Met with DG CONNECT."}}

	out, stats, err := r.Reconcile(heuristic, claims)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 edge, got %d: %+v", len(out), out)
	}

	e := out[0]
	if e.ID != "h1" || e.Source != "ec" || e.Target != "o" {
		t.Fatalf("expected heuristic identity and direction kept, got %+v", e)
	}
	if e.Kind != "lobbies" || e.Label != "lobbies" || e.Description != "Met with DG CONNECT." {
		t.Fatalf("expected formal fields to win, got %+v", e)
	}
	if e.Provenance != common.ProvenanceFormal || e.Nature != FormalNature {
		t.Fatalf("expected formal provenance and mediator nature, got %q / %q", e.Provenance, e.Nature)
	}
	if e.Analysis == nil || e.Analysis.MediatorScore != DefaultMediatorScore || e.Analysis.Classification != WeakMediator {
		t.Fatalf("expected default analysis, got %+v", e.Analysis)
	}
	if len(e.Analysis.EmpiricalTraces) != 1 {
		t.Fatalf("expected evidence as empirical trace, got %v", e.Analysis.EmpiricalTraces)
	}
	if stats.Upgraded != 1 || stats.Added != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestReconcile_SingleEdgePerPair(t *testing.T) {
	r := newTestReconciler()
	heuristic := []common.Edge{
		{ID: "h1", Source: "o", Target: "m"},
		{ID: "h2", Source: "m", Target: "o", Kind: "competes"},
		{ID: "h3", Source: "d", Target: "ec", Label: "petitions"},
	}
	claims := []common.FormalClaim{
		{SourceName: "Data Workers Union", TargetName: "Mozilla Foundation", Kind: "first"},
		{SourceName: "mozilla foundation", TargetName: "data workers union", Kind: "second"},
		{SourceName: "OpenAI", TargetName: "Data Workers Union"},
	}

	out, stats, err := r.Reconcile(heuristic, claims)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	for k, n := range pairCount(out) {
		if n != 1 {
			t.Fatalf("pair %v appears %d times", k, n)
		}
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 edges, got %d: %+v", len(out), out)
	}

	if out[0].ID != "h1" || out[0].Kind != common.DefaultEdgeKind || out[0].Label != common.DefaultEdgeKind {
		t.Fatalf("expected first heuristic edge with default kind, got %+v", out[0])
	}
	if out[1].ID != "h3" || out[1].Kind != "petitions" || out[1].Provenance != common.ProvenanceHeuristic {
		t.Fatalf("expected label to fill kind, got %+v", out[1])
	}

	added := map[string]common.Edge{}
	for _, e := range out[2:] {
		added[e.ID] = e
	}
	first, ok := added["gen-1"]
	if !ok || first.Kind != "second" {
		t.Fatalf("expected last claim on d-m to win with generated id, got %+v", out[2:])
	}
	second, ok := added["gen-2"]
	if !ok || second.Source != "o" || second.Target != "d" || second.Description != DefaultDescription {
		t.Fatalf("expected defaulted o-d claim, got %+v", second)
	}
	if stats.Duplicates != 1 || stats.Added != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestReconcile_DropsUnresolvable(t *testing.T) {
	r := newTestReconciler()
	claims := []common.FormalClaim{
		{SourceName: "Acme Robotics", TargetName: "OpenAI"},
		{SourceName: "OpenAI", TargetName: ""},
		{SourceName: "OpenAI", TargetName: "OpenAI Inc"},
	}

	out, stats, err := r.Reconcile(nil, claims)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no edges, got %+v", out)
	}
	if stats.Dropped != 3 {
		t.Fatalf("expected 3 dropped claims, got %d", stats.Dropped)
	}
}

func TestReconcile_EmptyEndpoint(t *testing.T) {
	r := newTestReconciler()
	_, _, err := r.Reconcile([]common.Edge{{Source: "o"}}, nil)

	var vErr *common.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReconcile_IDGenerationFailure(t *testing.T) {
	r := NewReconciler(NewReconcilerParams{
		Actors: testActors(),
		NewID:  func() (string, error) { return "", errors.New("entropy exhausted") },
	})
	claims := []common.FormalClaim{{SourceName: "OpenAI", TargetName: "Mozilla Foundation"}}

	if _, _, err := r.Reconcile(nil, claims); err == nil {
		t.Fatal("expected error when id generation fails")
	}
}

func TestClaimsFromConnections(t *testing.T) {
	actors := testActors()
	actors[2].PotentialConnections = []common.PotentialConnection{
		{TargetActor: "Data Workers' Union", RelationshipType: "funds", Evidence: "Grant 2024."},
		{TargetActor: ""},
	}

	claims := ClaimsFromConnections(actors)
	if len(claims) != 1 || claims[0].SourceID != "m" {
		t.Fatalf("expected one claim sourced at m, got %+v", claims)
	}

	out, _, err := newTestReconciler().Reconcile(nil, claims)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(out) != 1 || out[0].Source != "m" || out[0].Target != "d" || out[0].Kind != "funds" {
		t.Fatalf("expected m-d funds edge, got %+v", out)
	}
}

func TestClassifyMediator(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, StrongIntermediary},
		{0.29, StrongIntermediary},
		{0.3, WeakIntermediary},
		{0.5, WeakMediator},
		{0.65, WeakMediator},
		{0.7, StrongMediator},
		{1, StrongMediator},
	}

	for _, tc := range tests {
		if got := ClassifyMediator(tc.score); got != tc.want {
			t.Fatalf("ClassifyMediator(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
