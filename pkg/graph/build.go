package graph

import (
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/resolve"

	"gonum.org/v1/gonum/floats"
)

// Build produces the weighted actor graph. embeddings must be aligned with
// actors by position and share one dimension.
//
// Every actor pair whose cosine similarity is strictly above the threshold
// receives similarity × semantic factor. Every structural edge whose
// endpoints are both known actors then adds the structural weight on top.
// Endpoints that are not actor IDs are resolved against actor names.
// Structural edges naming unknown actors or an actor and itself are skipped.
//
// The similarity pass compares all pairs and is O(n²) in the actor count;
// callers with large actor sets should pre-filter them. Build has no side
// effects and yields identical weights for identical inputs.
func (b *Builder) Build(
	actors []common.Actor,
	edges []common.Edge,
	embeddings [][]float32,
) (*Graph, error) {
	if len(actors) < MinActors {
		return nil, common.NewValidationError("actors", "at least %d actors are required for clustering, got %d", MinActors, len(actors))
	}
	if len(embeddings) != len(actors) {
		return nil, common.NewValidationError("embeddings", "expected %d vectors, got %d", len(actors), len(embeddings))
	}

	g := NewGraph()
	for i, a := range actors {
		if a.ID == "" {
			return nil, common.NewValidationError("actors", "actor at index %d has an empty id", i)
		}
		if g.HasNode(a.ID) {
			return nil, common.NewValidationError("actors", "duplicate actor id %q", a.ID)
		}
		g.AddNode(a.ID)
	}

	vectors, norms, err := prepareVectors(embeddings)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(actors); i++ {
		for j := i + 1; j < len(actors); j++ {
			sim := cosine(vectors[i], vectors[j], norms[i], norms[j])
			if sim > b.similarityThreshold {
				g.AddWeight(actors[i].ID, actors[j].ID, sim*b.semanticWeightFactor)
			}
		}
	}

	var names *resolve.NameTable
	endpoint := func(ref string) (string, bool) {
		if g.HasNode(ref) {
			return ref, true
		}
		if names == nil {
			names = resolve.NewNameTable(actors)
		}
		return names.Resolve(ref)
	}

	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return nil, common.NewValidationError("edges", "edge at index %d has an empty endpoint", i)
		}
		source, ok := endpoint(e.Source)
		if !ok {
			continue
		}
		target, ok := endpoint(e.Target)
		if !ok || source == target {
			continue
		}
		g.AddWeight(source, target, b.structuralWeight)
	}

	return g, nil
}

// CosineSimilarity returns dot(a,b) / (‖a‖·‖b‖). Vectors of different
// length or with zero norm have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	va, vb := toFloat64(a), toFloat64(b)
	return cosine(va, vb, floats.Norm(va, 2), floats.Norm(vb, 2))
}

func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

func prepareVectors(embeddings [][]float32) ([][]float64, []float64, error) {
	dim := len(embeddings[0])
	vectors := make([][]float64, len(embeddings))
	norms := make([]float64, len(embeddings))
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, nil, common.NewValidationError("embeddings", "vector %d has dimension %d, expected %d", i, len(e), dim)
		}
		vectors[i] = toFloat64(e)
		norms[i] = floats.Norm(vectors[i], 2)
	}
	return vectors, norms, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
