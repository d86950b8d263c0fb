package graph

// MinActors is the smallest actor count a graph is built for.
const MinActors = 3

// Builder combines semantic similarity between actor embeddings with
// structural edges into a single weighted graph.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	similarityThreshold  float64
	semanticWeightFactor float64
	structuralWeight     float64
}

// NewBuilderParams defines the configuration parameters for creating
// a new Builder.
//
// SimilarityThreshold is the cosine similarity an actor pair must strictly
// exceed to receive a semantic edge.
// SemanticWeightFactor scales accepted similarities into edge weights.
// StructuralWeight is added once per structural edge between two actors.
type NewBuilderParams struct {
	SimilarityThreshold  float64
	SemanticWeightFactor float64
	StructuralWeight     float64
}

// DefaultBuilderParams returns the design defaults: threshold 0.4, semantic
// factor 0.8, structural reinforcement 2.0.
func DefaultBuilderParams() NewBuilderParams {
	return NewBuilderParams{
		SimilarityThreshold:  0.4,
		SemanticWeightFactor: 0.8,
		StructuralWeight:     2.0,
	}
}

// NewBuilder creates and returns a new Builder. Negative weights in params
// are replaced by the defaults.
//
// Example:
//
//	b := graph.NewBuilder(graph.DefaultBuilderParams())
//	g, err := b.Build(actors, edges, embeddings)
//	if err != nil {
//		return err
//	}
func NewBuilder(params NewBuilderParams) *Builder {
	def := DefaultBuilderParams()
	if params.SemanticWeightFactor < 0 {
		params.SemanticWeightFactor = def.SemanticWeightFactor
	}
	if params.StructuralWeight < 0 {
		params.StructuralWeight = def.StructuralWeight
	}
	return &Builder{
		similarityThreshold:  params.SimilarityThreshold,
		semanticWeightFactor: params.SemanticWeightFactor,
		structuralWeight:     params.StructuralWeight,
	}
}
