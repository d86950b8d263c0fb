package assemblage

import (
	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/ai"
	"github.com/assemblage/backend/pkg/community"
	"github.com/assemblage/backend/pkg/graph"
)

// Params tunes the clustering pipeline.
type Params struct {
	SimilarityThreshold  float64 `json:"similarity_threshold"`
	SemanticWeightFactor float64 `json:"semantic_weight_factor"`
	StructuralWeight     float64 `json:"structural_weight"`

	MaxPasses        int `json:"max_passes"`
	TopK             int `json:"top_k"`
	MinCommunitySize int `json:"min_community_size"`

	// Seed fixes the node visitation order. 0 draws a fresh order per run.
	Seed uint64 `json:"seed"`

	NamingTokenBudget int `json:"naming_token_budget"`
	// NamingModel overrides the client's chat model when set.
	NamingModel       string  `json:"naming_model"`
	NamingTemperature float64 `json:"naming_temperature"`
	NamingThinking    string  `json:"naming_thinking"`
	// StrictNaming fails the whole run when the naming collaborator fails
	// instead of falling back to deterministic labels.
	StrictNaming bool `json:"strict_naming"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	b := graph.DefaultBuilderParams()
	return Params{
		SimilarityThreshold:  b.SimilarityThreshold,
		SemanticWeightFactor: b.SemanticWeightFactor,
		StructuralWeight:     b.StructuralWeight,
		MaxPasses:            community.DefaultMaxPasses,
		TopK:                 3,
		MinCommunitySize:     3,
		NamingTokenBudget:    2000,
		NamingTemperature:    0.1,
	}
}

// withDefaults replaces counts below 1 with their defaults.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MaxPasses < 1 {
		p.MaxPasses = d.MaxPasses
	}
	if p.TopK < 1 {
		p.TopK = d.TopK
	}
	if p.MinCommunitySize < 1 {
		p.MinCommunitySize = d.MinCommunitySize
	}
	return p
}

func (p Params) namingOptions() []ai.GenerateOption {
	opts := []ai.GenerateOption{ai.WithTemperature(p.NamingTemperature)}
	if p.NamingModel != "" {
		opts = append(opts, ai.WithModel(p.NamingModel))
	}
	if p.NamingThinking != "" {
		opts = append(opts, ai.WithThinking(p.NamingThinking))
	}
	return opts
}

// ParamsFromEnv overrides DefaultParams with the CLUSTER_* and NAMING_*
// environment variables.
func ParamsFromEnv() Params {
	p := DefaultParams()
	p.SimilarityThreshold = util.GetEnvFloat("CLUSTER_SIMILARITY_THRESHOLD", p.SimilarityThreshold)
	p.SemanticWeightFactor = util.GetEnvFloat("CLUSTER_SEMANTIC_WEIGHT", p.SemanticWeightFactor)
	p.StructuralWeight = util.GetEnvFloat("CLUSTER_STRUCTURAL_WEIGHT", p.StructuralWeight)
	p.MaxPasses = int(util.GetEnvNumeric("CLUSTER_MAX_PASSES", p.MaxPasses))
	p.TopK = int(util.GetEnvNumeric("CLUSTER_TOP_K", p.TopK))
	p.MinCommunitySize = int(util.GetEnvNumeric("CLUSTER_MIN_SIZE", p.MinCommunitySize))
	p.Seed = uint64(util.GetEnvNumeric("CLUSTER_SEED", 0))
	p.NamingTokenBudget = int(util.GetEnvNumeric("NAMING_TOKEN_BUDGET", p.NamingTokenBudget))
	p.StrictNaming = util.GetEnvBool("NAMING_STRICT", p.StrictNaming)
	p.NamingModel = util.GetEnvString("NAMING_MODEL", p.NamingModel)
	p.NamingTemperature = util.GetEnvFloat("NAMING_TEMPERATURE", p.NamingTemperature)
	p.NamingThinking = util.GetEnvString("NAMING_THINKING", p.NamingThinking)
	return p.withDefaults()
}
