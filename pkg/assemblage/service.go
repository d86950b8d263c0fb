package assemblage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/assemblage/backend/pkg/ai"
	"github.com/assemblage/backend/pkg/common"
	"github.com/assemblage/backend/pkg/community"
	"github.com/assemblage/backend/pkg/diversity"
	"github.com/assemblage/backend/pkg/graph"
	"github.com/assemblage/backend/pkg/logger"
	"github.com/assemblage/backend/pkg/reconcile"
)

const (
	EmptyNoEdges       = "no edges above threshold"
	EmptyNoCommunities = "no communities of the minimum size"

	CollaboratorEmbedding = "embedding"
	CollaboratorNaming    = "naming"
)

var log = logger.Component("Detect")

// Service runs the clustering pipeline: embed actors, build the weighted
// graph, detect communities, name and score the largest ones.
//
// A Service holds no per-request state and is safe for concurrent use as
// long as its collaborators are.
type Service struct {
	embedder ai.Embedder
	namer    ai.CompletionClient
	counter  ai.TokenCounter
	params   Params
}

// NewServiceParams configures a Service. Namer may be nil, in which case
// every community gets its deterministic fallback label. TokenCounter
// measures the naming prompt and defaults to ai.TiktokenCounter.
type NewServiceParams struct {
	Embedder     ai.Embedder
	Namer        ai.CompletionClient
	TokenCounter ai.TokenCounter
	Params       Params
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		embedder: params.Embedder,
		namer:    params.Namer,
		counter:  params.TokenCounter,
		params:   params.Params.withDefaults(),
	}
}

// Params returns the pipeline parameters the service was built with.
func (s *Service) Params() Params {
	return s.params
}

// Request is one clustering call. Seed overrides Params.Seed when set.
type Request struct {
	Actors []common.Actor `json:"actors" validate:"required,dive"`
	Edges  []common.Edge  `json:"edges" validate:"dive"`
	Seed   *uint64        `json:"seed,omitempty"`
}

// Result lists the reported communities, largest first. Empty is set with a
// reason when the run finished without meaningful communities; that is not
// an error.
type Result struct {
	Communities []common.Community `json:"communities"`
	Modularity  float64            `json:"modularity"`
	Passes      int                `json:"passes"`
	Empty       string             `json:"empty,omitempty"`
	ActorCount  int                `json:"actor_count"`
	EdgeCount   int                `json:"edge_count"`
}

// Validate rejects requests the pipeline cannot cluster: fewer than
// graph.MinActors actors, empty or duplicate actor IDs and edges without
// both endpoints.
func (r Request) Validate() error {
	if len(r.Actors) < graph.MinActors {
		return common.NewValidationError("actors", "at least %d actors are required for clustering, got %d", graph.MinActors, len(r.Actors))
	}
	ids := make(map[string]struct{}, len(r.Actors))
	for i, a := range r.Actors {
		if strings.TrimSpace(a.ID) == "" {
			return common.NewValidationError("actors", "actor at index %d has an empty id", i)
		}
		if _, dup := ids[a.ID]; dup {
			return common.NewValidationError("actors", "duplicate actor id %q", a.ID)
		}
		ids[a.ID] = struct{}{}
	}
	for i, e := range r.Edges {
		if e.Source == "" || e.Target == "" {
			return common.NewValidationError("edges", "edge at index %d has an empty endpoint", i)
		}
	}
	return nil
}

// EmbeddingInput is the text embedded for an actor: "{name}: {description}",
// or "{name}: {category}" when the description is blank.
func EmbeddingInput(a common.Actor) string {
	detail := strings.TrimSpace(a.Description)
	if detail == "" {
		detail = string(a.Category)
	}
	return a.Name + ": " + detail
}

// Detect runs the full pipeline for req. Validation failures are returned
// as *common.ValidationError before any collaborator is called; embedding
// failures, and naming failures under StrictNaming, as *common.UpstreamError.
func (s *Service) Detect(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if s.embedder == nil {
		return Result{}, &common.UpstreamError{Collaborator: CollaboratorEmbedding, Err: fmt.Errorf("no embedding client configured")}
	}

	inputs := make([]string, len(req.Actors))
	for i, a := range req.Actors {
		inputs[i] = EmbeddingInput(a)
	}
	embeddings, err := s.embedder.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return Result{}, &common.UpstreamError{Collaborator: CollaboratorEmbedding, Err: err}
	}
	if len(embeddings) != len(inputs) {
		return Result{}, &common.UpstreamError{
			Collaborator: CollaboratorEmbedding,
			Err:          fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(embeddings)),
		}
	}
	if len(embeddings) > 0 {
		dim := len(embeddings[0])
		for i, v := range embeddings {
			if len(v) == 0 || len(v) != dim {
				return Result{}, &common.UpstreamError{
					Collaborator: CollaboratorEmbedding,
					Err:          fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim),
				}
			}
		}
	}

	builder := graph.NewBuilder(graph.NewBuilderParams{
		SimilarityThreshold:  s.params.SimilarityThreshold,
		SemanticWeightFactor: s.params.SemanticWeightFactor,
		StructuralWeight:     s.params.StructuralWeight,
	})
	g, err := builder.Build(req.Actors, req.Edges, embeddings)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Communities: []common.Community{},
		ActorCount:  g.Len(),
		EdgeCount:   g.EdgeCount(),
	}
	if res.EdgeCount == 0 {
		res.Empty = EmptyNoEdges
		log.Info("No edges above threshold", "actors", res.ActorCount)
		return res, nil
	}

	detector := community.NewDetector(community.NewDetectorParams{
		MaxPasses: s.params.MaxPasses,
		Order:     s.orderFor(req),
	})
	detected := detector.Detect(g)
	res.Modularity = detected.Modularity
	res.Passes = detected.Passes

	groups := s.selectGroups(detected.Partition)
	if len(groups) == 0 {
		res.Empty = EmptyNoCommunities
		log.Info("No communities of the minimum size",
			"actors", res.ActorCount,
			"edges", res.EdgeCount,
			"min_size", s.params.MinCommunitySize,
		)
		return res, nil
	}

	byID := make(map[string]common.Actor, len(req.Actors))
	for _, a := range req.Actors {
		byID[a.ID] = a
	}

	titles, err := s.nameGroups(ctx, groups, byID)
	if err != nil {
		return Result{}, err
	}

	for _, grp := range groups {
		label := strconv.Itoa(grp.label)
		members := make([]common.Actor, len(grp.members))
		for i, id := range grp.members {
			members[i] = byID[id]
		}
		comp := diversity.Compose(members)
		res.Communities = append(res.Communities, common.Community{
			ID:             label,
			Label:          titleFor(titles, label),
			Description:    fmt.Sprintf("AI-detected community of %d actors.", len(members)),
			MemberIDs:      grp.members,
			Size:           len(members),
			DiversityScore: comp.Score,
			HumanCount:     comp.HumanCount,
			NonHumanCount:  comp.NonHumanCount,
			CategoryCounts: comp.CategoryCounts,
		})
	}

	log.Info("Clustering finished",
		"actors", res.ActorCount,
		"edges", res.EdgeCount,
		"communities", len(res.Communities),
		"modularity", fmt.Sprintf("%.4f", res.Modularity),
		"passes", res.Passes,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

func (s *Service) orderFor(req Request) community.OrderFunc {
	seed := s.params.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		return community.RandomOrder()
	}
	return community.SeededOrder(seed)
}

type group struct {
	label   int
	members []string
}

// selectGroups drops groups below MinCommunitySize and keeps the TopK
// largest. Ties in size go to the group holding the smallest member ID.
func (s *Service) selectGroups(p community.Partition) []group {
	var out []group
	for label, members := range p.Groups() {
		if len(members) < s.params.MinCommunitySize {
			continue
		}
		out = append(out, group{label: label, members: members})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].members) != len(out[j].members) {
			return len(out[i].members) > len(out[j].members)
		}
		return out[i].members[0] < out[j].members[0]
	})
	if s.params.TopK > 0 && len(out) > s.params.TopK {
		out = out[:s.params.TopK]
	}
	return out
}

func groupKey(label string) string {
	return "Group " + label
}

func (s *Service) nameGroups(ctx context.Context, groups []group, byID map[string]common.Actor) (map[string]string, error) {
	if s.namer == nil {
		return map[string]string{}, nil
	}

	naming := make([]ai.NamingGroup, len(groups))
	for i, grp := range groups {
		members := make([]ai.NamingMember, len(grp.members))
		for j, id := range grp.members {
			a := byID[id]
			members[j] = ai.NamingMember{Name: a.Name, Category: string(a.Category)}
		}
		naming[i] = ai.NamingGroup{Key: groupKey(strconv.Itoa(grp.label)), Members: members}
	}

	titles, err := ai.NameGroups(ctx, s.namer, naming, ai.NamingParams{
		TokenBudget: s.params.NamingTokenBudget,
		Counter:     s.counter,
		Options:     s.params.namingOptions(),
	})
	if err != nil {
		if s.params.StrictNaming {
			return nil, &common.UpstreamError{Collaborator: CollaboratorNaming, Err: err}
		}
		log.Warn("Naming failed, using fallback labels", "groups", len(groups), "error", err)
		return map[string]string{}, nil
	}
	return titles, nil
}

func titleFor(titles map[string]string, label string) string {
	if t, ok := titles[groupKey(label)]; ok {
		return t
	}
	if t, ok := titles[label]; ok {
		return t
	}
	return "Assemblage " + label
}

// ReconcileRequest carries the heuristic links of a graph and the formal
// claims to merge into them. Claims derived from the actors' own potential
// connections are added automatically.
type ReconcileRequest struct {
	Actors []common.Actor       `json:"actors" validate:"dive"`
	Edges  []common.Edge        `json:"edges" validate:"dive"`
	Claims []common.FormalClaim `json:"claims" validate:"dive"`
}

// ReconcileResult is the merged edge list with run statistics.
type ReconcileResult struct {
	Edges []common.Edge   `json:"edges"`
	Stats reconcile.Stats `json:"stats"`
}

// Reconcile merges heuristic edges with formal claims.
func Reconcile(req ReconcileRequest) (ReconcileResult, error) {
	claims := append(reconcile.ClaimsFromConnections(req.Actors), req.Claims...)
	r := reconcile.NewReconciler(reconcile.NewReconcilerParams{Actors: req.Actors})
	edges, stats, err := r.Reconcile(req.Edges, claims)
	if err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{Edges: edges, Stats: stats}, nil
}
