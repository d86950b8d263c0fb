package assemblage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/assemblage/backend/pkg/ai"
	"github.com/assemblage/backend/pkg/common"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
	inputs  []string
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	f.inputs = inputs
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

type fakeNamer struct {
	response string
	err      error
	prompt   string
	options  ai.GenerateOptions
}

func (f *fakeNamer) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, opts ...ai.GenerateOption) error {
	f.prompt = prompt
	f.options = ai.ApplyOptions(ai.GenerateOptions{}, opts...)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

// orthogonal returns n unit vectors with pairwise similarity 0, so only
// structural edges reach the graph.
func orthogonal(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, n)
		out[i][i] = 1
	}
	return out
}

func twoTriangles() Request {
	return Request{
		Actors: []common.Actor{
			{ID: "a", Name: "EU Parliament", Category: common.CategoryPolicymaker, Description: "Legislature"},
			{ID: "b", Name: "AI Act", Category: common.CategoryLegalObject},
			{ID: "c", Name: "Mozilla Foundation", Category: common.CategoryCivilSociety},
			{ID: "d", Name: "Common Crawl", Category: common.CategoryDataset},
			{ID: "e", Name: "GPU Cluster", Category: common.CategoryInfrastructure},
			{ID: "f", Name: "Transformer", Category: common.CategoryAlgorithm},
		},
		Edges: []common.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "a"},
			{Source: "d", Target: "e"},
			{Source: "e", Target: "f"},
			{Source: "Common Crawl", Target: "Transformer"},
		},
	}
}

func newTestService(embedder ai.Embedder, namer ai.CompletionClient, mutate func(*Params)) *Service {
	params := DefaultParams()
	params.Seed = 7
	if mutate != nil {
		mutate(&params)
	}
	return NewService(NewServiceParams{
		Embedder:     embedder,
		Namer:        namer,
		TokenCounter: ai.EstimateTokens,
		Params:       params,
	})
}

func TestDetect_TwoCommunities(t *testing.T) {
	emb := &fakeEmbedder{vectors: orthogonal(6)}
	namer := &fakeNamer{response: `{"titles":[{"group":"Group 0","title":"Regulation Bloc"},{"group":"1","title":"Compute Stack"}]}`}
	svc := newTestService(emb, namer, nil)

	res, err := svc.Detect(context.Background(), twoTriangles())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Empty != "" {
		t.Fatalf("expected communities, got empty reason %q", res.Empty)
	}
	if len(res.Communities) != 2 {
		t.Fatalf("expected 2 communities, got %d", len(res.Communities))
	}
	if res.EdgeCount != 6 || res.ActorCount != 6 {
		t.Fatalf("expected 6 actors and 6 edges, got %d and %d", res.ActorCount, res.EdgeCount)
	}
	if res.Modularity <= 0 {
		t.Fatalf("expected positive modularity, got %v", res.Modularity)
	}

	first, second := res.Communities[0], res.Communities[1]
	if first.ID != "0" || first.Label != "Regulation Bloc" {
		t.Fatalf("expected community 0 named Regulation Bloc, got %q %q", first.ID, first.Label)
	}
	if second.ID != "1" || second.Label != "Compute Stack" {
		t.Fatalf("expected community 1 named Compute Stack, got %q %q", second.ID, second.Label)
	}
	if got := first.MemberIDs; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected members [a b c], got %v", got)
	}
	if first.Description != "AI-detected community of 3 actors." {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.HumanCount != 2 || first.NonHumanCount != 1 {
		t.Fatalf("expected 2 human and 1 non-human, got %d and %d", first.HumanCount, first.NonHumanCount)
	}
	if second.HumanCount != 0 || second.DiversityScore != 0 {
		t.Fatalf("expected an all-technical community with score 0, got %+v", second)
	}
	if first.DiversityScore <= 0 || first.DiversityScore > 1 {
		t.Fatalf("expected diversity in (0,1], got %v", first.DiversityScore)
	}

	if emb.inputs[0] != "EU Parliament: Legislature" || emb.inputs[1] != "AI Act: LegalObject" {
		t.Fatalf("unexpected embedding inputs %v", emb.inputs[:2])
	}
	if namer.prompt == "" {
		t.Fatalf("expected naming prompt to be sent")
	}
}

func TestDetect_TopK(t *testing.T) {
	svc := newTestService(&fakeEmbedder{vectors: orthogonal(6)}, nil, func(p *Params) { p.TopK = 1 })

	res, err := svc.Detect(context.Background(), twoTriangles())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Communities) != 1 || res.Communities[0].ID != "0" {
		t.Fatalf("expected only community 0, got %+v", res.Communities)
	}
	if res.Communities[0].Label != "Assemblage 0" {
		t.Fatalf("expected fallback label without a namer, got %q", res.Communities[0].Label)
	}
}

func TestDetect_NamingFailure(t *testing.T) {
	boom := errors.New("model unavailable")

	t.Run("Fallback", func(t *testing.T) {
		svc := newTestService(&fakeEmbedder{vectors: orthogonal(6)}, &fakeNamer{err: boom}, nil)
		res, err := svc.Detect(context.Background(), twoTriangles())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, c := range res.Communities {
			if c.Label != "Assemblage "+c.ID {
				t.Fatalf("expected fallback label for %s, got %q", c.ID, c.Label)
			}
		}
	})

	t.Run("Strict", func(t *testing.T) {
		svc := newTestService(&fakeEmbedder{vectors: orthogonal(6)}, &fakeNamer{err: boom}, func(p *Params) { p.StrictNaming = true })
		_, err := svc.Detect(context.Background(), twoTriangles())
		var uErr *common.UpstreamError
		if !errors.As(err, &uErr) || uErr.Collaborator != CollaboratorNaming {
			t.Fatalf("expected naming UpstreamError, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("expected error to wrap cause, got %v", err)
		}
	})
}

func TestDetect_EmbeddingFailure(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
	}{
		{"Error", &fakeEmbedder{err: errors.New("timeout")}},
		{"WrongLength", &fakeEmbedder{vectors: orthogonal(5)}},
		{"MixedDimensions", &fakeEmbedder{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 1}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1}}}},
		{"EmptyVectors", &fakeEmbedder{vectors: make([][]float32, 6)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(tc.embedder, nil, nil)
			_, err := svc.Detect(context.Background(), twoTriangles())
			var uErr *common.UpstreamError
			if !errors.As(err, &uErr) || uErr.Collaborator != CollaboratorEmbedding {
				t.Fatalf("expected embedding UpstreamError, got %v", err)
			}
			if common.ErrorKind(err) != "upstream" {
				t.Fatalf("expected kind upstream, got %q", common.ErrorKind(err))
			}
		})
	}
}

func TestDetect_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"TooFewActors", Request{Actors: []common.Actor{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}},
		{"DuplicateID", Request{Actors: []common.Actor{{ID: "a"}, {ID: "b"}, {ID: "a"}}}},
		{"EmptyID", Request{Actors: []common.Actor{{ID: "a"}, {ID: " "}, {ID: "c"}}}},
		{"EmptyEndpoint", Request{
			Actors: []common.Actor{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Edges:  []common.Edge{{Source: "a"}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emb := &fakeEmbedder{vectors: orthogonal(3)}
			svc := newTestService(emb, nil, nil)
			_, err := svc.Detect(context.Background(), tc.req)
			var vErr *common.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if emb.calls != 0 {
				t.Fatalf("expected embedder not to be called, got %d calls", emb.calls)
			}
		})
	}
}

func TestDetect_EmptyResults(t *testing.T) {
	t.Run("NoEdges", func(t *testing.T) {
		req := twoTriangles()
		req.Edges = nil
		svc := newTestService(&fakeEmbedder{vectors: orthogonal(6)}, nil, nil)
		res, err := svc.Detect(context.Background(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Empty != EmptyNoEdges || len(res.Communities) != 0 {
			t.Fatalf("expected %q with no communities, got %+v", EmptyNoEdges, res)
		}
	})

	t.Run("BelowMinimumSize", func(t *testing.T) {
		svc := newTestService(&fakeEmbedder{vectors: orthogonal(6)}, nil, func(p *Params) { p.MinCommunitySize = 4 })
		res, err := svc.Detect(context.Background(), twoTriangles())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Empty != EmptyNoCommunities {
			t.Fatalf("expected %q, got %q", EmptyNoCommunities, res.Empty)
		}
	})
}

func TestDetect_SemanticEdges(t *testing.T) {
	req := twoTriangles()
	req.Edges = nil
	// Two tight directions: a,b,c point one way and d,e,f the other.
	vectors := [][]float32{
		{1, 0.1}, {1, 0}, {0.9, 0.1},
		{0, 1}, {0.1, 1}, {0, 0.9},
	}
	svc := newTestService(&fakeEmbedder{vectors: vectors}, nil, nil)

	res, err := svc.Detect(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Communities) != 2 {
		t.Fatalf("expected 2 communities, got %+v", res)
	}
	for _, c := range res.Communities {
		if c.Size != 3 {
			t.Fatalf("expected communities of 3, got %d", c.Size)
		}
	}
}

func TestEmbeddingInput(t *testing.T) {
	tests := []struct {
		actor common.Actor
		want  string
	}{
		{common.Actor{Name: "OpenAI", Category: common.CategoryStartup, Description: "Model lab"}, "OpenAI: Model lab"},
		{common.Actor{Name: "OpenAI", Category: common.CategoryStartup, Description: "  "}, "OpenAI: Startup"},
	}
	for _, tc := range tests {
		if got := EmbeddingInput(tc.actor); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestReconcile_IncludesPotentialConnections(t *testing.T) {
	req := ReconcileRequest{
		Actors: []common.Actor{
			{ID: "a", Name: "OpenAI", PotentialConnections: []common.PotentialConnection{
				{TargetActor: "Microsoft Corp", RelationshipType: "Funded By", Evidence: "2019 investment"},
			}},
			{ID: "m", Name: "Microsoft Corp."},
			{ID: "e", Name: "European Commission"},
		},
		Edges: []common.Edge{{ID: "h1", Source: "m", Target: "a"}},
		Claims: []common.FormalClaim{
			{SourceName: "european commission", TargetName: "OpenAI", Kind: "Regulates"},
		},
	}

	res, err := Reconcile(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(res.Edges))
	}
	up := res.Edges[0]
	if up.ID != "h1" || up.Source != "m" || up.Kind != "Funded By" || up.Provenance != common.ProvenanceFormal {
		t.Fatalf("expected h1 upgraded in place, got %+v", up)
	}
	added := res.Edges[1]
	if added.Source != "e" || added.Target != "a" || added.ID == "" {
		t.Fatalf("expected new e->a edge with id, got %+v", added)
	}
	if res.Stats.Upgraded != 1 || res.Stats.Added != 1 {
		t.Fatalf("expected 1 upgraded and 1 added, got %+v", res.Stats)
	}
}
