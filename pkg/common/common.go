package common

// Category is the free-form actor type as authored upstream, e.g.
// "Policymaker", "Civil Society" or "Algorithm". It is compared by substring
// and case-insensitively, never by exact value.
type Category string

const (
	CategoryStartup          Category = "Startup"
	CategoryPolicymaker      Category = "Policymaker"
	CategoryCivilSociety     Category = "Civil Society"
	CategoryAcademic         Category = "Academic"
	CategoryInfrastructure   Category = "Infrastructure"
	CategoryAlgorithm        Category = "Algorithm"
	CategoryDataset          Category = "Dataset"
	CategoryAlgorithmicAgent Category = "AlgorithmicAgent"
	CategoryLegalObject      Category = "LegalObject"
)

// Actor is a node of the assemblage graph. Identity is by ID; Name is a
// display string and is not assumed to be unique.
//
// PotentialConnections carries relationship claims an extraction step
// attached to the actor. They are only read by the link reconciler.
type Actor struct {
	ID                   string                `json:"id" validate:"required"`
	Name                 string                `json:"name" validate:"required"`
	Category             Category              `json:"category" validate:"required"`
	Description          string                `json:"description,omitempty"`
	PotentialConnections []PotentialConnection `json:"potential_connections,omitempty"`
}

// PotentialConnection is a relationship claim made from the perspective of
// the actor that holds it, naming its counterpart by free text.
type PotentialConnection struct {
	TargetActor      string `json:"target_actor"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Evidence         string `json:"evidence,omitempty"`
}

// Provenance tells which layer authored an edge.
type Provenance string

const (
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceFormal    Provenance = "formal"
)

// DefaultEdgeKind is used whenever an edge or claim arrives without a kind.
const DefaultEdgeKind = "Relates To"

// Edge is a relationship between two actors. Source and Target are kept as
// authored for display; clustering treats the edge as undirected.
type Edge struct {
	ID          string     `json:"id,omitempty"`
	Source      string     `json:"source" validate:"required"`
	Target      string     `json:"target" validate:"required"`
	Kind        string     `json:"kind,omitempty"`
	Label       string     `json:"label,omitempty"`
	Weight      float64    `json:"weight,omitempty" validate:"gte=0"`
	Description string     `json:"description,omitempty"`
	Provenance  Provenance `json:"provenance,omitempty"`
	Nature      string     `json:"nature,omitempty"`
	Analysis    *Analysis  `json:"analysis,omitempty"`
}

// Analysis is descriptive metadata a formal claim attaches to an edge.
type Analysis struct {
	MediatorScore   float64  `json:"mediator_score"`
	Classification  string   `json:"classification"`
	EmpiricalTraces []string `json:"empirical_traces"`
	Confidence      string   `json:"confidence,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// FormalClaim is a relationship asserted by an external extraction step.
// Source and target are free-text names; SourceID may be set when the claim
// was produced from a known actor's own connection list.
type FormalClaim struct {
	SourceID    string    `json:"source_id,omitempty"`
	SourceName  string    `json:"source_name"`
	TargetName  string    `json:"target_name" validate:"required"`
	Kind        string    `json:"kind,omitempty"`
	Description string    `json:"description,omitempty"`
	Analysis    *Analysis `json:"analysis,omitempty"`
}

// Community is one detected assemblage as reported to callers.
//
// MemberIDs are disjoint across the communities of one result.
// DiversityScore is always within [0,1].
type Community struct {
	ID             string           `json:"id"`
	Label          string           `json:"label"`
	Description    string           `json:"description"`
	MemberIDs      []string         `json:"member_ids"`
	Size           int              `json:"size"`
	DiversityScore float64          `json:"diversity_score"`
	HumanCount     int              `json:"human_count"`
	NonHumanCount  int              `json:"non_human_count"`
	CategoryCounts map[Category]int `json:"category_counts"`
}
