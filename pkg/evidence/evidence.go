package evidence

// Query is a single natural-language question scoped to one tenant.
// It is immutable once accepted by the server; every retrieval issued on
// its behalf carries its GroupID.
type Query struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	GroupID       string `json:"group_id"`
	RouteOverride string `json:"route_override,omitempty"`
	ResponseShape string `json:"response_shape,omitempty"`
}

// Entity represents a node in the knowledge graph. An entity can be an
// organization, person, location, or any other relevant concept extracted
// by the ingestion pipeline. Degree is the number of relationships the
// entity participates in and is used for fallback sampling.
type Entity struct {
	ID        int64     `json:"id"`
	PublicID  string    `json:"public_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	GroupID   string    `json:"group_id"`
	Degree    int       `json:"degree"`
	Embedding []float32 `json:"-"`
}

// Relationship represents a directional edge between two entities.
// UnitID is the provenance text unit the relationship was extracted from.
type Relationship struct {
	ID          int64   `json:"id"`
	SourceID    int64   `json:"source_id"`
	TargetID    int64   `json:"target_id"`
	SourceName  string  `json:"source_name"`
	TargetName  string  `json:"target_name"`
	Description string  `json:"description"`
	Strength    float64 `json:"strength"`
	UnitID      string  `json:"unit_id"`
	GroupID     string  `json:"group_id"`
}

// TextUnit is a contiguous segment of text (sentence or chunk) from a
// source document. Units are the smallest retrievable blocks and serve as
// the provenance for every synthesized claim. Section distinguishes
// exhibits/attachments inside a document; units with different sections
// but the same DocumentID still belong to one document.
type TextUnit struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	GroupID      string  `json:"group_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Section      string  `json:"section,omitempty"`
	Page         int     `json:"page,omitempty"`
	Similarity   float64 `json:"similarity,omitempty"`
}

// Community is a pre-computed cluster of related entities with a generated
// summary, produced by offline clustering. The orchestrator only reads them.
type Community struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Members []string `json:"members"`
	GroupID string   `json:"group_id"`
}

// Hop is one scored step in an evidence path produced by graph expansion.
type Hop struct {
	Relationship Relationship `json:"relationship"`
	Score        float64      `json:"score"`
}

// SubQuestion is one fragment of a decomposed multi-hop query. Seeds are
// the entities discovered in its text; Path is the ranked evidence path
// collected by graph expansion from those seeds; Frontier holds the
// highest-ranked non-seed entity ids, the ones worth pulling text units
// for. Confidence is in [0,1].
type SubQuestion struct {
	Text       string   `json:"text"`
	Seeds      []Entity `json:"seeds"`
	Path       []Hop    `json:"path"`
	Frontier   []int64  `json:"frontier,omitempty"`
	Confidence float64  `json:"confidence"`
}

// SeedCount reports how many seed entities were discovered across all
// sub-questions.
func SeedCount(subs []SubQuestion) int {
	n := 0
	for _, sq := range subs {
		n += len(sq.Seeds)
	}
	return n
}
