package store

import (
	"context"

	"github.com/seekwell/atlas/pkg/evidence"
)

// Document identifies one source document in a tenant's corpus.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EvidenceStore defines the read interface over the pre-built knowledge
// graph and vector index. The ingestion pipeline owns the write path;
// this subsystem only queries. Every method is scoped by groupID and must
// never return data belonging to another tenant.
type EvidenceStore interface {
	// EntitiesByNames resolves entity names mentioned in a query against
	// the graph using exact and fuzzy matching.
	EntitiesByNames(ctx context.Context, groupID string, names []string) ([]evidence.Entity, error)

	// TopEntitiesByDegree returns the most connected entities of the
	// tenant's graph, used as a fallback sample when name resolution or
	// community matching comes up empty.
	TopEntitiesByDegree(ctx context.Context, groupID string, limit int) ([]evidence.Entity, error)

	// SimilarCommunities ranks pre-computed community summaries against a
	// query embedding and returns the closest ones.
	SimilarCommunities(ctx context.Context, groupID string, embedding []float32, limit int) ([]evidence.Community, error)

	// SimilarUnits performs a vector similarity search over text units.
	// When documentID is non-empty the search is restricted to units of
	// that document.
	SimilarUnits(ctx context.Context, groupID string, embedding []float32, limit int, documentID string) ([]evidence.TextUnit, error)

	// UnitsForEntities returns the text units connected to the given
	// entities via mention edges.
	UnitsForEntities(ctx context.Context, groupID string, entityIDs []int64, limit int) ([]evidence.TextUnit, error)

	// Neighborhood loads the subgraph reachable from the seed entities
	// within maxHops hops, bounded by maxSize relationships.
	Neighborhood(ctx context.Context, groupID string, seedIDs []int64, maxHops, maxSize int) ([]evidence.Entity, []evidence.Relationship, error)

	// ListDocuments returns all source documents of the tenant's corpus.
	ListDocuments(ctx context.Context, groupID string) ([]Document, error)

	// HasGraphData reports whether the tenant has any queryable entities.
	HasGraphData(ctx context.Context, groupID string) (bool, error)

	// HasCommunityData reports whether the tenant has any pre-computed
	// community summaries.
	HasCommunityData(ctx context.Context, groupID string) (bool, error)
}
