package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/seekwell/atlas/pkg/evidence"
)

// SimilarCommunities ranks the tenant's pre-computed community summaries
// by embedding similarity against the query. Matching runs over the
// summary embeddings, not raw member text.
func (s *EvidenceDBStore) SimilarCommunities(
	ctx context.Context,
	groupID string,
	embedding []float32,
	limit int,
) ([]evidence.Community, error) {
	embed := pgvector.NewVector(embedding)

	rows, err := s.conn.Query(ctx, `
		SELECT c.id, c.title, c.summary, c.members, c.group_id
		FROM communities c
		WHERE c.group_id = $1
		ORDER BY c.embedding <=> $2
		LIMIT $3`,
		groupID, embed, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var communities []evidence.Community
	for rows.Next() {
		var c evidence.Community
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &c.Members, &c.GroupID); err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// HasCommunityData reports whether the tenant has any community summaries.
func (s *EvidenceDBStore) HasCommunityData(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM communities WHERE group_id = $1)`,
		groupID,
	).Scan(&exists)
	return exists, err
}
