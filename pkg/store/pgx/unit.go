package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/seekwell/atlas/pkg/evidence"
)

// SimilarUnits performs a vector similarity search over the tenant's text
// units. When documentID is non-empty the search is restricted to units
// of that document, which is how coverage completion guarantees
// per-document representation.
func (s *EvidenceDBStore) SimilarUnits(
	ctx context.Context,
	groupID string,
	embedding []float32,
	limit int,
	documentID string,
) ([]evidence.TextUnit, error) {
	embed := pgvector.NewVector(embedding)

	query := `
		SELECT u.public_id, u.content, u.group_id, u.document_id, u.document_name,
			u.section, u.page, 1 - (u.embedding <=> $2) AS similarity
		FROM units u
		WHERE u.group_id = $1 AND ($3 = '' OR u.document_id = $3)
		ORDER BY u.embedding <=> $2
		LIMIT $4`

	rows, err := s.conn.Query(ctx, query, groupID, embed, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []evidence.TextUnit
	for rows.Next() {
		var u evidence.TextUnit
		if err := rows.Scan(&u.ID, &u.Text, &u.GroupID, &u.DocumentID, &u.DocumentName, &u.Section, &u.Page, &u.Similarity); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// UnitsForEntities returns the text units connected to the given entities
// through mention edges, most-mentioned first.
func (s *EvidenceDBStore) UnitsForEntities(
	ctx context.Context,
	groupID string,
	entityIDs []int64,
	limit int,
) ([]evidence.TextUnit, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT u.public_id, u.content, u.group_id, u.document_id, u.document_name,
			u.section, u.page, 0 AS similarity
		FROM units u
		JOIN entity_units eu ON eu.unit_id = u.public_id
		WHERE u.group_id = $1 AND eu.entity_id = ANY($2::bigint[])
		GROUP BY u.public_id, u.content, u.group_id, u.document_id, u.document_name, u.section, u.page
		ORDER BY count(eu.entity_id) DESC, u.public_id
		LIMIT $3`,
		groupID, entityIDs, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []evidence.TextUnit
	for rows.Next() {
		var u evidence.TextUnit
		if err := rows.Scan(&u.ID, &u.Text, &u.GroupID, &u.DocumentID, &u.DocumentName, &u.Section, &u.Page, &u.Similarity); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
