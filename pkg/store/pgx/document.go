package pgx

import (
	"context"

	"github.com/seekwell/atlas/pkg/store"
)

// ListDocuments returns every source document of the tenant's corpus.
// Coverage completion iterates this list, so the distinct-document
// identity here is the one per-document guarantees are counted against.
func (s *EvidenceDBStore) ListDocuments(ctx context.Context, groupID string) ([]store.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name
		FROM documents
		WHERE group_id = $1
		ORDER BY name, id`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var d store.Document
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
