package pgx

import (
	"context"

	"github.com/seekwell/atlas/pkg/evidence"
)

// Neighborhood loads the subgraph reachable from the seed entities within
// maxHops hops. The traversal is bounded twice: by hop count in the
// recursive CTE and by maxSize on the number of relationships returned,
// so a highly connected seed cannot pull in the whole graph.
func (s *EvidenceDBStore) Neighborhood(
	ctx context.Context,
	groupID string,
	seedIDs []int64,
	maxHops, maxSize int,
) ([]evidence.Entity, []evidence.Relationship, error) {
	if len(seedIDs) == 0 {
		return nil, nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH RECURSIVE reachable AS (
			SELECT r.id, r.source_id, r.target_id, 1 AS hops
			FROM relationships r
			WHERE r.group_id = $1
				AND (r.source_id = ANY($2::bigint[]) OR r.target_id = ANY($2::bigint[]))
			UNION
			SELECT r.id, r.source_id, r.target_id, re.hops + 1
			FROM relationships r
			JOIN reachable re ON
				r.source_id = re.target_id OR r.target_id = re.source_id
				OR r.source_id = re.source_id OR r.target_id = re.target_id
			WHERE r.group_id = $1 AND re.hops < $3
		)
		SELECT DISTINCT ON (r.id)
			r.id, r.source_id, r.target_id, se.name, te.name,
			r.description, r.strength, r.unit_id, r.group_id
		FROM reachable re
		JOIN relationships r ON r.id = re.id
		JOIN entities se ON se.id = r.source_id
		JOIN entities te ON te.id = r.target_id
		ORDER BY r.id
		LIMIT $4`,
		groupID, seedIDs, maxHops, maxSize,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var rels []evidence.Relationship
	entityIDs := make(map[int64]bool)
	for rows.Next() {
		var r evidence.Relationship
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.SourceName, &r.TargetName,
			&r.Description, &r.Strength, &r.UnitID, &r.GroupID); err != nil {
			return nil, nil, err
		}
		rels = append(rels, r)
		entityIDs[r.SourceID] = true
		entityIDs[r.TargetID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(entityIDs))
	for id := range entityIDs {
		ids = append(ids, id)
	}
	for _, id := range seedIDs {
		if !entityIDs[id] {
			ids = append(ids, id)
		}
	}

	entities, err := s.entitiesByIDs(ctx, groupID, ids)
	if err != nil {
		return nil, nil, err
	}
	return entities, rels, nil
}

func (s *EvidenceDBStore) entitiesByIDs(
	ctx context.Context,
	groupID string,
	ids []int64,
) ([]evidence.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, public_id, name, type, group_id, degree
		FROM entities
		WHERE group_id = $1 AND id = ANY($2::bigint[])
		ORDER BY id`,
		groupID, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []evidence.Entity
	for rows.Next() {
		var e evidence.Entity
		if err := rows.Scan(&e.ID, &e.PublicID, &e.Name, &e.Type, &e.GroupID, &e.Degree); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
