package graph

import (
	"sort"

	"github.com/seekwell/atlas/pkg/evidence"
)

// Graph is an in-memory view of a fetched subgraph, built per query from
// the entities and relationships the store returned for a seed set. It is
// small (bounded by the traversal limits) and read-only once built.
type Graph struct {
	entities map[int64]evidence.Entity
	rels     []evidence.Relationship
	adjacent map[int64][]int64
}

// Build constructs a Graph from store results. Relationships referencing
// entities outside the provided set are kept; their endpoints simply have
// no entity record attached.
func Build(entities []evidence.Entity, rels []evidence.Relationship) *Graph {
	g := &Graph{
		entities: make(map[int64]evidence.Entity, len(entities)),
		rels:     rels,
		adjacent: make(map[int64][]int64),
	}
	for _, e := range entities {
		g.entities[e.ID] = e
	}
	for _, r := range rels {
		g.adjacent[r.SourceID] = append(g.adjacent[r.SourceID], r.TargetID)
		g.adjacent[r.TargetID] = append(g.adjacent[r.TargetID], r.SourceID)
	}
	return g
}

// Entity returns the entity with the given id, if present.
func (g *Graph) Entity(id int64) (evidence.Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// Size returns the number of entities in the graph.
func (g *Graph) Size() int {
	return len(g.entities)
}

const (
	defaultDamping    = 0.85
	defaultIterations = 20
)

// PersonalizedRank scores every node in the graph by its relevance to the
// seed set using a power-iteration random walk with restart. Restart mass
// is distributed uniformly over the seeds, so scores concentrate around
// them and decay with hop distance. Seeds absent from the graph
// contribute nothing.
func (g *Graph) PersonalizedRank(seedIDs []int64) map[int64]float64 {
	present := make([]int64, 0, len(seedIDs))
	for _, id := range seedIDs {
		if _, ok := g.adjacent[id]; ok {
			present = append(present, id)
		} else if _, ok := g.entities[id]; ok {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return nil
	}

	restart := make(map[int64]float64, len(present))
	for _, id := range present {
		restart[id] = 1.0 / float64(len(present))
	}

	scores := make(map[int64]float64, len(g.entities))
	for id, w := range restart {
		scores[id] = w
	}

	for i := 0; i < defaultIterations; i++ {
		next := make(map[int64]float64, len(scores))
		for id, w := range restart {
			next[id] += (1 - defaultDamping) * w
		}
		for id, score := range scores {
			neighbors := g.adjacent[id]
			if len(neighbors) == 0 {
				// Dangling mass restarts at the seeds.
				for sid, w := range restart {
					next[sid] += defaultDamping * score * w
				}
				continue
			}
			share := defaultDamping * score / float64(len(neighbors))
			for _, n := range neighbors {
				next[n] += share
			}
		}
		scores = next
	}

	return scores
}

// RankedHops orders the graph's relationships by the combined rank of
// their endpoints and returns the top limit as an evidence path. The path
// is the ordered list of hops multi-hop retrieval hands to synthesis.
func (g *Graph) RankedHops(scores map[int64]float64, limit int) []evidence.Hop {
	if len(scores) == 0 || len(g.rels) == 0 {
		return nil
	}

	hops := make([]evidence.Hop, 0, len(g.rels))
	for _, r := range g.rels {
		score := scores[r.SourceID] + scores[r.TargetID]
		if score == 0 {
			continue
		}
		hops = append(hops, evidence.Hop{Relationship: r, Score: score})
	}

	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].Score != hops[j].Score {
			return hops[i].Score > hops[j].Score
		}
		return hops[i].Relationship.ID < hops[j].Relationship.ID
	})

	if limit > 0 && len(hops) > limit {
		hops = hops[:limit]
	}
	return hops
}

// TopEntities returns the limit highest-ranked entity ids, excluding the
// seeds themselves.
func (g *Graph) TopEntities(scores map[int64]float64, seedIDs []int64, limit int) []int64 {
	seeds := make(map[int64]bool, len(seedIDs))
	for _, id := range seedIDs {
		seeds[id] = true
	}

	ids := make([]int64, 0, len(scores))
	for id := range scores {
		if seeds[id] {
			continue
		}
		if _, ok := g.entities[id]; !ok {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
