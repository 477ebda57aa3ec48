package graph

import (
	"testing"

	"github.com/seekwell/atlas/pkg/evidence"
)

// chain builds a path graph 1-2-3-...-n.
func chain(n int) *Graph {
	var entities []evidence.Entity
	var rels []evidence.Relationship
	for i := int64(1); i <= int64(n); i++ {
		entities = append(entities, evidence.Entity{ID: i, Name: "E", GroupID: "g"})
	}
	for i := int64(1); i < int64(n); i++ {
		rels = append(rels, evidence.Relationship{
			ID: i, SourceID: i, TargetID: i + 1, GroupID: "g",
		})
	}
	return Build(entities, rels)
}

func TestPersonalizedRank_ConcentratesNearSeeds(t *testing.T) {
	g := chain(6)

	scores := g.PersonalizedRank([]int64{1})
	if len(scores) == 0 {
		t.Fatal("expected non-empty scores")
	}

	// Rank must decay with hop distance from the seed.
	if scores[2] >= scores[1] {
		t.Fatalf("expected seed to outrank its neighbor: seed=%f neighbor=%f", scores[1], scores[2])
	}
	if scores[5] >= scores[2] {
		t.Fatalf("expected distant node to rank below near node: near=%f far=%f", scores[2], scores[5])
	}
}

func TestPersonalizedRank_NoSeedsInGraph(t *testing.T) {
	g := chain(3)
	if scores := g.PersonalizedRank([]int64{99}); scores != nil {
		t.Fatalf("expected nil scores for unknown seeds, got %v", scores)
	}
}

func TestPersonalizedRank_MultipleSeeds(t *testing.T) {
	g := chain(5)
	scores := g.PersonalizedRank([]int64{1, 5})

	// Both ends are seeded, the middle should score lowest among seeds' ends.
	if scores[3] >= scores[1] || scores[3] >= scores[5] {
		t.Fatalf("expected middle node below both seeds: %v", scores)
	}
}

func TestRankedHops_OrderAndLimit(t *testing.T) {
	g := chain(5)
	scores := g.PersonalizedRank([]int64{1})

	hops := g.RankedHops(scores, 2)
	if len(hops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(hops))
	}
	if hops[0].Score < hops[1].Score {
		t.Fatal("expected hops ordered by descending score")
	}
	// The hop adjacent to the seed must come first.
	if hops[0].Relationship.ID != 1 {
		t.Fatalf("expected relationship 1 first, got %d", hops[0].Relationship.ID)
	}
}

func TestTopEntities_ExcludesSeeds(t *testing.T) {
	g := chain(4)
	scores := g.PersonalizedRank([]int64{1})

	top := g.TopEntities(scores, []int64{1}, 10)
	for _, id := range top {
		if id == 1 {
			t.Fatal("seed must not appear in top entities")
		}
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(top))
	}
	if top[0] != 2 {
		t.Fatalf("expected entity 2 ranked first, got %d", top[0])
	}
}
