package orchestrator

import (
	"context"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
)

// entityLocal retrieves the neighborhood of the entities named in the
// query: the text units mentioning them plus their one-hop related
// entities and relationships. When no entity name resolves, it falls
// back to a degree-ranked sample of the tenant's top entities so the
// route never dead-ends with an empty result.
func (o *Orchestrator) entityLocal(ctx context.Context, q evidence.Query) (*retrieval, error) {
	ev := evidence.NewSet(q.GroupID)
	ret := &retrieval{ev: ev, confidence: 1}

	names := ProperNounPhrases(q.Text)
	entities, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Entity, error) {
		return o.store.EntitiesByNames(ctx, q.GroupID, names)
	})
	if err != nil {
		return ret, err
	}

	if len(entities) == 0 {
		logger.Debug("no entity match, sampling by degree", "query", q.ID, "names", len(names))
		entities, err = util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Entity, error) {
			return o.store.TopEntitiesByDegree(ctx, q.GroupID, o.cfg.DegreeSampleSize)
		})
		if err != nil {
			return ret, err
		}
	}

	ids := make([]int64, 0, len(entities))
	for _, e := range entities {
		if err := ev.AddEntity(e); err != nil {
			return ret, err
		}
		ids = append(ids, e.ID)
	}

	units, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.TextUnit, error) {
		return o.store.UnitsForEntities(ctx, q.GroupID, ids, o.cfg.TopKUnits*len(ids))
	})
	if err != nil {
		return ret, err
	}
	if err := ev.AddUnits(units); err != nil {
		return ret, err
	}

	// one hop out: related entities and the relationships connecting them
	hood, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) (subgraph, error) {
		var sg subgraph
		var err error
		sg.entities, sg.relationships, err = o.store.Neighborhood(ctx, q.GroupID, ids, 1, o.cfg.MaxSubgraphSize)
		return sg, err
	})
	if err != nil {
		return ret, err
	}
	for _, e := range hood.entities {
		if err := ev.AddEntity(e); err != nil {
			return ret, err
		}
	}
	for _, r := range hood.relationships {
		if err := ev.AddRelationship(r); err != nil {
			return ret, err
		}
	}

	return ret, nil
}

// subgraph pairs the two halves of a Neighborhood result so it can pass
// through the single-value retry helper.
type subgraph struct {
	entities      []evidence.Entity
	relationships []evidence.Relationship
}
