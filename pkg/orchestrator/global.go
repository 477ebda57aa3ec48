package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
)

// mappedClaim is one statement a community summary contributes toward the
// answer, with a model-assigned relevance from 0 to 100.
type mappedClaim struct {
	Text      string `json:"text"`
	Relevance int    `json:"relevance"`
}

// communityClaims holds the map-step output for one community.
type communityClaims struct {
	Community evidence.Community
	Claims    []mappedClaim
}

type mapOutput struct {
	Claims []mappedClaim `json:"claims"`
}

// communityGlobal answers thematic queries with map-reduce over community
// summaries: the top-N communities by embedding similarity each go through
// an independent claim-extraction pass, in parallel. The reduce step runs
// later, inside synthesis, so coverage completion can add evidence in
// between. A community whose map pass fails is skipped, not fatal; the
// route only fails when every pass fails.
func (o *Orchestrator) communityGlobal(ctx context.Context, q evidence.Query) (*retrieval, error) {
	ev := evidence.NewSet(q.GroupID)
	ret := &retrieval{ev: ev, confidence: 1}

	embedding, err := o.ai.GenerateEmbedding(ctx, []byte(q.Text))
	if err != nil {
		return ret, err
	}

	communities, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Community, error) {
		return o.store.SimilarCommunities(ctx, q.GroupID, embedding, o.cfg.TopNCommunities)
	})
	if err != nil {
		return ret, err
	}
	for _, c := range communities {
		if err := ev.AddCommunity(c); err != nil {
			return ret, err
		}
	}

	if coveredEntities(communities) < 2 {
		if err := o.extendFromDegreeSample(ctx, q, ev); err != nil {
			return ret, err
		}
	}
	if len(communities) == 0 {
		// reduce can still work from the sampled document excerpts
		return ret, nil
	}

	var mu sync.Mutex
	var failed int
	claims := make([]communityClaims, 0, len(communities))

	group, gctx := errgroup.WithContext(ctx)
	for _, c := range communities {
		group.Go(func() error {
			prompt := fmt.Sprintf(ai.CommunityMapPrompt, q.Text, c.Title, c.Summary)
			var out mapOutput
			err := o.ai.GenerateCompletionWithFormat(gctx,
				"community_claims",
				"Claims extracted from one community summary, rated by relevance.",
				prompt, &out, ai.WithTemperature(0))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("community map pass failed", "query", q.ID, "community", c.Title, "err", err)
				failed++
				return nil
			}
			if len(out.Claims) > 0 {
				claims = append(claims, communityClaims{Community: c, Claims: out.Claims})
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ret, err
	}
	if failed == len(communities) {
		return ret, fmt.Errorf("all %d community map passes failed", failed)
	}

	ret.claims = claims
	return ret, nil
}

// coveredEntities counts the distinct entities the matched communities
// span. A thin match gets extended with sampled evidence before mapping.
func coveredEntities(communities []evidence.Community) int {
	seen := make(map[string]struct{})
	for _, c := range communities {
		for _, m := range c.Members {
			seen[strings.ToLower(m)] = struct{}{}
		}
	}
	return len(seen)
}

// extendFromDegreeSample pulls the tenant's most connected entities and
// their mention units into the evidence set, so the reduce step has
// material even when community matching comes back near-empty.
func (o *Orchestrator) extendFromDegreeSample(ctx context.Context, q evidence.Query, ev *evidence.Set) error {
	sample, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Entity, error) {
		return o.store.TopEntitiesByDegree(ctx, q.GroupID, o.cfg.DegreeSampleSize)
	})
	if err != nil {
		return err
	}
	if len(sample) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(sample))
	for _, e := range sample {
		if err := ev.AddEntity(e); err != nil {
			return err
		}
		ids = append(ids, e.ID)
	}

	units, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.TextUnit, error) {
		return o.store.UnitsForEntities(ctx, q.GroupID, ids, o.cfg.TopKUnits*len(ids))
	})
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := ev.AddUnit(u); err != nil {
			return err
		}
	}
	logger.Debug("extended thin community match with degree sample", "query", q.ID, "entities", len(sample), "units", len(units))
	return nil
}
