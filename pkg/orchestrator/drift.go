package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/graph"
	"github.com/seekwell/atlas/pkg/logger"
)

type decomposeOutput struct {
	SubQuestions []string `json:"sub_questions"`
}

// multiHop answers complex queries by decomposing them into sub-questions,
// discovering seed entities per sub-question, and tracing a ranked
// evidence path outward from each seed set. When the traced result scores
// below the confidence threshold and the seeds concentrate on a single
// sub-question, the seedless sub-questions are regenerated once and
// re-traced; there is never a second refinement pass.
func (o *Orchestrator) multiHop(ctx context.Context, q evidence.Query) (*retrieval, error) {
	ev := evidence.NewSet(q.GroupID)
	ret := &retrieval{ev: ev}

	subs, err := o.decompose(ctx, q)
	if err != nil {
		return ret, err
	}

	if err := o.seedAndTrace(ctx, q, subs, allSubs(subs)); err != nil {
		return ret, err
	}

	score := ConfidenceScore(subs, o.cfg.MaxPathLength)
	logger.Debug("seed discovery complete",
		"query", q.ID, "sub_questions", len(subs), "seeds", evidence.SeedCount(subs), "score", score)
	if score < o.cfg.ConfidenceThreshold && Concentrated(subs) && o.cfg.MaxRefinements > 0 {
		logger.Info("refining over-fragmented decomposition", "query", q.ID, "score", score)
		if err := o.refineOnce(ctx, q, subs); err != nil {
			logger.Warn("refinement failed, keeping original decomposition", "query", q.ID, "err", err)
		}
		score = ConfidenceScore(subs, o.cfg.MaxPathLength)
		ret.refined = true
	}
	ret.confidence = score

	for i := range subs {
		if err := o.collect(ctx, q, ev, &subs[i]); err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// decompose splits the query into 2 to 5 sub-questions.
func (o *Orchestrator) decompose(ctx context.Context, q evidence.Query) ([]evidence.SubQuestion, error) {
	var out decomposeOutput
	err := o.ai.GenerateCompletionWithFormat(ctx,
		"sub_questions",
		"Independent sub-questions covering the original question.",
		fmt.Sprintf(ai.DecomposePrompt, q.Text), &out, ai.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("decomposition failed: %w", err)
	}
	if len(out.SubQuestions) == 0 {
		// the query itself becomes the single sub-question
		out.SubQuestions = []string{q.Text}
	}
	if len(out.SubQuestions) > o.cfg.MaxSubQuestions {
		out.SubQuestions = out.SubQuestions[:o.cfg.MaxSubQuestions]
	}

	subs := make([]evidence.SubQuestion, len(out.SubQuestions))
	for i, text := range out.SubQuestions {
		subs[i] = evidence.SubQuestion{Text: text}
	}
	return subs, nil
}

// seedAndTrace runs seed discovery and graph tracing for the sub-questions
// at the given indices, concurrently. Results land in subs in place; the
// fan-in happens before return, so no later stage sees partial state.
func (o *Orchestrator) seedAndTrace(ctx context.Context, q evidence.Query, subs []evidence.SubQuestion, indices []int) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, i := range indices {
		group.Go(func() error {
			sq := &subs[i]

			seeds, err := o.discoverSeeds(gctx, q.GroupID, sq.Text)
			if err != nil {
				return err
			}
			sq.Seeds = seeds
			sq.Path = nil
			sq.Frontier = nil

			if len(seeds) == 0 {
				sq.Confidence = 0
				return nil
			}
			if err := o.trace(gctx, q.GroupID, sq); err != nil {
				return err
			}
			sq.Confidence = subConfidence(*sq, o.cfg.MaxPathLength)
			return nil
		})
	}
	return group.Wait()
}

// discoverSeeds resolves the proper-noun fragments of a sub-question
// against the graph. A sub-question without any proper noun legitimately
// yields no seeds; the confidence controller deals with that.
func (o *Orchestrator) discoverSeeds(ctx context.Context, groupID, text string) ([]evidence.Entity, error) {
	names := ProperNounPhrases(text)
	if len(names) == 0 {
		return nil, nil
	}
	return util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Entity, error) {
		return o.store.EntitiesByNames(ctx, groupID, names)
	})
}

// trace expands the graph around the sub-question's seeds and keeps the
// hops ranked highest by a personalized random walk from those seeds.
func (o *Orchestrator) trace(ctx context.Context, groupID string, sq *evidence.SubQuestion) error {
	seedIDs := make([]int64, len(sq.Seeds))
	for i, e := range sq.Seeds {
		seedIDs[i] = e.ID
	}

	hood, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) (subgraph, error) {
		var sg subgraph
		var err error
		sg.entities, sg.relationships, err = o.store.Neighborhood(ctx, groupID, seedIDs, o.cfg.MaxHops, o.cfg.MaxSubgraphSize)
		return sg, err
	})
	if err != nil {
		return err
	}

	g := graph.Build(hood.entities, hood.relationships)
	scores := g.PersonalizedRank(seedIDs)
	sq.Path = g.RankedHops(scores, o.cfg.MaxPathLength)
	sq.Frontier = g.TopEntities(scores, seedIDs, o.cfg.DegreeSampleSize)
	return nil
}

// collect folds one traced sub-question into the shared evidence set: its
// seeds, the relationships on its path, and the text units mentioning the
// seeds and the ranked frontier entities.
func (o *Orchestrator) collect(ctx context.Context, q evidence.Query, ev *evidence.Set, sq *evidence.SubQuestion) error {
	ids := make([]int64, 0, len(sq.Seeds)+len(sq.Frontier))
	for _, e := range sq.Seeds {
		if err := ev.AddEntity(e); err != nil {
			return err
		}
		ids = append(ids, e.ID)
	}
	for _, hop := range sq.Path {
		if err := ev.AddRelationship(hop.Relationship); err != nil {
			return err
		}
	}
	ids = append(ids, sq.Frontier...)
	if len(ids) == 0 {
		return nil
	}

	units, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.TextUnit, error) {
		return o.store.UnitsForEntities(ctx, q.GroupID, ids, o.cfg.TopKUnits)
	})
	if err != nil {
		return err
	}
	return ev.AddUnits(units)
}

// refineOnce regenerates the sub-questions that found no seeds, grounding
// the rewrite on a degree-ranked sample of the tenant's entity names, then
// re-runs discovery and tracing for those sub-questions only. Any that
// stay abstract a second time get the degree sample itself as seeds, so
// refinement never leaves a sub-question silently unresolved.
func (o *Orchestrator) refineOnce(ctx context.Context, q evidence.Query, subs []evidence.SubQuestion) error {
	var empty []int
	for i, sq := range subs {
		if len(sq.Seeds) == 0 {
			empty = append(empty, i)
		}
	}
	if len(empty) == 0 {
		return nil
	}

	sample, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.Entity, error) {
		return o.store.TopEntitiesByDegree(ctx, q.GroupID, o.cfg.DegreeSampleSize)
	})
	if err != nil {
		return err
	}

	names := make([]string, len(sample))
	for i, e := range sample {
		names[i] = e.Name
	}
	var listed strings.Builder
	for _, i := range empty {
		fmt.Fprintf(&listed, "- %s\n", subs[i].Text)
	}

	var out decomposeOutput
	err = o.ai.GenerateCompletionWithFormat(ctx,
		"sub_questions",
		"Rewritten sub-questions naming concrete entities.",
		fmt.Sprintf(ai.RefineSubQuestionsPrompt, q.Text, listed.String(), strings.Join(names, ", ")),
		&out, ai.WithTemperature(0))
	if err != nil {
		return err
	}

	for j, i := range empty {
		if j < len(out.SubQuestions) && strings.TrimSpace(out.SubQuestions[j]) != "" {
			subs[i].Text = strings.TrimSpace(out.SubQuestions[j])
		}
	}

	if err := o.seedAndTrace(ctx, q, subs, empty); err != nil {
		return err
	}

	// still-empty sub-questions fall back to the degree sample as seeds
	var redo []int
	for _, i := range empty {
		if len(subs[i].Seeds) == 0 && len(sample) > 0 {
			subs[i].Seeds = sample
			redo = append(redo, i)
		}
	}
	if len(redo) == 0 {
		return nil
	}
	group, gctx := errgroup.WithContext(ctx)
	for _, i := range redo {
		group.Go(func() error {
			sq := &subs[i]
			if err := o.trace(gctx, q.GroupID, sq); err != nil {
				return err
			}
			sq.Confidence = subConfidence(*sq, o.cfg.MaxPathLength)
			return nil
		})
	}
	return group.Wait()
}

// allSubs returns the index list covering every sub-question.
func allSubs(subs []evidence.SubQuestion) []int {
	indices := make([]int, len(subs))
	for i := range subs {
		indices[i] = i
	}
	return indices
}
