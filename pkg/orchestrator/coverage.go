package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
	"github.com/seekwell/atlas/pkg/store"
)

// completeCoverage guarantees minimum per-document representation for
// enumerative and comparative queries. For every document in the tenant's
// corpus it runs one similarity search restricted to that document, in
// parallel, and adds up to M previously unseen units to the evidence set.
// Pure similarity ranking concentrates on a few documents; enumeration
// over the corpus needs every document in the evidence, even when its
// best unit ranks below the global top-k.
func (o *Orchestrator) completeCoverage(ctx context.Context, q evidence.Query, ev *evidence.Set) error {
	wanted := o.cfg.CoverageUnitsWanted
	if HasComprehensiveIntent(q.Text) {
		wanted = o.cfg.ComprehensiveUnits
	}

	docs, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]store.Document, error) {
		return o.store.ListDocuments(ctx, q.GroupID)
	})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	embedding, err := o.ai.GenerateEmbedding(ctx, []byte(q.Text))
	if err != nil {
		return err
	}

	// fan out per document; the set is filled only after the fan-in
	// because it is not safe for concurrent use
	var mu sync.Mutex
	found := make(map[string][]evidence.TextUnit, len(docs))

	group, gctx := errgroup.WithContext(ctx)
	for _, doc := range docs {
		group.Go(func() error {
			units, err := util.RetryBackoff(gctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.TextUnit, error) {
				return o.store.SimilarUnits(ctx, q.GroupID, embedding, wanted+o.cfg.TopKUnits, doc.ID)
			})
			if err != nil {
				return err
			}
			mu.Lock()
			found[doc.ID] = units
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	counts := ev.UnitsPerDocument()
	added := 0
	for _, doc := range docs {
		have := counts[doc.ID]
		for _, u := range found[doc.ID] {
			if have >= wanted {
				break
			}
			if ev.HasUnit(u.ID) {
				continue
			}
			if err := ev.AddUnit(u); err != nil {
				return err
			}
			have++
			added++
		}
	}
	if added > 0 {
		logger.Debug("coverage completion added units", "query", q.ID, "added", added, "documents", len(docs))
	}
	return nil
}
