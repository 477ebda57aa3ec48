package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
)

// fastLookup answers simple factual queries in two tiers. Tier one is
// deterministic pattern extraction over the top-k vector-similar text
// units: no model calls, reproducible, and it never fails. Tier two is a
// single temperature-0 completion over the same excerpts. Both tiers
// answer "not specified" rather than guessing when no grounded value
// exists; tier-two errors propagate so the dispatcher can fall back.
func (o *Orchestrator) fastLookup(ctx context.Context, q evidence.Query) (*retrieval, error) {
	ev := evidence.NewSet(q.GroupID)
	ret := &retrieval{ev: ev, confidence: 1}

	embedding, err := o.ai.GenerateEmbedding(ctx, []byte(q.Text))
	if err != nil {
		return ret, err
	}

	units, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) ([]evidence.TextUnit, error) {
		return o.store.SimilarUnits(ctx, q.GroupID, embedding, o.cfg.TopKUnits, "")
	})
	if err != nil {
		return ret, err
	}
	if err := ev.AddUnits(units); err != nil {
		return ret, err
	}

	// tier one: pattern extraction, most similar unit first
	for _, u := range units {
		if v, ok := matchValue(q.Text, u.Text); ok {
			ret.answer = fmt.Sprintf("%s [[%s]]", v, u.ID)
			return ret, nil
		}
	}

	if len(units) == 0 {
		ret.answer = NotSpecifiedAnswer
		return ret, nil
	}

	// tier two: one deterministic completion over the excerpts
	var excerpts strings.Builder
	for _, u := range units {
		fmt.Fprintf(&excerpts, "[%s] (%s) %s\n", u.ID, u.DocumentName, u.Text)
	}

	prompt := fmt.Sprintf(ai.FastLookupPrompt, q.Text, excerpts.String())
	answer, err := o.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0))
	if err != nil {
		return ret, err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = NotSpecifiedAnswer
	}
	ret.answer = answer
	return ret, nil
}
