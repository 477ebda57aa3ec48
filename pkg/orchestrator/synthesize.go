package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
)

// synthesize turns a retrieval into the final answer and citation list.
// Fast-lookup retrievals arrive with the answer already produced and only
// need citation resolution. Community-global retrievals run their reduce
// step here, after coverage completion has had its chance to add units.
// Everything else goes through one grounded completion over the evidence
// set, with a single retry on a grounding violation.
func (o *Orchestrator) synthesize(ctx context.Context, q evidence.Query, route Route, ret *retrieval) (string, []evidence.Citation, error) {
	if ret.answer != "" {
		answer, citations, _ := extractCitations(ret.answer, ret.ev)
		return answer, citations, nil
	}

	if route == RouteCommunityGlobal {
		return o.reduceClaims(ctx, q, ret)
	}

	if ret.ev.Empty() {
		return o.noDataAnswer(ctx, q), nil, nil
	}

	block, err := o.evidenceBlock(q, ret.ev)
	if err != nil {
		return "", nil, err
	}

	prompt := fmt.Sprintf(ai.SynthesisPrompt, block)
	raw, err := o.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0))
	if err != nil {
		return "", nil, fmt.Errorf("synthesis failed: %w", err)
	}

	answer, citations, unresolved := extractCitations(raw, ret.ev)
	if len(unresolved) == 0 {
		return answer, citations, nil
	}

	// one grounding retry, then "not specified" instead of an ungrounded
	// claim
	logger.Warn("answer cited unknown evidence, retrying synthesis", "query", q.ID, "unresolved", unresolved)
	raw, err = o.ai.GenerateCompletion(ctx, prompt,
		ai.WithSystemPrompts(ai.GroundingRetryPrompt),
		ai.WithTemperature(0))
	if err != nil {
		return "", nil, fmt.Errorf("synthesis retry failed: %w", err)
	}
	answer, citations, unresolved = extractCitations(raw, ret.ev)
	if len(unresolved) > 0 {
		logger.Error("answer still not grounded after retry", "query", q.ID, "unresolved", unresolved)
		return NotSpecifiedAnswer, nil, nil
	}
	return answer, citations, nil
}

// evidenceBlock renders the evidence set as the background-data section of
// the synthesis prompt, fitted to the token budget. Text units come
// first because only they can be cited; graph and community context
// follows with whatever budget remains.
func (o *Orchestrator) evidenceBlock(q evidence.Query, ev *evidence.Set) (string, error) {
	lines := make([]string, 0, len(ev.Units)+len(ev.Relationships)+len(ev.Entities)+len(ev.Communities)+1)
	lines = append(lines, fmt.Sprintf("User question: %q\n\nEvidence items:", q.Text))

	for _, u := range ev.Units {
		loc := u.DocumentName
		if u.Section != "" {
			loc += ", " + u.Section
		}
		if u.Page > 0 {
			loc += fmt.Sprintf(", p.%d", u.Page)
		}
		lines = append(lines, fmt.Sprintf("[%s] (%s) %s", u.ID, loc, u.Text))
	}
	for _, r := range ev.Relationships {
		lines = append(lines, fmt.Sprintf("[rel-%d] %s -> %s: %s", r.ID, r.SourceName, r.TargetName, r.Description))
	}
	for _, e := range ev.Entities {
		lines = append(lines, fmt.Sprintf("[entity-%d] %s (%s)", e.ID, e.Name, e.Type))
	}
	for _, c := range ev.Communities {
		lines = append(lines, fmt.Sprintf("[community-%d] %s: %s", c.ID, c.Title, c.Summary))
	}

	block, included, err := ai.FitLines(lines, o.cfg.SynthesisTokens)
	if err != nil {
		return "", err
	}
	if included < len(lines) {
		logger.Debug("evidence truncated to token budget", "query", q.ID, "included", included, "total", len(lines))
	}
	return block, nil
}

// reduceClaims merges the per-community claim sets into one narrative.
// Units added by coverage completion join the claims block as citable
// document excerpts.
func (o *Orchestrator) reduceClaims(ctx context.Context, q evidence.Query, ret *retrieval) (string, []evidence.Citation, error) {
	if len(ret.claims) == 0 && ret.ev.Empty() {
		return o.noDataAnswer(ctx, q), nil, nil
	}
	if len(ret.claims) == 0 && len(ret.ev.Units) == 0 {
		return NotSpecifiedAnswer, nil, nil
	}

	var block strings.Builder
	for _, cc := range ret.claims {
		fmt.Fprintf(&block, "## %s\n", cc.Community.Title)
		for _, claim := range cc.Claims {
			fmt.Fprintf(&block, "- %s (relevance %d)\n", claim.Text, claim.Relevance)
		}
	}
	if len(ret.ev.Units) > 0 {
		block.WriteString("## Document excerpts\n")
		for _, u := range ret.ev.Units {
			fmt.Fprintf(&block, "- [[%s]] (%s) %s\n", u.ID, u.DocumentName, u.Text)
		}
	}

	prompt := fmt.Sprintf(ai.CommunityReducePrompt, q.Text, block.String())
	raw, err := o.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0))
	if err != nil {
		return "", nil, fmt.Errorf("community reduce failed: %w", err)
	}

	answer, citations, _ := extractCitations(raw, ret.ev)
	if strings.TrimSpace(answer) == "" {
		answer = NotSpecifiedAnswer
	}
	return answer, citations, nil
}

// noDataAnswer produces the polite "nothing here" response in the
// language of the question. A model failure falls back to the canonical
// answer text rather than failing the query.
func (o *Orchestrator) noDataAnswer(ctx context.Context, q evidence.Query) string {
	answer, err := o.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, q.Text), ai.WithTemperature(0))
	if err != nil || strings.TrimSpace(answer) == "" {
		return NotSpecifiedAnswer
	}
	return strings.TrimSpace(answer)
}
