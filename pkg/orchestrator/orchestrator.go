package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seekwell/atlas/internal/timing"
	"github.com/seekwell/atlas/internal/util"
	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/logger"
	"github.com/seekwell/atlas/pkg/store"
)

// Config bounds every stage of the pipeline. Zero values fall back to the
// defaults from DefaultConfig.
type Config struct {
	TopKUnits           int     // vector hits per unit search
	TopNCommunities     int     // communities matched for the global route
	MaxSubQuestions     int     // decomposition upper bound
	MaxHops             int     // graph traversal depth per sub-question
	MaxSubgraphSize     int     // relationships fetched per traversal
	MaxPathLength       int     // hops kept in a sub-question's evidence path
	DegreeSampleSize    int     // entities in degree-ranked fallback samples
	ConfidenceThreshold float64 // refinement trigger
	MaxRefinements      int     // hard cap on refinement passes
	CoverageUnitsWanted int     // per-document minimum for enumerative queries
	ComprehensiveUnits  int     // per-document minimum for comprehensive queries
	SynthesisTokens     int     // token budget for the evidence block
	UpstreamTries       int     // attempts per idempotent read (1 retry)
	UpstreamBackoff     time.Duration
	DegradedTimeout     time.Duration // synthesis allowance after the query deadline
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TopKUnits:           8,
		TopNCommunities:     5,
		MaxSubQuestions:     5,
		MaxHops:             2,
		MaxSubgraphSize:     200,
		MaxPathLength:       20,
		DegreeSampleSize:    10,
		ConfidenceThreshold: 0.7,
		MaxRefinements:      1,
		CoverageUnitsWanted: 1,
		ComprehensiveUnits:  3,
		SynthesisTokens:     8000,
		UpstreamTries:       2,
		UpstreamBackoff:     250 * time.Millisecond,
		DegradedTimeout:     15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopKUnits <= 0 {
		c.TopKUnits = d.TopKUnits
	}
	if c.TopNCommunities <= 0 {
		c.TopNCommunities = d.TopNCommunities
	}
	if c.MaxSubQuestions <= 0 {
		c.MaxSubQuestions = d.MaxSubQuestions
	}
	if c.MaxHops <= 0 {
		c.MaxHops = d.MaxHops
	}
	if c.MaxSubgraphSize <= 0 {
		c.MaxSubgraphSize = d.MaxSubgraphSize
	}
	if c.MaxPathLength <= 0 {
		c.MaxPathLength = d.MaxPathLength
	}
	if c.DegreeSampleSize <= 0 {
		c.DegreeSampleSize = d.DegreeSampleSize
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.MaxRefinements <= 0 {
		c.MaxRefinements = d.MaxRefinements
	}
	if c.CoverageUnitsWanted <= 0 {
		c.CoverageUnitsWanted = d.CoverageUnitsWanted
	}
	if c.ComprehensiveUnits <= 0 {
		c.ComprehensiveUnits = d.ComprehensiveUnits
	}
	if c.SynthesisTokens <= 0 {
		c.SynthesisTokens = d.SynthesisTokens
	}
	if c.UpstreamTries <= 0 {
		c.UpstreamTries = d.UpstreamTries
	}
	if c.UpstreamBackoff <= 0 {
		c.UpstreamBackoff = d.UpstreamBackoff
	}
	if c.DegradedTimeout <= 0 {
		c.DegradedTimeout = d.DegradedTimeout
	}
	return c
}

// Orchestrator turns a query plus tenant into a grounded answer: it
// routes the query to one retrieval strategy, optionally refines a
// low-confidence multi-hop result once, supplements coverage for
// enumerative queries, and synthesizes a cited answer. The evidence
// stores are read-only dependencies injected at construction; an
// Orchestrator holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	store store.EvidenceStore
	ai    ai.GraphAIClient
	cfg   Config
}

// New creates an Orchestrator over the given evidence store and AI client.
func New(s store.EvidenceStore, aiClient ai.GraphAIClient, cfg Config) *Orchestrator {
	return &Orchestrator{
		store: s,
		ai:    aiClient,
		cfg:   cfg.withDefaults(),
	}
}

// retrieval is the intermediate product of a strategy: the gathered
// evidence, an answer already produced during retrieval (fast-lookup
// pattern hits), per-community claim sets awaiting the reduce step
// (community-global), and confidence metadata (multi-hop).
type retrieval struct {
	ev         *evidence.Set
	answer     string
	claims     []communityClaims
	confidence float64
	refined    bool
	partial    bool
}

// Run executes the full pipeline for one query:
//
//	received → routed → retrieving → [refining] → completing_coverage → synthesizing → done
//
// The refining stage runs at most once. A context deadline aborts the
// in-flight stage; if evidence was already gathered the response is
// degraded and flagged partial, otherwise the error is returned.
func (o *Orchestrator) Run(ctx context.Context, q evidence.Query, profile RouteProfile) (*evidence.SynthesisResult, error) {
	if q.GroupID == "" {
		return nil, fmt.Errorf("query has no tenant id")
	}

	sw := timing.Start()

	route, err := Dispatch(q, profile)
	if err != nil {
		return nil, err
	}

	if err := o.checkDataAvailable(ctx, q.GroupID, route); err != nil {
		return nil, err
	}

	stopRetrieval := sw.Stage("retrieval")
	ret, err := o.retrieve(ctx, q, route)
	if err != nil && route == RouteFastLookup && !errors.Is(err, evidence.ErrTenantMismatch) {
		// fast-lookup model failures fall through to the profile's
		// fallback route instead of failing the query; a tenant
		// violation is never retried on another route
		fb, fbErr := fallback(RouteMultiHop, profile)
		if fbErr == nil && fb != RouteFastLookup {
			if avErr := o.checkDataAvailable(ctx, q.GroupID, fb); avErr != nil {
				stopRetrieval()
				return nil, avErr
			}
			logger.Warn("fast lookup failed, falling back", "query", q.ID, "fallback", fb.String(), "err", err)
			route = fb
			ret, err = o.retrieve(ctx, q, route)
		}
	}
	if err != nil {
		// a retry-exhausted upstream failure degrades the response when
		// evidence is already in hand; only an empty set or a tenant
		// violation fails the query outright
		if ret == nil || ret.ev.Empty() || errors.Is(err, evidence.ErrTenantMismatch) {
			stopRetrieval()
			return nil, fmt.Errorf("retrieval failed on route %s: %w", route, err)
		}
		logger.Warn("retrieval degraded, continuing with gathered evidence",
			"query", q.ID, "route", route.String(), "err", err)
		ret.partial = true
	}

	// coverage completion supplements any strategy's result set for
	// enumerative and comparative queries; it is additive only, so a
	// failure here degrades rather than fails
	if needsCoverage(q) && ret.answer == "" {
		if err := o.completeCoverage(ctx, q, ret.ev); err != nil {
			logger.Warn("coverage completion failed, continuing without it", "query", q.ID, "err", err)
			ret.partial = true
		}
	}
	stopRetrieval()

	// a degraded run may have burned the query deadline during retrieval;
	// synthesis of the partial evidence still gets a bounded allowance
	sctx := ctx
	if ret.partial {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), o.cfg.DegradedTimeout)
		defer cancel()
	}

	stopSynthesis := sw.Stage("synthesis")
	answer, citations, err := o.synthesize(sctx, q, route, ret)
	stopSynthesis()
	if err != nil {
		return nil, err
	}

	result := &evidence.SynthesisResult{
		Answer:    answer,
		Citations: citations,
		RouteUsed: route.String(),
		Confidence: evidence.Confidence{
			Score:   ret.confidence,
			Refined: ret.refined,
		},
		Timing: evidence.Timing{
			RetrievalMs: sw.StageMs("retrieval"),
			SynthesisMs: sw.StageMs("synthesis"),
			TotalMs:     sw.TotalMs(),
		},
		Partial: ret.partial,
	}

	logger.Info("query answered",
		"query", q.ID,
		"route", result.RouteUsed,
		"citations", len(result.Citations),
		"refined", result.Confidence.Refined,
		"partial", result.Partial,
		"total_ms", result.Timing.TotalMs,
	)

	return result, nil
}

// retrieve runs the selected strategy. The switch is exhaustive over the
// closed Route set.
func (o *Orchestrator) retrieve(ctx context.Context, q evidence.Query, route Route) (*retrieval, error) {
	switch route {
	case RouteFastLookup:
		return o.fastLookup(ctx, q)
	case RouteEntityLocal:
		return o.entityLocal(ctx, q)
	case RouteCommunityGlobal:
		return o.communityGlobal(ctx, q)
	case RouteMultiHop:
		return o.multiHop(ctx, q)
	}
	return nil, fmt.Errorf("unhandled route %s", route)
}

// checkDataAvailable distinguishes "tenant has no data for this route"
// from a normal empty answer, so callers get a structured error instead
// of a fabricated response.
func (o *Orchestrator) checkDataAvailable(ctx context.Context, groupID string, route Route) error {
	switch route {
	case RouteCommunityGlobal:
		ok, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) (bool, error) {
			return o.store.HasCommunityData(ctx, groupID)
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no community data for group %s", ErrNoEvidence, groupID)
		}
	case RouteEntityLocal, RouteMultiHop:
		ok, err := util.RetryBackoff(ctx, o.cfg.UpstreamTries, o.cfg.UpstreamBackoff, func(ctx context.Context) (bool, error) {
			return o.store.HasGraphData(ctx, groupID)
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no graph data for group %s", ErrNoEvidence, groupID)
		}
	case RouteFastLookup:
		// fast lookup only needs the vector index; absence of units
		// surfaces as an empty search result and a "not specified" answer
	}
	return nil
}

// needsCoverage reports whether the query's intent requires guaranteed
// per-document representation.
func needsCoverage(q evidence.Query) bool {
	return HasEnumerationIntent(q.Text) || HasComparisonIntent(q.Text)
}
