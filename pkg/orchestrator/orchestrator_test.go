package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seekwell/atlas/pkg/ai"
	"github.com/seekwell/atlas/pkg/evidence"
	"github.com/seekwell/atlas/pkg/store"
)

type fakeStore struct {
	entities     []evidence.Entity
	topEntities  []evidence.Entity
	units        []evidence.TextUnit
	unitsByDoc   map[string][]evidence.TextUnit
	mentionUnits []evidence.TextUnit
	unitsFn      func(ctx context.Context) ([]evidence.TextUnit, error)
	communities  []evidence.Community
	hoodEnts     []evidence.Entity
	hoodRels     []evidence.Relationship
	docs         []store.Document
	hasGraph     bool
	hasCommunity bool
}

func (s *fakeStore) EntitiesByNames(_ context.Context, _ string, names []string) ([]evidence.Entity, error) {
	var out []evidence.Entity
	for _, e := range s.entities {
		for _, n := range names {
			if strings.EqualFold(e.Name, n) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) TopEntitiesByDegree(_ context.Context, _ string, limit int) ([]evidence.Entity, error) {
	if limit < len(s.topEntities) {
		return s.topEntities[:limit], nil
	}
	return s.topEntities, nil
}

func (s *fakeStore) SimilarCommunities(_ context.Context, _ string, _ []float32, limit int) ([]evidence.Community, error) {
	if limit < len(s.communities) {
		return s.communities[:limit], nil
	}
	return s.communities, nil
}

func (s *fakeStore) SimilarUnits(_ context.Context, _ string, _ []float32, limit int, documentID string) ([]evidence.TextUnit, error) {
	units := s.units
	if documentID != "" {
		units = s.unitsByDoc[documentID]
	}
	if limit < len(units) {
		return units[:limit], nil
	}
	return units, nil
}

func (s *fakeStore) UnitsForEntities(ctx context.Context, _ string, _ []int64, limit int) ([]evidence.TextUnit, error) {
	if s.unitsFn != nil {
		return s.unitsFn(ctx)
	}
	if limit < len(s.mentionUnits) {
		return s.mentionUnits[:limit], nil
	}
	return s.mentionUnits, nil
}

func (s *fakeStore) Neighborhood(_ context.Context, _ string, _ []int64, _, _ int) ([]evidence.Entity, []evidence.Relationship, error) {
	return s.hoodEnts, s.hoodRels, nil
}

func (s *fakeStore) ListDocuments(_ context.Context, _ string) ([]store.Document, error) {
	return s.docs, nil
}

func (s *fakeStore) HasGraphData(_ context.Context, _ string) (bool, error) {
	return s.hasGraph, nil
}

func (s *fakeStore) HasCommunityData(_ context.Context, _ string) (bool, error) {
	return s.hasCommunity, nil
}

type fakeAI struct {
	mu           sync.Mutex
	completionFn func(prompt string) (string, error)
	formatFn     func(name string, out any) error
	chatFn       func(messages []ai.ChatMessage) (string, error)

	completionPrompts []string
	formatNames       []string
}

func (a *fakeAI) GenerateCompletion(ctx context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	a.mu.Lock()
	a.completionPrompts = append(a.completionPrompts, prompt)
	a.mu.Unlock()
	if a.completionFn == nil {
		return NotSpecifiedAnswer, nil
	}
	return a.completionFn(prompt)
}

func (a *fakeAI) GenerateCompletionWithFormat(_ context.Context, name, _, _ string, out any, _ ...ai.GenerateOption) error {
	a.mu.Lock()
	a.formatNames = append(a.formatNames, name)
	a.mu.Unlock()
	if a.formatFn == nil {
		return errors.New("no format handler")
	}
	return a.formatFn(name, out)
}

func (a *fakeAI) GenerateChat(_ context.Context, messages []ai.ChatMessage, _ ...ai.GenerateOption) (string, error) {
	if a.chatFn == nil {
		return "", errors.New("chat not expected")
	}
	return a.chatFn(messages)
}

func (a *fakeAI) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (a *fakeAI) formatCalls(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.formatNames {
		if c == name {
			n++
		}
	}
	return n
}

func TestFastFactualLookup(t *testing.T) {
	st := &fakeStore{
		units: []evidence.TextUnit{
			{ID: "unit-1", Text: "The invoice total is $4,200.00, payable within 30 days.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Invoice 2024-03", Page: 1},
		},
	}
	client := &fakeAI{}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "What is the invoice total?", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RouteUsed != "fast_lookup" {
		t.Fatalf("route = %s, want fast_lookup", res.RouteUsed)
	}
	if !strings.Contains(res.Answer, "$4,200.00") {
		t.Fatalf("answer = %q, want the invoice amount", res.Answer)
	}
	if len(res.Citations) != 1 || res.Citations[0].Document != "Invoice 2024-03" {
		t.Fatalf("citations = %+v, want one pointing at the invoice", res.Citations)
	}
	if len(client.completionPrompts) != 0 {
		t.Fatalf("pattern tier answered but %d model completions ran", len(client.completionPrompts))
	}
	if client.formatCalls("sub_questions") != 0 {
		t.Fatal("fast lookup must not decompose the query")
	}
}

func TestAbsentFactNotSpecified(t *testing.T) {
	st := &fakeStore{
		units: []evidence.TextUnit{
			{ID: "unit-1", Text: "Hours of operation are nine to five.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Handbook"},
		},
	}
	client := &fakeAI{completionFn: func(string) (string, error) {
		return NotSpecifiedAnswer, nil
	}}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "What is the bank routing number?", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Answer != NotSpecifiedAnswer {
		t.Fatalf("answer = %q, want %q", res.Answer, NotSpecifiedAnswer)
	}
	if len(res.Citations) != 0 {
		t.Fatalf("citations = %+v, want none", res.Citations)
	}
}

func TestEntityLocalRoute(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1"},
		},
		mentionUnits: []evidence.TextUnit{
			{ID: "unit-1", Text: "Acme Corp supplies industrial widgets.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Supplier List"},
		},
		hoodEnts: []evidence.Entity{
			{ID: 2, Name: "Beta LLC", Type: "organization", GroupID: "g1"},
		},
		hoodRels: []evidence.Relationship{
			{ID: 10, SourceID: 1, TargetID: 2, SourceName: "Acme Corp", TargetName: "Beta LLC",
				Description: "supplier of", UnitID: "unit-1", GroupID: "g1"},
		},
	}
	client := &fakeAI{completionFn: func(string) (string, error) {
		return "Acme Corp supplies industrial widgets [[unit-1]].", nil
	}}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "Tell me about Acme Corp", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RouteUsed != "entity_local" {
		t.Fatalf("route = %s, want entity_local", res.RouteUsed)
	}
	if strings.Contains(res.Answer, "[[") {
		t.Fatalf("answer still contains citation markers: %q", res.Answer)
	}
	if len(res.Citations) != 1 || res.Citations[0].Document != "Supplier List" {
		t.Fatalf("citations = %+v", res.Citations)
	}
}

func TestCommunityGlobalMapReduce(t *testing.T) {
	st := &fakeStore{
		hasCommunity: true,
		communities: []evidence.Community{
			{ID: 1, Title: "Payment Disputes", Summary: "Several disputes concern late payments.",
				Members: []string{"Acme Corp", "Beta LLC"}, GroupID: "g1"},
			{ID: 2, Title: "Supply Contracts", Summary: "Contracts cover widget supply terms.",
				Members: []string{"Beta LLC", "Gamma GmbH"}, GroupID: "g1"},
		},
	}
	client := &fakeAI{
		formatFn: func(name string, out any) error {
			mo, ok := out.(*mapOutput)
			if !ok {
				return errors.New("unexpected format target")
			}
			mo.Claims = []mappedClaim{{Text: "claim", Relevance: 80}}
			return nil
		},
		completionFn: func(prompt string) (string, error) {
			if !strings.Contains(prompt, "Payment Disputes") || !strings.Contains(prompt, "Supply Contracts") {
				return "", errors.New("reduce prompt missing community claims")
			}
			return "Disputes center on payment and supply terms.", nil
		},
	}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "Give an overview of the case", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RouteUsed != "community_global" {
		t.Fatalf("route = %s, want community_global", res.RouteUsed)
	}
	if calls := client.formatCalls("community_claims"); calls != 2 {
		t.Fatalf("map calls = %d, want one per community", calls)
	}
	if res.Answer != "Disputes center on payment and supply terms." {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestCommunityGlobalThinMatchExtension(t *testing.T) {
	st := &fakeStore{
		hasCommunity: true,
		communities: []evidence.Community{
			{ID: 1, Title: "Payment Disputes", Summary: "Several disputes concern late payments.",
				Members: []string{"Acme Corp"}, GroupID: "g1"},
		},
		topEntities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1", Degree: 9},
			{ID: 2, Name: "Beta LLC", Type: "organization", GroupID: "g1", Degree: 4},
		},
		mentionUnits: []evidence.TextUnit{
			{ID: "unit-1", Text: "Acme Corp disputes a payment by Beta LLC.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Case File"},
		},
	}
	client := &fakeAI{
		formatFn: func(name string, out any) error {
			mo, ok := out.(*mapOutput)
			if !ok {
				return errors.New("unexpected format target")
			}
			mo.Claims = []mappedClaim{{Text: "payments are disputed", Relevance: 70}}
			return nil
		},
		completionFn: func(prompt string) (string, error) {
			if !strings.Contains(prompt, "Acme Corp disputes a payment") {
				return "", errors.New("reduce prompt missing sampled excerpt")
			}
			return "The case revolves around a disputed payment [[unit-1]].", nil
		},
	}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "Summarize the main themes", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Citations) != 1 || res.Citations[0].Document != "Case File" {
		t.Fatalf("citations = %+v", res.Citations)
	}
}

func TestBoundedRefinement(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1", Degree: 9},
		},
		topEntities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1", Degree: 9},
		},
		hoodEnts: []evidence.Entity{
			{ID: 2, Name: "Beta LLC", Type: "organization", GroupID: "g1"},
		},
		hoodRels: []evidence.Relationship{
			{ID: 10, SourceID: 1, TargetID: 2, SourceName: "Acme Corp", TargetName: "Beta LLC",
				Description: "dispute with", UnitID: "unit-1", GroupID: "g1"},
		},
		mentionUnits: []evidence.TextUnit{
			{ID: "unit-1", Text: "Acme Corp disputes a payment by Beta LLC.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Case File"},
		},
	}

	subCalls := 0
	client := &fakeAI{
		completionFn: func(string) (string, error) {
			return "Acme Corp is in a payment dispute with Beta LLC [[unit-1]].", nil
		},
	}
	client.formatFn = func(name string, out any) error {
		do, ok := out.(*decomposeOutput)
		if !ok {
			return errors.New("unexpected format target")
		}
		subCalls++
		if subCalls == 1 {
			// abstract decomposition, no proper nouns anywhere
			do.SubQuestions = []string{"what themes are discussed", "what issues arise"}
		} else {
			do.SubQuestions = []string{"what disputes involve Acme Corp", "what issues concern Acme Corp"}
		}
		return nil
	}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(),
		evidence.Query{ID: "q1", Text: "theme query", GroupID: "g1", RouteOverride: "multi_hop"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Confidence.Refined {
		t.Fatal("expected a refinement pass")
	}
	if subCalls != 2 {
		t.Fatalf("sub-question generations = %d, want exactly 2 (decompose + one refinement)", subCalls)
	}
	if res.Answer == "" || res.Answer == NotSpecifiedAnswer {
		t.Fatalf("answer = %q, refinement should have recovered evidence", res.Answer)
	}
}

func TestNoEvidenceData(t *testing.T) {
	st := &fakeStore{hasGraph: false}
	o := New(st, &fakeAI{}, Config{})

	_, err := o.Run(context.Background(),
		evidence.Query{ID: "q1", Text: "Tell me about Acme Corp", GroupID: "g1"}, ProfileGeneral)
	if !errors.Is(err, ErrNoEvidence) {
		t.Fatalf("err = %v, want ErrNoEvidence", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	st := &fakeStore{
		units: []evidence.TextUnit{
			{ID: "unit-1", Text: "leaked", GroupID: "other", DocumentID: "d1", DocumentName: "Foreign"},
		},
	}
	o := New(st, &fakeAI{}, Config{})

	_, err := o.Run(context.Background(),
		evidence.Query{ID: "q1", Text: "What is the deadline?", GroupID: "g1"}, ProfileGeneral)
	if !errors.Is(err, evidence.ErrTenantMismatch) {
		t.Fatalf("err = %v, want ErrTenantMismatch", err)
	}
}

func TestGroundingRetryFallsBackToNotSpecified(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{{ID: 1, Name: "Acme Corp", GroupID: "g1"}},
		mentionUnits: []evidence.TextUnit{
			{ID: "unit-1", Text: "Acme Corp exists.", GroupID: "g1", DocumentID: "d1", DocumentName: "File"},
		},
	}
	client := &fakeAI{completionFn: func(string) (string, error) {
		return "A fabricated claim [[unit-bogus]].", nil
	}}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(),
		evidence.Query{ID: "q1", Text: "Tell me about Acme Corp", GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Answer != NotSpecifiedAnswer {
		t.Fatalf("answer = %q, want %q after failed grounding retry", res.Answer, NotSpecifiedAnswer)
	}
	if len(client.completionPrompts) != 2 {
		t.Fatalf("completions = %d, want exactly one retry", len(client.completionPrompts))
	}
}

func TestCoverageMinimumPerDocument(t *testing.T) {
	mk := func(id, doc string) evidence.TextUnit {
		return evidence.TextUnit{ID: id, Text: "text " + id, GroupID: "g1", DocumentID: doc, DocumentName: doc}
	}
	st := &fakeStore{
		docs: []store.Document{{ID: "d1", Name: "d1"}, {ID: "d2", Name: "d2"}},
		unitsByDoc: map[string][]evidence.TextUnit{
			"d1": {mk("u1", "d1"), mk("u2", "d1"), mk("u3", "d1"), mk("u4", "d1")},
			"d2": {mk("u5", "d2"), mk("u6", "d2"), mk("u7", "d2"), mk("u8", "d2")},
		},
	}
	o := New(st, &fakeAI{}, Config{})

	ev := evidence.NewSet("g1")
	if err := ev.AddUnit(mk("u1", "d1")); err != nil {
		t.Fatal(err)
	}

	q := evidence.Query{ID: "q1", Text: "Give a comprehensive list of every obligation", GroupID: "g1"}
	if err := o.completeCoverage(context.Background(), q, ev); err != nil {
		t.Fatalf("completeCoverage: %v", err)
	}

	counts := ev.UnitsPerDocument()
	for _, doc := range []string{"d1", "d2"} {
		if counts[doc] != 3 {
			t.Fatalf("document %s has %d units, want 3", doc, counts[doc])
		}
	}
	if got := len(ev.DistinctDocuments()); got != 2 {
		t.Fatalf("distinct documents = %d, want 2", got)
	}
}

func TestCoverageSkipsPlainQueries(t *testing.T) {
	if needsCoverage(evidence.Query{Text: "What is the invoice total?"}) {
		t.Fatal("plain factual query must not trigger coverage completion")
	}
	if !needsCoverage(evidence.Query{Text: "List all documents mentioning Acme Corp"}) {
		t.Fatal("enumeration query must trigger coverage completion")
	}
	if !needsCoverage(evidence.Query{Text: "Which entity appears in more documents, X or Y?"}) {
		t.Fatal("comparison query must trigger coverage completion")
	}
}

func TestPartialAnswerAfterDeadline(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1"},
		},
		unitsFn: func(ctx context.Context) ([]evidence.TextUnit, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	client := &fakeAI{
		completionFn: func(prompt string) (string, error) {
			return "Acme Corp appears in the gathered records.", nil
		},
	}
	o := New(st, client, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := o.Run(ctx, evidence.Query{ID: "q1", Text: "Tell me about Acme Corp",
		GroupID: "g1", RouteOverride: "entity_local"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Partial {
		t.Fatal("deadline during retrieval must flag the result partial")
	}
	if res.Answer != "Acme Corp appears in the gathered records." {
		t.Fatalf("answer = %q, want the best-effort synthesis", res.Answer)
	}
}

func TestPartialOnUpstreamFailure(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1"},
		},
		unitsFn: func(_ context.Context) ([]evidence.TextUnit, error) {
			return nil, errors.New("connection reset by peer")
		},
	}
	client := &fakeAI{
		completionFn: func(prompt string) (string, error) {
			return "Acme Corp is an organization in the graph.", nil
		},
	}
	o := New(st, client, Config{UpstreamBackoff: time.Millisecond})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "Tell me about Acme Corp",
		GroupID: "g1", RouteOverride: "entity_local"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Partial {
		t.Fatal("retry-exhausted upstream failure must degrade, not fail")
	}
	if res.Answer == "" {
		t.Fatal("degraded run must still produce an answer")
	}
}

func TestFastLookupFallbackChecksData(t *testing.T) {
	st := &fakeStore{
		units: []evidence.TextUnit{
			{ID: "unit-1", Text: "The schedule is attached separately.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Supply Agreement"},
		},
	}
	client := &fakeAI{
		completionFn: func(prompt string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	o := New(st, client, Config{})

	_, err := o.Run(context.Background(), evidence.Query{ID: "q1", Text: "What is the payment amount?",
		GroupID: "g1"}, ProfileGeneral)
	if !errors.Is(err, ErrNoEvidence) {
		t.Fatalf("err = %v, want ErrNoEvidence for the fallback route", err)
	}
}

func TestComparativeDocumentCount(t *testing.T) {
	st := &fakeStore{
		hasGraph: true,
		entities: []evidence.Entity{
			{ID: 1, Name: "Acme Corp", Type: "organization", GroupID: "g1", Degree: 9},
		},
		hoodEnts: []evidence.Entity{
			{ID: 2, Name: "Beta LLC", Type: "organization", GroupID: "g1"},
		},
		hoodRels: []evidence.Relationship{
			{ID: 10, SourceID: 1, TargetID: 2, SourceName: "Acme Corp", TargetName: "Beta LLC",
				Description: "contracts with", UnitID: "unit-1", GroupID: "g1"},
		},
		mentionUnits: []evidence.TextUnit{
			{ID: "unit-1", Text: "Acme Corp signed the supply agreement.",
				GroupID: "g1", DocumentID: "d1", DocumentName: "Supply Agreement"},
			{ID: "unit-2", Text: "Acme Corp disputes the invoice.",
				GroupID: "g1", DocumentID: "d2", DocumentName: "Invoice Dispute"},
			{ID: "unit-3", Text: "Acme Corp renewed the lease.",
				GroupID: "g1", DocumentID: "d3", DocumentName: "Lease"},
			{ID: "unit-4", Text: "Acme Corp appears in the merger filing.",
				GroupID: "g1", DocumentID: "d4", DocumentName: "Merger Filing"},
			{ID: "unit-5", Text: "Exhibit A lists Acme Corp as guarantor.",
				GroupID: "g1", DocumentID: "d4", DocumentName: "Merger Filing", Section: "Exhibit A"},
		},
	}
	client := &fakeAI{
		formatFn: func(name string, out any) error {
			d, ok := out.(*decomposeOutput)
			if !ok {
				return errors.New("unexpected format target")
			}
			d.SubQuestions = []string{
				"Which documents mention Acme Corp?",
				"Which exhibits mention Acme Corp?",
			}
			return nil
		},
		completionFn: func(prompt string) (string, error) {
			return "Acme Corp is mentioned in four documents " +
				"[[unit-1]] [[unit-2]] [[unit-3]] [[unit-4]] [[unit-5]].", nil
		},
	}
	o := New(st, client, Config{})

	res, err := o.Run(context.Background(), evidence.Query{ID: "q1",
		Text: "Compare the number of documents mentioning Acme Corp and Beta LLC",
		GroupID: "g1"}, ProfileGeneral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RouteUsed != "multi_hop" {
		t.Fatalf("route = %s, want multi_hop", res.RouteUsed)
	}
	if len(res.Citations) != 5 {
		t.Fatalf("citations = %d, want 5", len(res.Citations))
	}
	docs := make(map[string]bool)
	for _, c := range res.Citations {
		docs[c.Document] = true
	}
	// the exhibit belongs to the merger filing, so it must not count as a
	// fifth document
	if len(docs) != 4 {
		t.Fatalf("distinct cited documents = %d, want 4", len(docs))
	}
}

func TestCondenseFollowUp(t *testing.T) {
	client := &fakeAI{
		chatFn: func(messages []ai.ChatMessage) (string, error) {
			if len(messages) != 3 {
				return "", errors.New("history not forwarded")
			}
			if messages[2].Message != "When was it paid?" {
				return "", errors.New("follow-up not appended last")
			}
			return "When was Acme Corp's invoice paid?", nil
		},
	}
	o := New(&fakeStore{}, client, Config{})

	history := []ai.ChatMessage{
		{Role: "user", Message: "What does Acme Corp owe?"},
		{Role: "assistant", Message: "Acme Corp owes $4,200.00 under the supply agreement."},
	}
	if got := o.CondenseFollowUp(context.Background(), history, "When was it paid?"); got != "When was Acme Corp's invoice paid?" {
		t.Fatalf("condensed = %q", got)
	}
	if got := o.CondenseFollowUp(context.Background(), nil, "When was it paid?"); got != "When was it paid?" {
		t.Fatalf("no-history passthrough = %q", got)
	}

	broken := New(&fakeStore{}, &fakeAI{}, Config{})
	if got := broken.CondenseFollowUp(context.Background(), history, "When was it paid?"); got != "When was it paid?" {
		t.Fatalf("chat failure must fall back to the raw question, got %q", got)
	}
}
