package orchestrator

import (
	"errors"
	"testing"

	"github.com/seekwell/atlas/pkg/evidence"
)

func TestDispatchDeterministic(t *testing.T) {
	tests := []struct {
		text    string
		profile RouteProfile
		want    Route
	}{
		{"What is the invoice total?", ProfileGeneral, RouteFastLookup},
		{"How many employees were hired?", ProfileGeneral, RouteFastLookup},
		{"Tell me about Acme Corp", ProfileGeneral, RouteEntityLocal},
		{"Who is John Smith?", ProfileGeneral, RouteEntityLocal},
		{"Give an overview of the case", ProfileGeneral, RouteCommunityGlobal},
		{"Summarize the key topics", ProfileGeneral, RouteCommunityGlobal},
		{"List all documents mentioning payments", ProfileGeneral, RouteMultiHop},
		{"Compare Acme Corp versus Beta LLC", ProfileGeneral, RouteMultiHop},
		{"Which entity appears in more documents, Acme or Beta?", ProfileGeneral, RouteMultiHop},

		// disabled routes fall back in fixed precedence order
		{"What is the invoice total?", ProfileHighAssurance, RouteMultiHop},
		{"List all documents mentioning payments", ProfileSpeedCritical, RouteCommunityGlobal},
	}

	for _, tt := range tests {
		q := evidence.Query{Text: tt.text, GroupID: "g1"}
		got, err := Dispatch(q, tt.profile)
		if err != nil {
			t.Fatalf("Dispatch(%q, %s): %v", tt.text, tt.profile.Name, err)
		}
		if got != tt.want {
			t.Fatalf("Dispatch(%q, %s) = %s, want %s", tt.text, tt.profile.Name, got, tt.want)
		}
		// same input, same route, every time
		again, _ := Dispatch(q, tt.profile)
		if again != got {
			t.Fatalf("Dispatch(%q) not deterministic: %s then %s", tt.text, got, again)
		}
	}
}

func TestDispatchOverride(t *testing.T) {
	q := evidence.Query{Text: "anything", GroupID: "g1", RouteOverride: "community_global"}
	got, err := Dispatch(q, ProfileGeneral)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != RouteCommunityGlobal {
		t.Fatalf("override ignored, got %s", got)
	}

	q.RouteOverride = "fast_lookup"
	if _, err := Dispatch(q, ProfileHighAssurance); !errors.Is(err, ErrRouteDisabled) {
		t.Fatalf("disabled override: err = %v, want ErrRouteDisabled", err)
	}

	q.RouteOverride = "warp_drive"
	if _, err := Dispatch(q, ProfileGeneral); err == nil {
		t.Fatal("unknown override accepted")
	}
}

func TestDispatchEmptyProfile(t *testing.T) {
	q := evidence.Query{Text: "What is the invoice total?", GroupID: "g1"}
	if _, err := Dispatch(q, NewRouteProfile("none")); !errors.Is(err, ErrRouteDisabled) {
		t.Fatalf("err = %v, want ErrRouteDisabled", err)
	}
}

func TestParseRouteRoundTrip(t *testing.T) {
	for _, r := range routeFallbackOrder {
		parsed, err := ParseRoute(r.String())
		if err != nil {
			t.Fatalf("ParseRoute(%s): %v", r, err)
		}
		if parsed != r {
			t.Fatalf("ParseRoute(%s) = %s", r, parsed)
		}
	}
}

func TestProfileByName(t *testing.T) {
	p, ok := ProfileByName("high-assurance")
	if !ok {
		t.Fatal("high-assurance profile missing")
	}
	if p.Enabled(RouteFastLookup) {
		t.Fatal("high-assurance must not enable fast lookup")
	}
	if _, ok := ProfileByName("nope"); ok {
		t.Fatal("unknown profile resolved")
	}
}
