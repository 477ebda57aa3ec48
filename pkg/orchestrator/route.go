package orchestrator

import (
	"fmt"

	"github.com/seekwell/atlas/pkg/evidence"
)

// Route identifies one retrieval strategy. Routes form a closed set;
// every switch over Route handles all variants.
type Route int

const (
	RouteFastLookup Route = iota
	RouteEntityLocal
	RouteCommunityGlobal
	RouteMultiHop
)

// routeFallbackOrder is the fixed precedence used when a classified route
// is disabled by the active profile.
var routeFallbackOrder = []Route{
	RouteMultiHop,
	RouteCommunityGlobal,
	RouteEntityLocal,
	RouteFastLookup,
}

func (r Route) String() string {
	switch r {
	case RouteFastLookup:
		return "fast_lookup"
	case RouteEntityLocal:
		return "entity_local"
	case RouteCommunityGlobal:
		return "community_global"
	case RouteMultiHop:
		return "multi_hop"
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// ParseRoute converts a route name (as used in route overrides and
// profiles) back to a Route.
func ParseRoute(name string) (Route, error) {
	switch name {
	case "fast_lookup":
		return RouteFastLookup, nil
	case "entity_local":
		return RouteEntityLocal, nil
	case "community_global":
		return RouteCommunityGlobal, nil
	case "multi_hop":
		return RouteMultiHop, nil
	}
	return 0, fmt.Errorf("unknown route %q", name)
}

// RouteProfile is a named set of enabled routes, selected per tenant or
// deployment. A profile is immutable for the lifetime of a request.
type RouteProfile struct {
	Name    string
	enabled map[Route]bool
}

// NewRouteProfile builds a profile enabling exactly the given routes.
func NewRouteProfile(name string, routes ...Route) RouteProfile {
	enabled := make(map[Route]bool, len(routes))
	for _, r := range routes {
		enabled[r] = true
	}
	return RouteProfile{Name: name, enabled: enabled}
}

// Enabled reports whether the profile allows the given route.
func (p RouteProfile) Enabled(r Route) bool {
	return p.enabled[r]
}

// Routes returns the enabled routes in fallback precedence order.
func (p RouteProfile) Routes() []string {
	var names []string
	for _, r := range routeFallbackOrder {
		if p.enabled[r] {
			names = append(names, r.String())
		}
	}
	return names
}

var (
	// ProfileGeneral enables every route.
	ProfileGeneral = NewRouteProfile("general",
		RouteFastLookup, RouteEntityLocal, RouteCommunityGlobal, RouteMultiHop)

	// ProfileHighAssurance disables the pattern shortcut; every answer
	// goes through full retrieval.
	ProfileHighAssurance = NewRouteProfile("high-assurance",
		RouteEntityLocal, RouteCommunityGlobal, RouteMultiHop)

	// ProfileSpeedCritical disables the slow multi-hop strategy.
	ProfileSpeedCritical = NewRouteProfile("speed-critical",
		RouteFastLookup, RouteEntityLocal, RouteCommunityGlobal)
)

// Profiles lists all built-in route profiles.
func Profiles() []RouteProfile {
	return []RouteProfile{ProfileGeneral, ProfileHighAssurance, ProfileSpeedCritical}
}

// ProfileByName resolves a profile by its configured name.
func ProfileByName(name string) (RouteProfile, bool) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return RouteProfile{}, false
}

// Dispatch classifies a query against the enabled-route profile and
// returns the strategy to run. Classification is a pure, deterministic
// function of the query text and profile: the same pair always yields the
// same route. When the classified route is disabled, the nearest enabled
// route in the fixed precedence order is chosen; if no route is enabled
// at all, ErrRouteDisabled is returned.
func Dispatch(q evidence.Query, p RouteProfile) (Route, error) {
	if q.RouteOverride != "" {
		r, err := ParseRoute(q.RouteOverride)
		if err != nil {
			return 0, err
		}
		if !p.Enabled(r) {
			return 0, fmt.Errorf("%w: override %s not enabled in profile %s", ErrRouteDisabled, r, p.Name)
		}
		return r, nil
	}

	return fallback(classify(q.Text), p)
}

// classify maps surface features of the query text to the preferred route.
func classify(text string) Route {
	switch {
	case HasEnumerationIntent(text) || HasComparisonIntent(text):
		return RouteMultiHop
	case IsThematic(text):
		return RouteCommunityGlobal
	case LooksFactual(text) && !MentionsProperNoun(text):
		return RouteFastLookup
	case MentionsProperNoun(text):
		return RouteEntityLocal
	}
	return RouteEntityLocal
}

// fallback returns the classified route if enabled, otherwise the nearest
// enabled route in precedence order.
func fallback(r Route, p RouteProfile) (Route, error) {
	if p.Enabled(r) {
		return r, nil
	}
	for _, candidate := range routeFallbackOrder {
		if p.Enabled(candidate) {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: profile %s enables no routes", ErrRouteDisabled, p.Name)
}
