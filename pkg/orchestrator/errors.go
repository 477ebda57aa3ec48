package orchestrator

import "errors"

var (
	// ErrRouteDisabled means the requested or classified route is
	// disabled by the profile and no fallback route is enabled. This is
	// a configuration problem and rejects the request outright.
	ErrRouteDisabled = errors.New("route disabled by profile")

	// ErrNoEvidence means the evidence stores hold no queryable data for
	// this tenant and route. Distinct from a normal "not specified"
	// answer, which is a successful response over existing data.
	ErrNoEvidence = errors.New("no evidence data for tenant")

	// ErrNotGrounded means the synthesized answer referenced material
	// outside the gathered evidence, even after the grounding retry.
	ErrNotGrounded = errors.New("synthesized answer not grounded in evidence")
)

// NotSpecifiedAnswer is the canonical answer text when the evidence does
// not contain the requested information. Returning it is a normal,
// successful outcome; fabricating a value instead is the failure.
const NotSpecifiedAnswer = "not specified"
