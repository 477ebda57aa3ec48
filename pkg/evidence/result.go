package evidence

// Citation points a synthesized claim back to a location in a source
// document. Citations from different sections of the same document keep
// their section labels but share one document identity.
type Citation struct {
	Document string `json:"document"`
	Section  string `json:"section,omitempty"`
	Page     int    `json:"page,omitempty"`
}

// Confidence carries the final confidence score for a query and whether
// the refinement pass was taken to reach it.
type Confidence struct {
	Score   float64 `json:"score"`
	Refined bool    `json:"refined"`
}

// Timing is the per-stage latency breakdown of one query.
type Timing struct {
	RetrievalMs int64 `json:"retrieval_ms"`
	SynthesisMs int64 `json:"synthesis_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// SynthesisResult is the only externally visible artifact of a query:
// the answer text, its citations, the route that produced it, and timing
// metadata. Partial marks degraded responses where a stage was cut short
// by the query deadline; partial results are never returned unflagged.
type SynthesisResult struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	RouteUsed  string     `json:"route_used"`
	Confidence Confidence `json:"confidence"`
	Timing     Timing     `json:"timing"`
	Partial    bool       `json:"partial,omitempty"`
}
