// Package metrics provides the Prometheus collectors for birdeye components.
package metrics

// Outcome label values shared by the collectors.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeEmpty     = "empty"
	OutcomeParsed    = "parsed"
	OutcomeMalformed = "malformed"
	OutcomeSkipped   = "skipped"
)

// Classifier phase label values.
const (
	PhaseCandidates = "candidates"
	PhaseJudgment   = "judgment"
)

// Record store operation label values.
const (
	OpCreate = "create"
	OpList   = "list"
	OpDelete = "delete"
)

// durationBuckets covers fast local work up to slow model calls.
var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60}
