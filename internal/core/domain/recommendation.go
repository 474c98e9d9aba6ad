package domain

// Recommendation is one deterministic improvement suggestion derived from a
// below-threshold component score or an open high/critical anomaly. Lower
// priority means more urgent.
type Recommendation struct {
	Category            string   `json:"category"`
	Priority            int      `json:"priority"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PotentialImpact     string   `json:"potentialImpact"`
	ImplementationSteps []string `json:"implementationSteps"`
}

// AssessmentNarrative is the deterministic human-readable rendition of a
// scoring run. Given identical inputs the output is byte-identical.
type AssessmentNarrative struct {
	Summary    string   `json:"summary"`
	Breakdown  []string `json:"breakdown"`
	FocusAreas []string `json:"focusAreas"`
	Concerns   []string `json:"concerns"`
}
