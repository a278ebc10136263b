package domain

// WorkflowStatus is the outcome variant of one search-and-localize workflow.
// It distinguishes "the request was processed" from "the domain goal was
// achieved", so soft failures never have to masquerade as transport errors.
type WorkflowStatus string

const (
	// StatusCompleted means search, localization and guidance all produced results.
	StatusCompleted WorkflowStatus = "completed"
	// StatusNoMatches means the object query matched no frames; localization may
	// still have succeeded and the user position is reported.
	StatusNoMatches WorkflowStatus = "no_matches"
	// StatusLocalizationFailed means the engine produced no confident pose;
	// search results gathered so far are still returned.
	StatusLocalizationFailed WorkflowStatus = "localization_failed"
	// StatusError means the workflow failed for an infrastructure reason.
	StatusError WorkflowStatus = "error"
)

// NavigationGuidance is a deterministic, human-readable instruction set for
// reaching the target frame from the current pose.
//
// Bearing sign convention: positive = clockwise = to the user's right,
// negative = to the user's left, relative to the current yaw. Range (-180, 180].
type NavigationGuidance struct {
	TargetObject    string
	TargetFrameID   int
	Direction       string
	Distance        float64 // meters, >= 0
	Bearing         float64 // degrees
	ClockPosition   int     // 1..12
	TurnInstruction string
	IsAtLocation    bool // true iff the user is within a meter of the target
}

// Timing holds per-stage durations in milliseconds for one workflow run.
type Timing struct {
	SearchDuration       float64 `json:"search_duration"`
	LocalizationDuration float64 `json:"localization_duration"`
	TotalDuration        float64 `json:"total_duration"`
}

// WorkflowResult is the composite outcome of one search-and-localize run.
// Created fresh per request, returned to the caller and discarded.
type WorkflowResult struct {
	// Success is true whenever the user's pose was determined, so both
	// completed and no_matches runs carry it.
	Success        bool
	Status         WorkflowStatus
	SearchResults  []SearchMatch
	Localization   *Localization
	Guidance       *NavigationGuidance
	NearestFrameID *int
	TotalMatches   int
	Timing         *Timing
	ErrorMessage   string
	// SceneDescription is a best-effort vision-model summary of the uploaded
	// image. Empty when the describer is disabled or fails.
	SceneDescription string
}
