package wayfinder

// Point is a planar map coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SearchMatch is one frame whose object descriptions matched the query.
type SearchMatch struct {
	FrameID          int      `json:"frame_id"`
	Location         Point    `json:"location"`
	Objects          []string `json:"objects"`
	DistanceFromUser *float64 `json:"distance_from_user,omitempty"`
}

// Localization is the engine-reported pose and detections.
type Localization struct {
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"position"`
	Orientation struct {
		Roll  float64 `json:"roll"`
		Pitch float64 `json:"pitch"`
		Yaw   float64 `json:"yaw"`
	} `json:"orientation"`
	DetectedObjects  []string `json:"detected_objects"`
	PictureID        string   `json:"picture_id"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
}

// Guidance is the navigation instruction set toward the nearest match.
type Guidance struct {
	TargetObject    string  `json:"target_object"`
	TargetFrameID   int     `json:"target_frame_id"`
	Direction       string  `json:"direction"`
	Distance        float64 `json:"distance"`
	Bearing         float64 `json:"bearing"`
	ClockPosition   int     `json:"clock_position"`
	TurnInstruction string  `json:"turn_instruction"`
	IsAtLocation    bool    `json:"is_at_location"`
}

// Timing holds per-stage workflow durations in milliseconds.
type Timing struct {
	SearchDuration       float64 `json:"search_duration"`
	LocalizationDuration float64 `json:"localization_duration"`
	TotalDuration        float64 `json:"total_duration"`
}

// WorkflowResult is the full search-and-localize response.
type WorkflowResult struct {
	Success               bool          `json:"success"`
	WorkflowStatus        string        `json:"workflow_status"`
	SearchResults         []SearchMatch `json:"search_results"`
	LocalizationResults   *Localization `json:"localization_results,omitempty"`
	NavigationGuidance    *Guidance     `json:"navigation_guidance,omitempty"`
	NearestFrameID        *int          `json:"nearest_frame_id,omitempty"`
	TotalMatches          int           `json:"total_matches"`
	MultipleFramesFound   bool          `json:"multiple_frames_found"`
	TotalDistanceToTarget *float64      `json:"total_distance_to_target,omitempty"`
	SceneDescription      string        `json:"scene_description,omitempty"`
	Error                 string        `json:"error,omitempty"`
	TimingMs              *Timing       `json:"timing_ms,omitempty"`
}

// SearchResult is the standalone search response.
type SearchResult struct {
	Success       bool          `json:"success"`
	ObjectName    string        `json:"object_name"`
	SearchResults []SearchMatch `json:"search_results"`
	TotalMatches  int           `json:"total_matches"`
}

// HealthReport is the service health snapshot.
type HealthReport struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	FrameCount int               `json:"frame_count"`
}

// Workflow status values.
const (
	StatusCompleted          = "completed"
	StatusNoMatches          = "no_matches"
	StatusLocalizationFailed = "localization_failed"
	StatusError              = "error"
)
