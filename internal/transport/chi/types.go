package chi

import "github.com/kailas-cloud/wayfinder/internal/domain"

// Wire types for the JSON API. Field names are part of the public contract.

type errorResponse struct {
	Success        bool   `json:"success"`
	WorkflowStatus string `json:"workflow_status"`
	Code           string `json:"code"`
	Message        string `json:"message"`
}

type pointWire struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type searchMatchWire struct {
	FrameID          int       `json:"frame_id"`
	Location         pointWire `json:"location"`
	Objects          []string  `json:"objects"`
	DistanceFromUser *float64  `json:"distance_from_user,omitempty"`
}

type localizationWire struct {
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

type guidanceWire struct {
	TargetObject    string  `json:"target_object"`
	TargetFrameID   int     `json:"target_frame_id"`
	Direction       string  `json:"direction"`
	Distance        float64 `json:"distance"`
	Bearing         float64 `json:"bearing"`
	ClockPosition   int     `json:"clock_position"`
	TurnInstruction string  `json:"turn_instruction"`
	IsAtLocation    bool    `json:"is_at_location"`
}

type workflowResponse struct {
	Success               bool              `json:"success"`
	WorkflowStatus        string            `json:"workflow_status"`
	SearchResults         []searchMatchWire `json:"search_results"`
	LocalizationResults   *localizationWire `json:"localization_results,omitempty"`
	NavigationGuidance    *guidanceWire     `json:"navigation_guidance,omitempty"`
	NearestFrameID        *int              `json:"nearest_frame_id,omitempty"`
	TotalMatches          int               `json:"total_matches"`
	MultipleFramesFound   bool              `json:"multiple_frames_found"`
	TotalDistanceToTarget *float64          `json:"total_distance_to_target,omitempty"`
	SceneDescription      string            `json:"scene_description,omitempty"`
	Error                 string            `json:"error,omitempty"`
	TimingMs              *domain.Timing    `json:"timing_ms,omitempty"`
}

type searchResponse struct {
	Success       bool              `json:"success"`
	ObjectName    string            `json:"object_name"`
	SearchResults []searchMatchWire `json:"search_results"`
	TotalMatches  int               `json:"total_matches"`
}

func matchesToWire(matches []domain.SearchMatch) []searchMatchWire {
	out := make([]searchMatchWire, len(matches))
	for i, m := range matches {
		out[i] = searchMatchWire{
			FrameID:          m.FrameID,
			Location:         pointWire{X: m.Position.X, Y: m.Position.Y},
			Objects:          m.MatchedDescriptions,
			DistanceFromUser: m.DistanceFromUser,
		}
	}
	return out
}

func workflowToWire(res domain.WorkflowResult, includeTiming bool) workflowResponse {
	resp := workflowResponse{
		Success:             res.Success,
		WorkflowStatus:      string(res.Status),
		SearchResults:       matchesToWire(res.SearchResults),
		NearestFrameID:      res.NearestFrameID,
		TotalMatches:        res.TotalMatches,
		MultipleFramesFound: res.TotalMatches > 1,
		SceneDescription:    res.SceneDescription,
		Error:               res.ErrorMessage,
	}

	if res.Localization != nil {
		lw := &localizationWire{
			DetectedObjects:  res.Localization.DetectedObjects,
			PictureID:        res.Localization.PictureID,
			ProcessingTimeMs: res.Localization.ProcessingTimeMs,
		}
		lw.Position.X = res.Localization.Pose.Position.X
		lw.Position.Y = res.Localization.Pose.Position.Y
		lw.Position.Z = res.Localization.Pose.Position.Z
		lw.Orientation.Roll = res.Localization.Pose.Orientation.Roll
		lw.Orientation.Pitch = res.Localization.Pose.Orientation.Pitch
		lw.Orientation.Yaw = res.Localization.Pose.Orientation.Yaw
		resp.LocalizationResults = lw
	}

	if res.Guidance != nil {
		g := res.Guidance
		resp.NavigationGuidance = &guidanceWire{
			TargetObject:    g.TargetObject,
			TargetFrameID:   g.TargetFrameID,
			Direction:       g.Direction,
			Distance:        g.Distance,
			Bearing:         g.Bearing,
			ClockPosition:   g.ClockPosition,
			TurnInstruction: g.TurnInstruction,
			IsAtLocation:    g.IsAtLocation,
		}
		d := g.Distance
		resp.TotalDistanceToTarget = &d
	}

	if includeTiming {
		resp.TimingMs = res.Timing
	}
	return resp
}
