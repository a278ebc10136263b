package health

import "context"

// EngineChecker checks localization engine availability.
type EngineChecker interface {
	Ready(ctx context.Context) error
}

// FrameCounter reports how many frames the index holds.
type FrameCounter interface {
	Len() int
}
