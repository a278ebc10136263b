package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: the service can answer searches but
	// not full workflows.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	FrameCount int
}

// Service coordinates health checks.
type Service struct {
	engine EngineChecker
	frames FrameCounter
}

// New creates a Service.
func New(engine EngineChecker, frames FrameCounter) *Service {
	return &Service{engine: engine, frames: frames}
}

// Check runs health checks against all components. An empty frame index is
// reported as an error: every search would be a guaranteed miss.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["localization_engine"] = CheckOK
	if err := s.engine.Ready(ctx); err != nil {
		checks["localization_engine"] = CheckError
	}

	frameCount := s.frames.Len()
	checks["frame_index"] = CheckOK
	if frameCount == 0 {
		checks["frame_index"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, FrameCount: frameCount}
}
