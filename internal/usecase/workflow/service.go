// Package workflow orchestrates one search-and-localize run: validate the
// upload, stage it, search the frame index, localize the user via the engine
// and derive navigation guidance toward the nearest match.
//
// Outcomes are split in two layers. Soft failures (no matches, no confident
// pose) are valid WorkflowResults with a non-completed status. Hard failures
// (bad input, staging, engine unreachable or timed out) are returned as
// errors for the transport to map onto HTTP status codes.
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/domain/guidance"
	"github.com/kailas-cloud/wayfinder/internal/domain/upload"
	"github.com/kailas-cloud/wayfinder/internal/logger"
	"github.com/kailas-cloud/wayfinder/internal/metrics"
)

// Request is one search-and-localize invocation.
type Request struct {
	Query string
	Image upload.Input
}

// Service runs the search-and-localize workflow.
type Service struct {
	index     Searcher
	stager    Stager
	localizer Localizer
	describer SceneDescriber // nil when vision is disabled
}

// New creates a Service. describer may be nil.
func New(index Searcher, stager Stager, localizer Localizer, describer SceneDescriber) *Service {
	return &Service{
		index:     index,
		stager:    stager,
		localizer: localizer,
		describer: describer,
	}
}

// Run executes the workflow. The returned error is non-nil only for hard
// failures; every soft outcome is encoded in the result's Status.
func (s *Service) Run(ctx context.Context, req Request) (domain.WorkflowResult, error) {
	log := logger.FromContext(ctx)
	totalStart := time.Now()

	if err := s.validate(req); err != nil {
		metrics.WorkflowRunsTotal.WithLabelValues(string(domain.StatusError)).Inc()
		return domain.WorkflowResult{}, err
	}

	payload, ext, err := req.Image.Payload()
	if err != nil {
		metrics.WorkflowRunsTotal.WithLabelValues(string(domain.StatusError)).Inc()
		return domain.WorkflowResult{}, err
	}

	stagedPath, err := s.stager.Acquire(payload, ext)
	if err != nil {
		metrics.WorkflowRunsTotal.WithLabelValues(string(domain.StatusError)).Inc()
		return domain.WorkflowResult{}, err
	}
	// Released on every path, including panics unwinding through here.
	defer s.stager.Release(stagedPath)

	searchStart := time.Now()
	matches := s.index.Search(req.Query)
	searchDur := time.Since(searchStart)
	metrics.WorkflowStageDuration.WithLabelValues("search").Observe(searchDur.Seconds())

	searchResult := "hit"
	if len(matches) == 0 {
		searchResult = "miss"
	}
	metrics.SearchQueriesTotal.WithLabelValues(searchResult).Inc()

	locStart := time.Now()
	loc, locErr := s.localizer.Localize(ctx, stagedPath)
	locDur := time.Since(locStart)
	metrics.WorkflowStageDuration.WithLabelValues("localization").Observe(locDur.Seconds())

	result := domain.WorkflowResult{
		SearchResults: matches,
		TotalMatches:  len(matches),
	}

	timing := func() *domain.Timing {
		total := time.Since(totalStart)
		metrics.WorkflowStageDuration.WithLabelValues("total").Observe(total.Seconds())
		return &domain.Timing{
			SearchDuration:       float64(searchDur.Milliseconds()),
			LocalizationDuration: float64(locDur.Milliseconds()),
			TotalDuration:        float64(total.Milliseconds()),
		}
	}

	if locErr != nil {
		if domain.IsSoftLocalizationFailure(locErr) {
			// Search results are still useful without a pose.
			result.Status = domain.StatusLocalizationFailed
			result.ErrorMessage = locErr.Error()
			result.Timing = timing()
			metrics.WorkflowRunsTotal.WithLabelValues(string(result.Status)).Inc()
			log.Info("workflow ended without a pose",
				zap.String("query", req.Query),
				zap.Int("matches", len(matches)))
			return result, nil
		}
		metrics.WorkflowRunsTotal.WithLabelValues(string(domain.StatusError)).Inc()
		return domain.WorkflowResult{}, locErr
	}

	result.Localization = &loc
	userPoint := loc.Pose.Point()

	if len(matches) == 0 {
		// The user's position was determined, so the request itself succeeded
		// even though there is nothing to guide toward.
		result.Success = true
		result.Status = domain.StatusNoMatches
		result.Timing = timing()
		metrics.WorkflowRunsTotal.WithLabelValues(string(result.Status)).Inc()
		log.Info("workflow found no matching frames", zap.String("query", req.Query))
		return result, nil
	}

	nearestID, annotated, _ := guidance.SelectNearest(userPoint, matches)
	nearest := annotated[0]

	g := guidance.Compute(userPoint, loc.Pose.Orientation.Yaw, nearest.Position, req.Query, nearestID)

	result.Success = true
	result.Status = domain.StatusCompleted
	result.SearchResults = annotated
	result.Guidance = &g
	result.NearestFrameID = &nearestID
	// The vision model only fills the gap when the engine itself saw nothing.
	if len(loc.DetectedObjects) == 0 {
		result.SceneDescription = s.describe(ctx, payload, ext)
	}
	result.Timing = timing()
	metrics.WorkflowRunsTotal.WithLabelValues(string(result.Status)).Inc()

	log.Info("workflow completed",
		zap.String("query", req.Query),
		zap.Int("matches", len(matches)),
		zap.Int("nearest_frame", nearestID),
		zap.Float64("distance_m", g.Distance))
	return result, nil
}

func (s *Service) validate(req Request) error {
	if isBlank(req.Query) {
		return domain.ErrEmptyQuery
	}
	return req.Image.Validate()
}

// describe is best effort: a vision failure never degrades a completed run.
func (s *Service) describe(ctx context.Context, image []byte, ext string) string {
	if s.describer == nil {
		return ""
	}
	desc, err := s.describer.Describe(ctx, image, mimeByExt(ext))
	if err != nil {
		logger.FromContext(ctx).Warn("scene description failed", zap.Error(err))
		return ""
	}
	return desc
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func mimeByExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
