// Package search answers object queries against the loaded frame catalogue
// without requiring a camera image or localization.
package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/logger"
	"github.com/kailas-cloud/wayfinder/internal/metrics"
)

// Service runs standalone object searches.
type Service struct {
	index FrameSearcher
}

// New creates a Service.
func New(index FrameSearcher) *Service {
	return &Service{index: index}
}

// Find returns all frames whose object descriptions match the query.
// A blank query is a validation error, not an empty result.
func (s *Service) Find(ctx context.Context, query string) ([]domain.SearchMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	matches := s.index.Search(query)

	result := "hit"
	if len(matches) == 0 {
		result = "miss"
	}
	metrics.SearchQueriesTotal.WithLabelValues(result).Inc()

	logger.FromContext(ctx).Debug("object search",
		zap.String("query", query),
		zap.Int("matches", len(matches)))

	return matches, nil
}
