package search

import "github.com/kailas-cloud/wayfinder/internal/domain"

// FrameSearcher queries the in-memory frame index.
type FrameSearcher interface {
	Search(query string) []domain.SearchMatch
	Len() int
}
