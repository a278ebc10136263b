// Package frameindex holds the in-memory searchable index of map frames.
// The index is built once at startup from a frames.Loader and never mutated
// afterwards, so concurrent readers need no locking.
package frameindex

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// Index is an immutable frame catalogue with case-insensitive substring
// search over object descriptions.
type Index struct {
	frames []domain.FrameRecord
	// loweredDescs[i][j] is frames[i].ObjectDescriptions[j] lowercased,
	// precomputed so every query lowercases only its own input.
	loweredDescs [][]string
}

// New builds an index from loaded frame records. Frames are ordered by
// ascending frame id so search output is deterministic regardless of the
// loader's iteration order.
func New(frames []domain.FrameRecord) *Index {
	sorted := make([]domain.FrameRecord, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FrameID < sorted[j].FrameID })

	lowered := make([][]string, len(sorted))
	for i, f := range sorted {
		ds := make([]string, len(f.ObjectDescriptions))
		for j, d := range f.ObjectDescriptions {
			ds[j] = strings.ToLower(d)
		}
		lowered[i] = ds
	}

	return &Index{frames: sorted, loweredDescs: lowered}
}

// Len returns the number of indexed frames.
func (ix *Index) Len() int {
	return len(ix.frames)
}

// Search returns every frame with at least one object description containing
// the query as a case-insensitive substring, ordered by ascending frame id.
// Each match carries only the descriptions that matched. A blank query
// matches nothing.
func (ix *Index) Search(query string) []domain.SearchMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []domain.SearchMatch
	for i, f := range ix.frames {
		var matched []string
		for j, ld := range ix.loweredDescs[i] {
			if strings.Contains(ld, q) {
				matched = append(matched, f.ObjectDescriptions[j])
			}
		}
		if len(matched) > 0 {
			matches = append(matches, domain.SearchMatch{
				FrameID:             f.FrameID,
				Position:            f.Position,
				MatchedDescriptions: matched,
			})
		}
	}
	return matches
}
