package workflow

import (
	"context"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// Localizer turns a staged camera image into a pose via the external engine.
type Localizer interface {
	Localize(ctx context.Context, imagePath string) (domain.Localization, error)
}

// Stager persists upload bytes for the engine and cleans them up afterwards.
type Stager interface {
	Acquire(data []byte, ext string) (string, error)
	Release(path string)
}

// Searcher queries the in-memory frame index.
type Searcher interface {
	Search(query string) []domain.SearchMatch
}

// SceneDescriber produces a short natural-language description of an image.
// Optional: a nil describer disables descriptions entirely.
type SceneDescriber interface {
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}
