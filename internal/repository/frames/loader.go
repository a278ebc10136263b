// Package frames loads the pre-mapped frame catalogue from a backing store.
// Loading happens once at startup; the running service serves queries from
// the in-memory index, never from the store.
package frames

import (
	"context"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// Loader reads every frame record from a map store.
type Loader interface {
	// Load returns all frame records. Order is driver-defined; callers sort.
	Load(ctx context.Context) ([]domain.FrameRecord, error)
	// Close releases the underlying store handle.
	Close() error
}

// record is the serialized form shared by the JSON-valued drivers (redis, bolt).
type record struct {
	FrameID            int      `json:"frame_id"`
	X                  float64  `json:"x"`
	Y                  float64  `json:"y"`
	ObjectDescriptions []string `json:"object_descriptions"`
}

func (r record) toDomain() domain.FrameRecord {
	return domain.FrameRecord{
		FrameID:            r.FrameID,
		Position:           domain.Point{X: r.X, Y: r.Y},
		ObjectDescriptions: r.ObjectDescriptions,
	}
}
