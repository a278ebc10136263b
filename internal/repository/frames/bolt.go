package frames

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// framesBucket holds one JSON record per frame, keyed by the decimal frame id.
const framesBucket = "frames"

// Compile-time check: BoltLoader implements Loader.
var _ Loader = (*BoltLoader)(nil)

// BoltLoader reads frames from a bbolt map file.
type BoltLoader struct {
	db *bbolt.DB
}

// NewBoltLoader opens the map file read-only.
func NewBoltLoader(path string) (*BoltLoader, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:  time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt map store: %w", err)
	}
	return &BoltLoader{db: db}, nil
}

// Load iterates the frames bucket. The context is checked between records so
// a cancelled startup does not walk the whole file.
func (l *BoltLoader) Load(ctx context.Context) ([]domain.FrameRecord, error) {
	var out []domain.FrameRecord

	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(framesBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", framesBucket)
		}
		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode frame %s: %w", k, err)
			}
			out = append(out, rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	return out, nil
}

// Close closes the map file.
func (l *BoltLoader) Close() error {
	return l.db.Close()
}
