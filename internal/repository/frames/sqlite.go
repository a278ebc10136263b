package frames

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// Compile-time check: SQLiteLoader implements Loader.
var _ Loader = (*SQLiteLoader)(nil)

// SQLiteLoader reads frames from a SQLite map file. Object descriptions are
// stored as a JSON array in the descriptions column.
type SQLiteLoader struct {
	db *sqlx.DB
}

type sqliteRow struct {
	FrameID      int     `db:"frame_id"`
	X            float64 `db:"x"`
	Y            float64 `db:"y"`
	Descriptions string  `db:"descriptions"`
}

// NewSQLiteLoader opens the map database read-only.
func NewSQLiteLoader(path string) (*SQLiteLoader, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite map store: %w", err)
	}
	return &SQLiteLoader{db: db}, nil
}

// Load reads every frame row.
func (l *SQLiteLoader) Load(ctx context.Context) ([]domain.FrameRecord, error) {
	var rows []sqliteRow
	err := l.db.SelectContext(ctx, &rows,
		`SELECT frame_id, x, y, descriptions FROM frames`)
	if err != nil {
		return nil, fmt.Errorf("select frames: %w", err)
	}

	out := make([]domain.FrameRecord, 0, len(rows))
	for _, r := range rows {
		var descs []string
		if err := json.Unmarshal([]byte(r.Descriptions), &descs); err != nil {
			return nil, fmt.Errorf("frame %d: decode descriptions: %w", r.FrameID, err)
		}
		out = append(out, domain.FrameRecord{
			FrameID:            r.FrameID,
			Position:           domain.Point{X: r.X, Y: r.Y},
			ObjectDescriptions: descs,
		})
	}
	return out, nil
}

// Close closes the database handle.
func (l *SQLiteLoader) Close() error {
	return l.db.Close()
}
