package frames

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// Compile-time check: RedisLoader implements Loader.
var _ Loader = (*RedisLoader)(nil)

// RedisLoader reads frames stored as JSON strings under <prefix>frame:<id>.
type RedisLoader struct {
	client rueidis.Client
	prefix string
}

// RedisConfig holds connection parameters for a Redis map store.
type RedisConfig struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// NewRedisLoader connects to the Redis map store via rueidis.
func NewRedisLoader(cfg RedisConfig) (*RedisLoader, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	return &RedisLoader{client: client, prefix: cfg.KeyPrefix}, nil
}

// Load scans for frame keys and fetches their JSON values in batches.
func (l *RedisLoader) Load(ctx context.Context) ([]domain.FrameRecord, error) {
	pattern := l.prefix + "frame:*"

	var keys []string
	var cursor uint64
	for {
		entry, err := l.client.Do(ctx,
			l.client.B().Scan().Cursor(cursor).Match(pattern).Count(200).Build(),
		).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", pattern, err)
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = l.client.B().Get().Key(key).Build()
	}

	out := make([]domain.FrameRecord, 0, len(keys))
	for i, res := range l.client.DoMulti(ctx, cmds...) {
		raw, err := res.AsBytes()
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", keys[i], err)
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// Close shuts down the client.
func (l *RedisLoader) Close() error {
	l.client.Close()
	return nil
}
