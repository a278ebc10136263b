// Package staging writes validated upload bytes to a scratch directory so the
// localization engine can be fed a file, and guarantees cleanup afterwards.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/metrics"
)

// Service stages upload payloads as uniquely named files.
type Service struct {
	dir    string
	logger *zap.Logger
}

// New creates a staging service rooted at dir. The directory must exist;
// main creates it at startup.
func New(dir string, logger *zap.Logger) *Service {
	return &Service{dir: dir, logger: logger}
}

// Acquire writes data to a fresh file and returns its path. Names combine a
// timestamp and a UUID so concurrent requests can never collide.
func (s *Service) Acquire(data []byte, ext string) (string, error) {
	name := fmt.Sprintf("upload_%d_%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		metrics.StagedFilesTotal.WithLabelValues("acquire", "error").Inc()
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrStaging, path, err)
	}

	metrics.StagedFilesTotal.WithLabelValues("acquire", "ok").Inc()
	return path, nil
}

// Release removes a staged file. Failure to delete is logged, never
// propagated: the workflow result must not depend on scratch cleanup.
func (s *Service) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		metrics.StagedFilesTotal.WithLabelValues("release", "error").Inc()
		s.logger.Warn("failed to remove staged file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	metrics.StagedFilesTotal.WithLabelValues("release", "ok").Inc()
}
