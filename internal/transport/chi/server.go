// Package chi exposes the wayfinder HTTP API: the search-and-localize
// workflow, standalone object search, health and operational status.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/domain/upload"
	healthuc "github.com/kailas-cloud/wayfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/wayfinder/internal/usecase/search"
	workflowuc "github.com/kailas-cloud/wayfinder/internal/usecase/workflow"
	"github.com/kailas-cloud/wayfinder/internal/version"
)

// Server handles the wayfinder HTTP API.
type Server struct {
	workflow   *workflowuc.Service
	search     *searchuc.Service
	health     *healthuc.Service
	env        string
	stagingDir string
	startedAt  time.Time
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	workflow *workflowuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	env string,
	stagingDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		workflow:   workflow,
		search:     search,
		health:     health,
		env:        env,
		stagingDir: stagingDir,
		startedAt:  time.Now(),
		logger:     logger,
	}
}

// Routes registers all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search-and-localize", s.SearchAndLocalize)
	r.Post("/search", s.Search)
	r.Get("/health", s.Health)
	r.Get("/status", s.Status)
	r.Get("/metrics", s.Metrics)
}

// SearchAndLocalize handles POST /search-and-localize (multipart).
func (s *Server) SearchAndLocalize(w http.ResponseWriter, r *http.Request) {
	// The body is capped before parsing so an oversized upload fails while
	// still in memory. The parse threshold sits above the cap, which keeps
	// every accepted part in memory and no multipart temp file is ever
	// written to disk. The 1 MiB headroom over the payload ceiling leaves
	// the precise size check to the domain layer with a proper error.
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxSizeBytes+1<<20)
	if err := r.ParseMultipartForm(2 * upload.MaxSizeBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "validation_failed", domain.ErrPayloadTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}

	input := upload.Input{Base64: r.FormValue("image_base64")}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		content, readErr := io.ReadAll(io.LimitReader(file, upload.MaxSizeBytes+1))
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "failed to read image: "+readErr.Error())
			return
		}
		input.FileContent = content
		input.Filename = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
		input.HasFile = true
	case errors.Is(err, http.ErrMissingFile):
		// base64 path, validated by the workflow
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "invalid image part: "+err.Error())
		return
	}

	includeTiming := !strings.EqualFold(r.FormValue("include_timing"), "false")

	res, err := s.workflow.Run(r.Context(), workflowuc.Request{
		Query: r.FormValue("object_name"),
		Image: input,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workflowToWire(res, includeTiming))
}

// Search handles POST /search (search only, no image or localization).
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectName string `json:"object_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	matches, err := s.search.Find(r.Context(), req.ObjectName)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success:       true,
		ObjectName:    req.ObjectName,
		SearchResults: matchesToWire(matches),
		TotalMatches:  len(matches),
	})
}

// Health handles GET /health. Degraded components yield 503 so orchestrators
// take the instance out of rotation.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, status, map[string]any{
		"status":      string(report.Status),
		"checks":      checks,
		"frame_count": report.FrameCount,
	})
}

// Status handles GET /status, an operational snapshot for humans.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "wayfinder",
		"version":        version.Version,
		"commit":         version.Commit,
		"env":            s.env,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"frame_count":    report.FrameCount,
		"staging_dir":    s.stagingDir,
		"localization_engine": string(report.Checks["localization_engine"]),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// httpStatusFor maps a hard workflow error onto an HTTP status and error code.
// Total: every error maps somewhere; unknown errors are internal.
func httpStatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrMissingImage),
		errors.Is(err, domain.ErrConflictingInput),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrPayloadTooLarge),
		errors.Is(err, domain.ErrInvalidBase64):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrLocalizerUnavailable):
		return http.StatusServiceUnavailable, "localizer_unavailable"
	case errors.Is(err, domain.ErrLocalizeTimeout):
		return http.StatusGatewayTimeout, "localize_timeout"
	case errors.Is(err, domain.ErrStaging):
		return http.StatusInternalServerError, "staging_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrMissingImage,
		domain.ErrConflictingInput,
		domain.ErrUnsupportedFormat,
		domain.ErrPayloadTooLarge,
		domain.ErrInvalidBase64,
		domain.ErrStaging,
		domain.ErrLocalizerUnavailable,
		domain.ErrLocalizeTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	status, code := httpStatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Warn("domain error", zap.Error(err))
	}
	writeError(w, status, code, safeDomainMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Success:        false,
		WorkflowStatus: string(domain.StatusError),
		Code:           code,
		Message:        message,
	})
}
