// Package slam is the HTTP client for the external localization engine.
// The engine holds the pre-built map and turns a camera image into a pose;
// this client owns the wire format, the per-call deadline and the slot
// semaphore that protects the engine from concurrent processing.
package slam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/metrics"
)

// Config holds the localization engine settings.
type Config struct {
	BaseURL string
	// Timeout bounds one localization call end to end.
	Timeout time.Duration
	// MaxConcurrent is the number of engine slots. The engine processes one
	// image at a time, so this is 1 unless the engine says otherwise.
	MaxConcurrent  int
	ReadyCheckPath string
	Logger         *zap.Logger
}

// Client calls the localization engine over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	readyPath  string
	slots      chan struct{}
	logger     *zap.Logger
}

// localizeResponse is the engine's wire format.
type localizeResponse struct {
	LocalizationSuccessful bool     `json:"localization_successful"`
	X                      float64  `json:"x"`
	Y                      float64  `json:"y"`
	Z                      float64  `json:"z"`
	Roll                   float64  `json:"roll"`
	Pitch                  float64  `json:"pitch"`
	Yaw                    float64  `json:"yaw"`
	Objects                []string `json:"objects"`
	PicID                  string   `json:"pic_id"`
	ElapsedMs              float64  `json:"elapsed_ms"`
}

// NewClient creates a localization engine client.
func NewClient(cfg *Config) *Client {
	slots := cfg.MaxConcurrent
	if slots < 1 {
		slots = 1
	}
	readyPath := cfg.ReadyCheckPath
	if readyPath == "" {
		readyPath = "/health"
	}

	return &Client{
		// The overall deadline lives on the request context; the http.Client
		// itself stays unbounded so slot wait time is not double-counted.
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		readyPath:  readyPath,
		slots:      make(chan struct{}, slots),
		logger:     cfg.Logger,
	}
}

// Localize sends the staged image to the engine and returns the resulting
// pose. It blocks until an engine slot is free or ctx is done; the configured
// timeout starts only once the slot is held.
func (c *Client) Localize(ctx context.Context, imagePath string) (domain.Localization, error) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		metrics.LocalizationRequestsTotal.WithLabelValues("timeout").Inc()
		return domain.Localization{}, fmt.Errorf("%w: waiting for engine slot: %v", domain.ErrLocalizeTimeout, ctx.Err())
	}
	defer func() { <-c.slots }()

	metrics.LocalizationInFlight.Inc()
	defer metrics.LocalizationInFlight.Dec()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	loc, err := c.localize(ctx, imagePath)
	elapsed := time.Since(start)

	if err != nil {
		metrics.LocalizationRequestsTotal.WithLabelValues(resultLabel(err)).Inc()
		return domain.Localization{}, err
	}

	metrics.LocalizationRequestsTotal.WithLabelValues("success").Inc()
	c.logger.Debug("localization succeeded",
		zap.String("pic_id", loc.PictureID),
		zap.Duration("elapsed", elapsed),
		zap.Float64("engine_ms", loc.ProcessingTimeMs))
	return loc, nil
}

func (c *Client) localize(ctx context.Context, imagePath string) (domain.Localization, error) {
	body, contentType, err := multipartFile(imagePath)
	if err != nil {
		return domain.Localization{}, fmt.Errorf("%w: read staged image: %v", domain.ErrStaging, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/localize", body)
	if err != nil {
		return domain.Localization{}, fmt.Errorf("build localize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return domain.Localization{}, fmt.Errorf("%w after %s", domain.ErrLocalizeTimeout, c.timeout)
		case errors.Is(err, context.Canceled):
			// The caller went away; the engine itself is fine.
			return domain.Localization{}, fmt.Errorf("localize canceled: %w", err)
		default:
			return domain.Localization{}, fmt.Errorf("%w: %v", domain.ErrLocalizerUnavailable, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Localization{}, fmt.Errorf("%w: engine returned %d: %s",
			domain.ErrLocalizerUnavailable, resp.StatusCode, raw)
	}

	var wire localizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return domain.Localization{}, fmt.Errorf("%w: decode engine response: %v", domain.ErrLocalizerUnavailable, err)
	}

	if !wire.LocalizationSuccessful {
		return domain.Localization{}, domain.ErrNoConfidentPose
	}

	return domain.Localization{
		Pose: domain.Pose{
			Position:    domain.Position{X: wire.X, Y: wire.Y, Z: wire.Z},
			Orientation: domain.Orientation{Roll: wire.Roll, Pitch: wire.Pitch, Yaw: wire.Yaw},
		},
		DetectedObjects:  wire.Objects,
		PictureID:        wire.PicID,
		ProcessingTimeMs: wire.ElapsedMs,
	}, nil
}

// Ready checks engine availability.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.readyPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("build ready request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLocalizerUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ready check returned %d", domain.ErrLocalizerUnavailable, resp.StatusCode)
	}
	return nil
}

// multipartFile builds a multipart body with the image under the "image" field.
func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoConfidentPose):
		return "no_pose"
	case errors.Is(err, domain.ErrLocalizeTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrLocalizerUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
