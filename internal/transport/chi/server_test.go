package chi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wayfinder/internal/domain"
	"github.com/kailas-cloud/wayfinder/internal/frameindex"
	"github.com/kailas-cloud/wayfinder/internal/transport/slam"
	healthuc "github.com/kailas-cloud/wayfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/wayfinder/internal/usecase/search"
	staginguc "github.com/kailas-cloud/wayfinder/internal/usecase/staging"
	workflowuc "github.com/kailas-cloud/wayfinder/internal/usecase/workflow"
)

// engineResponse is what the fake localization engine returns.
type engineResponse struct {
	status int
	body   map[string]any
	delay  time.Duration
}

func successfulPose(x, y, yaw float64) engineResponse {
	return engineResponse{
		status: http.StatusOK,
		body: map[string]any{
			"localization_successful": true,
			"x":                       x, "y": y, "z": 0.0,
			"roll": 0.0, "pitch": 0.0, "yaw": yaw,
			"objects":    []string{"door"},
			"pic_id":     "pic-1",
			"elapsed_ms": 120.0,
		},
	}
}

func noPose() engineResponse {
	return engineResponse{
		status: http.StatusOK,
		body:   map[string]any{"localization_successful": false},
	}
}

func testIndex() *frameindex.Index {
	return frameindex.New([]domain.FrameRecord{
		{FrameID: 1, Position: domain.Point{X: 3, Y: 0}, ObjectDescriptions: []string{"Orange Door: main entrance"}},
		{FrameID: 2, Position: domain.Point{X: 10, Y: 10}, ObjectDescriptions: []string{"office door, glass"}},
		{FrameID: 3, Position: domain.Point{X: -5, Y: 2}, ObjectDescriptions: []string{"Fire extinguisher"}},
	})
}

// newTestRouter wires the full stack against a fake engine.
func newTestRouter(t *testing.T, engine engineResponse) http.Handler {
	t.Helper()

	engineSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine.delay > 0 {
			time.Sleep(engine.delay)
		}
		w.WriteHeader(engine.status)
		if engine.body != nil {
			_ = json.NewEncoder(w).Encode(engine.body)
		}
	}))
	t.Cleanup(engineSrv.Close)

	return newRouterWithEngineURL(t, engineSrv.URL)
}

func newRouterWithEngineURL(t *testing.T, engineURL string) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	index := testIndex()
	localizer := slam.NewClient(&slam.Config{
		BaseURL:       engineURL,
		Timeout:       2 * time.Second,
		MaxConcurrent: 1,
		Logger:        logger,
	})
	stager := staginguc.New(t.TempDir(), logger)

	server := NewServer(
		workflowuc.New(index, stager, localizer, nil),
		searchuc.New(index),
		healthuc.New(localizer, index),
		"test",
		"/tmp/wayfinder-test",
		logger,
	)

	r := gochi.NewRouter()
	server.Routes(r)
	return r
}

// multipartBody builds a search-and-localize form.
func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="scene.jpg"`)
		hdr.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postWorkflow(t *testing.T, router http.Handler, fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, withImage)
	req := httptest.NewRequest(http.MethodPost, "/search-and-localize", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestSearchAndLocalize_Completed(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	rr := postWorkflow(t, router, map[string]string{"object_name": "door"}, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "completed", body["workflow_status"])
	assert.Equal(t, float64(2), body["total_matches"])
	assert.Equal(t, true, body["multiple_frames_found"])
	assert.Equal(t, float64(1), body["nearest_frame_id"])

	guidance, ok := body["navigation_guidance"].(map[string]any)
	require.True(t, ok, "navigation_guidance missing")
	assert.Equal(t, float64(3), guidance["distance"])
	assert.Equal(t, "Continue straight", guidance["turn_instruction"])
	assert.Equal(t, float64(12), guidance["clock_position"])
	assert.Equal(t, false, guidance["is_at_location"])

	assert.Equal(t, float64(3), body["total_distance_to_target"])
	assert.NotNil(t, body["localization_results"])
	assert.NotNil(t, body["timing_ms"])
}

func TestSearchAndLocalize_Base64Image(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	rr := postWorkflow(t, router, map[string]string{
		"object_name":  "door",
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	}, false)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "completed", decodeBody(t, rr)["workflow_status"])
}

func TestSearchAndLocalize_NoMatches(t *testing.T) {
	router := newTestRouter(t, successfulPose(1, 2, 0.3))

	rr := postWorkflow(t, router, map[string]string{"object_name": "elevator"}, true)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	// Position was determined, so the run counts as a success.
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "no_matches", body["workflow_status"])
	assert.Equal(t, float64(0), body["total_matches"])
	// The user's position is still reported.
	require.NotNil(t, body["localization_results"])
	assert.Nil(t, body["navigation_guidance"])
}

func TestSearchAndLocalize_LocalizationFailed(t *testing.T) {
	router := newTestRouter(t, noPose())

	rr := postWorkflow(t, router, map[string]string{"object_name": "door"}, true)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "localization_failed", body["workflow_status"])
	assert.Nil(t, body["localization_results"])
	assert.Nil(t, body["navigation_guidance"])
	// Matches found before the failure survive, without distances.
	results, ok := body["search_results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestSearchAndLocalize_EngineDown(t *testing.T) {
	router := newRouterWithEngineURL(t, "http://localhost:1")

	rr := postWorkflow(t, router, map[string]string{"object_name": "door"}, true)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "error", body["workflow_status"])
	assert.Equal(t, "localizer_unavailable", body["code"])
}

func TestSearchAndLocalize_ValidationErrors(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	tests := []struct {
		name      string
		fields    map[string]string
		withImage bool
	}{
		{"missing object_name", map[string]string{}, true},
		{"missing image", map[string]string{"object_name": "door"}, false},
		{"both image and base64", map[string]string{
			"object_name":  "door",
			"image_base64": base64.StdEncoding.EncodeToString([]byte("x")),
		}, true},
		{"invalid base64", map[string]string{
			"object_name":  "door",
			"image_base64": "not@base64!!",
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postWorkflow(t, router, tc.fields, tc.withImage)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, "validation_failed", decodeBody(t, rr)["code"])
		})
	}
}

func TestSearchAndLocalize_OversizedUploadRejectedWithoutDiskSpill(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	// Multipart parsing spills large parts into os.TempDir; point it at an
	// observable directory to prove the oversized body never reaches disk.
	// Set after the router is built so its own temp dirs land elsewhere.
	spillDir := t.TempDir()
	t.Setenv("TMPDIR", spillDir)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("object_name", "door"))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="huge.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 12<<20))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/search-and-localize", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	assert.Equal(t, "validation_failed", decodeBody(t, rr)["code"])

	entries, err := os.ReadDir(spillDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must not leave multipart temp files")
}

func TestSearchAndLocalize_TimingOmitted(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	rr := postWorkflow(t, router, map[string]string{
		"object_name":    "door",
		"include_timing": "false",
	}, true)
	require.Equal(t, http.StatusOK, rr.Code)

	_, present := decodeBody(t, rr)["timing_ms"]
	assert.False(t, present)
}

func TestSearch_Endpoint(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"object_name":"door"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total_matches"])

	results := body["search_results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, float64(1), first["frame_id"])
	_, hasDistance := first["distance_from_user"]
	assert.False(t, hasDistance, "standalone search carries no distances")
}

func TestSearch_EmptyQuery(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"object_name":"  "}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth_OKAndDegraded(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["frame_count"])

	down := newRouterWithEngineURL(t, "http://localhost:1")
	rr = httptest.NewRecorder()
	down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", decodeBody(t, rr)["status"])
}

func TestStatus_Snapshot(t *testing.T) {
	router := newTestRouter(t, successfulPose(0, 0, 0))

	req := httptest.NewRequest(http.MethodGet, "/status", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "wayfinder", body["service"])
	assert.Equal(t, "test", body["env"])
	assert.Equal(t, float64(3), body["frame_count"])
}

func TestHTTPStatusFor_Totality(t *testing.T) {
	cases := map[error]int{
		domain.ErrEmptyQuery:           http.StatusBadRequest,
		domain.ErrMissingImage:         http.StatusBadRequest,
		domain.ErrConflictingInput:     http.StatusBadRequest,
		domain.ErrUnsupportedFormat:    http.StatusBadRequest,
		domain.ErrPayloadTooLarge:      http.StatusBadRequest,
		domain.ErrInvalidBase64:        http.StatusBadRequest,
		domain.ErrStaging:              http.StatusInternalServerError,
		domain.ErrLocalizerUnavailable: http.StatusServiceUnavailable,
		domain.ErrLocalizeTimeout:      http.StatusGatewayTimeout,
		errors.New("something else"):   http.StatusInternalServerError,
		context.Canceled:               http.StatusInternalServerError,
	}
	for err, want := range cases {
		status, code := httpStatusFor(err)
		assert.Equal(t, want, status, "error %v", err)
		assert.NotEmpty(t, code)
	}
}
