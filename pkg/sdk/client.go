// Package wayfinder is the Go client for the wayfinder HTTP API.
package wayfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const defaultTimeout = 90 * time.Second

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wayfinder: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client calls the wayfinder service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchAndLocalizeRequest is one workflow invocation. Exactly one of Image
// or ImageBase64 must be set.
type SearchAndLocalizeRequest struct {
	ObjectName  string
	Image       []byte
	Filename    string // defaults to "image.jpg"
	ContentType string // defaults to "image/jpeg"
	ImageBase64 string
	// OmitTiming drops the timing block from the response.
	OmitTiming bool
}

// SearchAndLocalize runs the full workflow: locate the user and guide them
// to the named object.
func (c *Client) SearchAndLocalize(ctx context.Context, req SearchAndLocalizeRequest) (*WorkflowResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("object_name", req.ObjectName); err != nil {
		return nil, fmt.Errorf("wayfinder: build form: %w", err)
	}
	if req.OmitTiming {
		if err := w.WriteField("include_timing", "false"); err != nil {
			return nil, fmt.Errorf("wayfinder: build form: %w", err)
		}
	}

	switch {
	case len(req.Image) > 0:
		filename := req.Filename
		if filename == "" {
			filename = "image.jpg"
		}
		contentType := req.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("wayfinder: build form: %w", err)
		}
		if _, err := part.Write(req.Image); err != nil {
			return nil, fmt.Errorf("wayfinder: build form: %w", err)
		}
	case req.ImageBase64 != "":
		if err := w.WriteField("image_base64", req.ImageBase64); err != nil {
			return nil, fmt.Errorf("wayfinder: build form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("wayfinder: build form: %w", err)
	}

	var out WorkflowResult
	if err := c.do(ctx, http.MethodPost, "/search-and-localize", &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search queries the frame catalogue without localizing.
func (c *Client) Search(ctx context.Context, objectName string) (*SearchResult, error) {
	body, err := json.Marshal(map[string]string{"object_name": objectName})
	if err != nil {
		return nil, fmt.Errorf("wayfinder: encode request: %w", err)
	}

	var out SearchResult
	if err := c.do(ctx, http.MethodPost, "/search", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the service health report. A degraded service returns the
// report together with an *APIError carrying the 503.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	var out HealthReport
	if err := c.do(ctx, http.MethodGet, "/health", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("wayfinder: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wayfinder: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wayfinder: decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var wire struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &wire) == nil && wire.Code != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: wire.Code, Message: wire.Message}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       "unexpected_response",
		Message:    strings.TrimSpace(string(raw)),
	}
}
