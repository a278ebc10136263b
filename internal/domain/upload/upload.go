// Package upload validates uploaded localization images before any expensive
// work (staging, engine calls) begins. Validation is pure: no side effects,
// every violation is reported via a domain sentinel error.
package upload

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// MaxSizeBytes is the upload size ceiling (10 MiB), checked before any
// decode or copy to avoid wasted work.
const MaxSizeBytes = 10 << 20

// allowedTypes is the fixed content-type allow-list.
var allowedTypes = map[string]struct{}{
	"image/jpeg":     {},
	"image/jpg":      {},
	"image/png":      {},
	"image/bmp":      {},
	"image/x-ms-bmp": {},
}

// extByType maps allowed content types to staged file extensions.
var extByType = map[string]string{
	"image/jpeg":     ".jpg",
	"image/jpg":      ".jpg",
	"image/png":      ".png",
	"image/bmp":      ".bmp",
	"image/x-ms-bmp": ".bmp",
}

// Input is the raw upload half of a request: exactly one of the file fields
// or Base64 must be set.
type Input struct {
	FileContent []byte
	ContentType string
	Filename    string
	HasFile     bool
	Base64      string
}

// Validate checks presence, format and size. It never touches the filesystem.
func (in Input) Validate() error {
	hasBase64 := in.Base64 != ""

	switch {
	case in.HasFile && hasBase64:
		return domain.ErrConflictingInput
	case !in.HasFile && !hasBase64:
		return domain.ErrMissingImage
	}

	if in.HasFile {
		if _, ok := allowedTypes[in.ContentType]; !ok {
			return fmt.Errorf("%w: %q (allowed: JPEG, PNG, BMP)", domain.ErrUnsupportedFormat, in.ContentType)
		}
		if len(in.FileContent) > MaxSizeBytes {
			return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrPayloadTooLarge, len(in.FileContent), MaxSizeBytes)
		}
		return nil
	}

	mime, payload := splitDataURI(in.Base64)
	if mime != "" {
		if _, ok := allowedTypes[mime]; !ok {
			return fmt.Errorf("%w: %q (allowed: JPEG, PNG, BMP)", domain.ErrUnsupportedFormat, mime)
		}
	}
	// Encoded length bounds the decoded size; reject before decoding.
	if decodedSizeUpperBound(payload) > MaxSizeBytes {
		return fmt.Errorf("%w: base64 payload decodes to more than %d bytes", domain.ErrPayloadTooLarge, MaxSizeBytes)
	}
	return nil
}

// Payload returns the raw image bytes and the extension to stage them under.
// For base64 input the data-URI prefix (if any) is stripped and the string decoded.
// Callers must run Validate first; Payload re-checks only what decoding can reveal.
func (in Input) Payload() ([]byte, string, error) {
	if in.HasFile {
		ext := filepath.Ext(in.Filename)
		if ext == "" {
			ext = extByType[in.ContentType]
		}
		if ext == "" {
			ext = ".jpg"
		}
		return in.FileContent, ext, nil
	}

	mime, payload := splitDataURI(in.Base64)
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidBase64, err)
	}
	if len(decoded) > MaxSizeBytes {
		return nil, "", fmt.Errorf("%w: %d bytes (max %d)", domain.ErrPayloadTooLarge, len(decoded), MaxSizeBytes)
	}

	ext := extByType[mime]
	if ext == "" {
		ext = ".jpg"
	}
	return decoded, ext, nil
}

// splitDataURI strips an optional "data:<mime>;base64," prefix and returns
// the declared mime type (empty for raw base64) and the encoded payload.
func splitDataURI(s string) (mime, payload string) {
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	header, rest, found := strings.Cut(s, ",")
	if !found {
		return "", s
	}
	mime = strings.TrimPrefix(header, "data:")
	mime = strings.TrimSuffix(mime, ";base64")
	return strings.ToLower(strings.TrimSpace(mime)), rest
}

// decodedSizeUpperBound estimates the decoded byte count without decoding.
func decodedSizeUpperBound(encoded string) int {
	return len(encoded) / 4 * 3
}
