package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAuthHandler(apiKeys []string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return BearerAuthMiddleware(apiKeys)(ok)
}

func doAuthRequest(h http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth_Disabled(t *testing.T) {
	h := newAuthHandler(nil)

	if rr := doAuthRequest(h, "/search", ""); rr.Code != http.StatusOK {
		t.Errorf("expected pass-through with no keys, got %d", rr.Code)
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	h := newAuthHandler([]string{"secret-1", "secret-2"})

	if rr := doAuthRequest(h, "/search", "Bearer secret-2"); rr.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rr.Code)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := newAuthHandler([]string{"secret"})

	if rr := doAuthRequest(h, "/search", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rr.Code)
	}
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	h := newAuthHandler([]string{"secret"})

	if rr := doAuthRequest(h, "/search", "Basic c2VjcmV0"); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-Bearer scheme, got %d", rr.Code)
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	h := newAuthHandler([]string{"secret"})

	if rr := doAuthRequest(h, "/search", "Bearer wrong"); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", rr.Code)
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	h := newAuthHandler([]string{"secret"})

	for _, path := range []string{"/health", "/metrics"} {
		if rr := doAuthRequest(h, path, ""); rr.Code != http.StatusOK {
			t.Errorf("expected %s to be exempt, got %d", path, rr.Code)
		}
	}
}

func TestBearerAuth_EmptyKeysFiltered(t *testing.T) {
	// Blank keys must not silently disable auth for everyone.
	h := newAuthHandler([]string{"", "secret"})

	if rr := doAuthRequest(h, "/search", "Bearer "); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for empty token, got %d", rr.Code)
	}
	if rr := doAuthRequest(h, "/search", "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("expected 200 for valid token, got %d", rr.Code)
	}
}
