package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"airplayhls/internal/aplist"
	"airplayhls/internal/fcup"
)

func newTestServer() (*Server, *fakeCallbacks) {
	cb := &fakeCallbacks{}
	s := New(testRegistry(), testLogger(), fcup.New(), nil, cb, DefaultServerInfo())
	return s, cb
}

func TestServerInfo(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/server-info", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != plistContentType {
		t.Fatalf("content-type = %q, want %q", ct, plistContentType)
	}
	dict, err := aplist.Decode(w.Body.Bytes())
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v, _ := dict.String("model"); v != "AppleTV3,2" {
		t.Fatalf("model = %q", v)
	}
	if v, _ := dict.UInt("features"); v != FeatureBits {
		t.Fatalf("features = %d, want %d", v, FeatureBits)
	}
}

func TestRouterUnknownPath404s(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/not-a-route", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func bodyReader(s string) *strings.Reader { return strings.NewReader(s) }
