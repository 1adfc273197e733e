package compress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompressCallsService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart request: %v", err)
		}
		if r.FormValue("maxDimension") != "2048" || r.FormValue("quality") != "85" {
			t.Errorf("constraints not forwarded: %v", r.Form)
		}
		if _, err := w.Write([]byte("small")); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	adapter := NewAdapter()
	adapter.BaseURL = server.URL

	got := adapter.Compress(context.Background(), "a.jpg", []byte("original image bytes"))
	if string(got) != "small" {
		t.Errorf("expected compressed bytes, got %q", got)
	}
}

func TestCompressFallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewAdapter()
	adapter.BaseURL = server.URL

	original := []byte("original image bytes")
	if got := adapter.Compress(context.Background(), "a.jpg", original); string(got) != string(original) {
		t.Error("service error should fall back to original bytes")
	}
}

func TestCompressDisabledWithoutEndpoint(t *testing.T) {
	adapter := NewAdapter()
	adapter.BaseURL = ""

	original := []byte("original image bytes")
	if got := adapter.Compress(context.Background(), "a.jpg", original); string(got) != string(original) {
		t.Error("unconfigured adapter should pass originals through")
	}
}
