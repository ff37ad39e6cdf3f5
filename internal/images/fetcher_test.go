package images

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		source   string
		expected bool
	}{
		{"http://example.org/a.png", true},
		{"https://example.org/a.png", true},
		{"photo.png", false},
		{"/tmp/http.png", false},
		{"ftp://example.org/a.png", false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.source); got != tt.expected {
			t.Errorf("IsURL(%q) = %v, want %v", tt.source, got, tt.expected)
		}
	}
}

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, []byte("pixels"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	rc, err := NewFetcher().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "pixels" {
		t.Errorf("Expected file contents, got %q", data)
	}

	if _, err := NewFetcher().Open(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestOpenURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("remote pixels"))
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher()
	f.MaxBytes = 1024

	rc, err := f.Open(context.Background(), server.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "remote pixels" {
		t.Errorf("Expected downloaded body, got %q", data)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"not found", "/missing.png", "HTTP 404"},
		{"too large", "/big.png", "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Open(context.Background(), server.URL+tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOpenURLCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher().Open(ctx, server.URL); err == nil {
		t.Error("Expected error for canceled context")
	}
}
