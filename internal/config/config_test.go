package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(poster.DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "poster.yaml")
	if err := os.WriteFile(path, []byte("pagesacross: 4\ndpi: 150\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	expected := poster.Config{PagesAcross: 4, MarginMM: 10, DPI: 150, Orientation: "portrait"}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.yaml")
	expected := poster.Config{PagesAcross: 3, MarginMM: 7.5, DPI: 600, Orientation: "landscape"}

	if err := Save(path, expected); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()
	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("dpi: [not, a, number]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	for _, path := range []string{filepath.Join(tmpDir, "missing.yaml"), bad} {
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s) should fail", path)
		}
	}
}

func TestServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("MAX_MEGAPIXELS", "")
	t.Setenv("FLASH_TTL", "")
	t.Setenv("FLASH_LIMIT", "")

	expected := Server{Port: "8000", SecretKey: "dev-secret-key", MaxUploadBytes: 32 << 20}
	if diff := cmp.Diff(expected, ServerFromEnv()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("PORT", "9090")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("MAX_MEGAPIXELS", "40")
	t.Setenv("FLASH_TTL", "90s")
	t.Setenv("FLASH_LIMIT", "64")
	expected = Server{
		Port:           "9090",
		SecretKey:      "s3cret",
		MaxUploadBytes: 5 << 20,
		MaxPixels:      40_000_000,
		FlashTTL:       90 * time.Second,
		FlashLimit:     64,
	}
	if diff := cmp.Diff(expected, ServerFromEnv()); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("MAX_UPLOAD_MB", "lots")
	if got := ServerFromEnv().MaxUploadBytes; got != DefaultMaxUploadBytes {
		t.Errorf("unparsable MAX_UPLOAD_MB gave %d", got)
	}
}
