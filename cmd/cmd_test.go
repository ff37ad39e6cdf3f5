package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lehigh-university-libraries/poster-splitter/internal/config"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
)

func writePNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), 100, uint8(y), 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	tmpDir := t.TempDir()
	input := writePNG(t, tmpDir, 40, 30)
	output := filepath.Join(tmpDir, "poster.pdf")

	if _, err := runRoot(t, "convert", input, "-o", output, "--pages-across", "2", "--dpi", "72"); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output is not a PDF")
	}
}

func TestConvertCommandRejectsLowDPI(t *testing.T) {
	tmpDir := t.TempDir()
	input := writePNG(t, tmpDir, 10, 10)
	output := filepath.Join(tmpDir, "poster.pdf")

	_, err := runRoot(t, "convert", input, "-o", output, "--dpi", "71")
	if !errors.Is(err, poster.ErrInvalidResolution) {
		t.Fatalf("Expected ErrInvalidResolution, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("no output file should be left behind")
	}
}

func TestConvertCommandRemovesOutputOnDecodeError(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(input, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	output := filepath.Join(tmpDir, "poster.pdf")

	_, err := runRoot(t, "convert", input, "-o", output)
	if !errors.Is(err, poster.ErrUnreadableImage) {
		t.Fatalf("Expected ErrUnreadableImage, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("partial output should be removed")
	}
}

func TestPlanCommand(t *testing.T) {
	tmpDir := t.TempDir()
	input := writePNG(t, tmpDir, 100, 100)

	out, err := runRoot(t, "plan", input, "--pages-across", "1")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{"pages: 1", "rows: 1", "cols: 1", "tilewidthpx: 2244", "tileheightpx: 3272"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output is missing %q:\n%s", want, out)
		}
	}
}

func TestPlanCommandConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	input := writePNG(t, tmpDir, 100, 100)
	cfgPath := filepath.Join(tmpDir, "poster.yaml")
	if err := os.WriteFile(cfgPath, []byte("pagesacross: 3\ndpi: 72\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	// --dpi on the command line wins over the file
	out, err := runRoot(t, "plan", input, "--config", cfgPath, "--dpi", "150")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{"pagesacross: 3", "dpi: 150", "cols: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output is missing %q:\n%s", want, out)
		}
	}
}

func TestPlanCommandSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	input := writePNG(t, tmpDir, 100, 100)
	cfgPath := filepath.Join(tmpDir, "saved.yaml")

	if _, err := runRoot(t, "plan", input, "--pages-across", "4", "--margin", "5", "--dpi", "150", "--save-config", cfgPath); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	expected := poster.Config{PagesAcross: 4, MarginMM: 5, DPI: 150, Orientation: "portrait"}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("saved config mismatch (-want +got):\n%s", diff)
	}

	// a failed plan leaves nothing behind
	badPath := filepath.Join(tmpDir, "bad.yaml")
	if _, err := runRoot(t, "plan", input, "--dpi", "10", "--save-config", badPath); !errors.Is(err, poster.ErrInvalidResolution) {
		t.Fatalf("Expected ErrInvalidResolution, got %v", err)
	}
	if _, statErr := os.Stat(badPath); !os.IsNotExist(statErr) {
		t.Errorf("config should not be saved when planning fails")
	}
}

func TestPlanCommandPixelLimit(t *testing.T) {
	input := writePNG(t, t.TempDir(), 1, 20)

	_, err := runRoot(t, "plan", input, "--pages-across", "1", "--dpi", "72", "--max-megapixels", "1")
	if !errors.Is(err, poster.ErrImageTooLarge) {
		t.Fatalf("Expected ErrImageTooLarge, got %v", err)
	}
}

func TestPlanCommandURL(t *testing.T) {
	input := writePNG(t, t.TempDir(), 60, 120)
	data, err := os.ReadFile(input)
	if err != nil {
		t.Fatalf("Failed to read image: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer server.Close()

	out, err := runRoot(t, "plan", server.URL+"/photo.png", "--pages-across", "1", "--dpi", "72")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	// 539 px wide at 1:2 needs 1078 px, two 785 px rows
	for _, want := range []string{"rows: 2", "sourcewidthpx: 60", "sourceheightpx: 120"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output is missing %q:\n%s", want, out)
		}
	}
}
