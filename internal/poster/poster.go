// Package poster turns one raster image into a multi-page A4 PDF poster.
//
// Create is the entry point. It validates the configuration, decodes the
// image, plans the tile grid, composes the tiles and assembles the PDF, all
// within the call. Nothing is shared between calls, so concurrent
// conversions are independent and an abandoned call leaves nothing behind.
package poster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/poster-splitter/internal/canvas"
	"github.com/lehigh-university-libraries/poster-splitter/internal/document"
	"github.com/lehigh-university-libraries/poster-splitter/internal/layout"
	"github.com/lehigh-university-libraries/poster-splitter/internal/units"
)

const (
	DefaultPagesAcross = 2
	DefaultMarginMM    = 10.0
	DefaultDPI         = 300
	DefaultOrientation = "portrait"

	MinDPI = 72

	// DefaultMaxPixels bounds both the decoded image and the poster canvas,
	// about 1 GB of RGBA each.
	DefaultMaxPixels = 250_000_000
)

// Validation failures. Each is scoped to a single request and never
// retried.
var (
	ErrUnreadableImage   = errors.New("the file could not be read as an image")
	ErrInvalidPageCount  = layout.ErrInvalidPageCount
	ErrInvalidMargin     = layout.ErrInvalidMargin
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrImageTooLarge     = errors.New("image too large")
)

// Config holds the user's choices for one poster.
type Config struct {
	PagesAcross int     `json:"pages_across" yaml:"pagesacross"`
	MarginMM    float64 `json:"margin_mm" yaml:"marginmm"`
	DPI         int     `json:"dpi" yaml:"dpi"`
	// Orientation is accepted for compatibility with the upload form but
	// does not influence the layout.
	Orientation string `json:"orientation" yaml:"orientation"`

	// MaxPixels caps the decoded image and the poster canvas. Zero means
	// DefaultMaxPixels.
	MaxPixels int64 `json:"max_pixels,omitempty" yaml:"maxpixels,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		PagesAcross: DefaultPagesAcross,
		MarginMM:    DefaultMarginMM,
		DPI:         DefaultDPI,
		Orientation: DefaultOrientation,
	}
}

// Validate reports the first problem with c. It never adjusts values.
func (c Config) Validate() error {
	if c.PagesAcross < 1 {
		return fmt.Errorf("%w: use at least one page across, got %d", ErrInvalidPageCount, c.PagesAcross)
	}
	if math.IsNaN(c.MarginMM) || math.IsInf(c.MarginMM, 0) {
		return fmt.Errorf("%w: margin must be a number of millimeters, got %g", ErrInvalidMargin, c.MarginMM)
	}
	if c.MarginMM < 0 {
		return fmt.Errorf("%w: margin cannot be negative, got %g mm", ErrInvalidMargin, c.MarginMM)
	}
	if _, _, err := layout.PrintableArea(c.MarginMM); err != nil {
		return fmt.Errorf("%w; choose a smaller margin", err)
	}
	if c.DPI < MinDPI {
		return fmt.Errorf("%w: choose %d dpi or higher for a clean print, got %d", ErrInvalidResolution, MinDPI, c.DPI)
	}

	// The canvas is at least one tile row tall, so this bound holds for any
	// image and is computed in floating point to stay clear of overflow.
	printableWidth, printableHeight, _ := layout.PrintableArea(c.MarginMM)
	minCanvas := float64(c.PagesAcross) * units.MMToInches(printableWidth) * units.MMToInches(printableHeight) * float64(c.DPI) * float64(c.DPI)
	if minCanvas > float64(c.pixelLimit()) {
		return fmt.Errorf("%w: %d pages across at %d dpi needs over %d megapixels; use fewer pages or a lower dpi",
			ErrImageTooLarge, c.PagesAcross, c.DPI, c.pixelLimit()/1_000_000)
	}
	return nil
}

func (c Config) pixelLimit() int64 {
	if c.MaxPixels > 0 {
		return c.MaxPixels
	}
	return DefaultMaxPixels
}

func checkPixels(what string, width, height int, limit int64) error {
	if float64(width)*float64(height) > float64(limit) {
		return fmt.Errorf("%w: the %s would be %dx%d pixels, the limit is %d megapixels",
			ErrImageTooLarge, what, width, height, limit/1_000_000)
	}
	return nil
}

// Decode reads an image and flattens it to opaque RGBA.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrUnreadableImage)
	}
	slog.Debug("Decoded image", "format", format, "width", b.Dx(), "height", b.Dy())
	return canvas.Flatten(img), nil
}

// Plan validates cfg, reads the image header and returns its page layout without
// rendering anything.
func Plan(r io.Reader, cfg Config) (layout.Plan, error) {
	if err := cfg.Validate(); err != nil {
		return layout.Plan{}, err
	}
	return planFromHeader(r, cfg)
}

// planFromHeader reads only the image header and plans the poster, refusing
// sources or canvases over the pixel limit before anything is allocated.
func planFromHeader(r io.Reader, cfg Config) (layout.Plan, error) {
	img, _, err := image.DecodeConfig(r)
	if err != nil {
		return layout.Plan{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return layout.Plan{}, fmt.Errorf("%w: image has no pixels", ErrUnreadableImage)
	}
	if err := checkPixels("source image", img.Width, img.Height, cfg.pixelLimit()); err != nil {
		return layout.Plan{}, err
	}

	plan, err := layout.New(img.Width, img.Height, cfg.PagesAcross, cfg.MarginMM, cfg.DPI)
	if err != nil {
		return layout.Plan{}, err
	}
	if err := checkPixels("poster canvas", plan.CanvasWidthPx, plan.CanvasHeightPx, cfg.pixelLimit()); err != nil {
		return layout.Plan{}, err
	}
	return plan, nil
}

// Create converts the image read from r into poster PDF bytes.
func Create(r io.Reader, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(&buf, r, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write is Create streaming into w. It returns the plan that was used.
func Write(w io.Writer, r io.Reader, cfg Config) (layout.Plan, error) {
	if err := cfg.Validate(); err != nil {
		return layout.Plan{}, err
	}

	// The header is read twice: once to plan and check the limits, then
	// again as part of the full decode.
	var header bytes.Buffer
	plan, err := planFromHeader(io.TeeReader(r, &header), cfg)
	if err != nil {
		return layout.Plan{}, err
	}

	src, err := Decode(io.MultiReader(&header, r))
	if err != nil {
		return layout.Plan{}, err
	}
	if b := src.Bounds(); b.Dx() != plan.SourceWidthPx || b.Dy() != plan.SourceHeightPx {
		return layout.Plan{}, fmt.Errorf("%w: decoded size %dx%d does not match the header", ErrUnreadableImage, b.Dx(), b.Dy())
	}
	slog.Debug("Planned poster",
		"rows", plan.Rows,
		"cols", plan.Cols,
		"tile_width_px", plan.TileWidthPx,
		"tile_height_px", plan.TileHeightPx,
		"scale", plan.Scale,
	)

	tiles, err := canvas.Compose(src, plan)
	if err != nil {
		return layout.Plan{}, fmt.Errorf("failed to compose tiles: %w", err)
	}

	if err := document.Write(w, tiles, cfg.MarginMM, cfg.DPI); err != nil {
		return layout.Plan{}, fmt.Errorf("failed to assemble poster: %w", err)
	}
	slog.Debug("Assembled poster", "pages", len(tiles))

	return plan, nil
}

// IsValidationError reports whether err was caused by the caller's input
// rather than by the conversion itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnreadableImage) ||
		errors.Is(err, ErrInvalidPageCount) ||
		errors.Is(err, ErrInvalidMargin) ||
		errors.Is(err, ErrInvalidResolution) ||
		errors.Is(err, ErrImageTooLarge)
}
