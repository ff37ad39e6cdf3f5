// Package layout computes how a source image is scaled and split into a grid
// of A4-sized tiles.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/poster-splitter/internal/units"
)

var (
	ErrInvalidMargin    = errors.New("invalid margin")
	ErrInvalidPageCount = errors.New("invalid page count")
	ErrInvalidSource    = errors.New("invalid source dimensions")
)

// Plan describes the tile grid for one poster. It is derived once and never
// modified afterwards.
type Plan struct {
	TileWidthPx    int     `json:"tile_width_px" yaml:"tilewidthpx"`
	TileHeightPx   int     `json:"tile_height_px" yaml:"tileheightpx"`
	Cols           int     `json:"cols" yaml:"cols"`
	Rows           int     `json:"rows" yaml:"rows"`
	CanvasWidthPx  int     `json:"canvas_width_px" yaml:"canvaswidthpx"`
	CanvasHeightPx int     `json:"canvas_height_px" yaml:"canvasheightpx"`
	Scale          float64 `json:"scale" yaml:"scale"`

	SourceWidthPx  int `json:"source_width_px" yaml:"sourcewidthpx"`
	SourceHeightPx int `json:"source_height_px" yaml:"sourceheightpx"`
	ScaledWidthPx  int `json:"scaled_width_px" yaml:"scaledwidthpx"`
	ScaledHeightPx int `json:"scaled_height_px" yaml:"scaledheightpx"`
	OffsetX        int `json:"offset_x" yaml:"offsetx"`
	OffsetY        int `json:"offset_y" yaml:"offsety"`
}

// PrintableArea returns the printable sheet size in millimeters for the
// given margin. It fails with ErrInvalidMargin when nothing is left to print on.
func PrintableArea(marginMM float64) (width, height float64, err error) {
	if math.IsNaN(marginMM) || math.IsInf(marginMM, 0) {
		return 0, 0, fmt.Errorf("%w: margin must be finite, got %g", ErrInvalidMargin, marginMM)
	}
	width = units.SheetWidthMM - 2*marginMM
	height = units.SheetHeightMM - 2*marginMM
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: a %.1f mm margin leaves no printable area on the sheet", ErrInvalidMargin, marginMM)
	}
	return width, height, nil
}

// New plans a poster that is pagesAcross sheets wide for a source image of
// sourceWidth x sourceHeight pixels.
//
// The canvas height is rounded up to whole tile rows and the scale is the
// smaller of the width and height factors, so the scaled image fits the
// canvas on both axes. Any slack shows up as white space around the image.
func New(sourceWidth, sourceHeight, pagesAcross int, marginMM float64, dpi int) (Plan, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Plan{}, fmt.Errorf("%w: %dx%d", ErrInvalidSource, sourceWidth, sourceHeight)
	}
	if pagesAcross < 1 {
		return Plan{}, fmt.Errorf("%w: %d pages across", ErrInvalidPageCount, pagesAcross)
	}

	printableWidth, printableHeight, err := PrintableArea(marginMM)
	if err != nil {
		return Plan{}, err
	}

	tileWidth := units.MMToPixels(printableWidth, dpi)
	tileHeight := units.MMToPixels(printableHeight, dpi)
	if tileWidth < 1 || tileHeight < 1 {
		return Plan{}, fmt.Errorf("%w: printable area is smaller than one pixel at %d dpi", ErrInvalidMargin, dpi)
	}

	cols := pagesAcross
	canvasWidth := tileWidth * cols
	requiredHeight := float64(canvasWidth) * float64(sourceHeight) / float64(sourceWidth)

	rows := max(1, int(math.Ceil(requiredHeight/float64(tileHeight))))
	canvasHeight := tileHeight * rows

	scaleForWidth := float64(canvasWidth) / float64(sourceWidth)
	scaleForHeight := float64(canvasHeight) / float64(sourceHeight)

	p := Plan{
		TileWidthPx:    tileWidth,
		TileHeightPx:   tileHeight,
		Cols:           cols,
		Rows:           rows,
		CanvasWidthPx:  canvasWidth,
		CanvasHeightPx: canvasHeight,
		Scale:          min(scaleForWidth, scaleForHeight),
		SourceWidthPx:  sourceWidth,
		SourceHeightPx: sourceHeight,
	}
	p.ScaledWidthPx, p.ScaledHeightPx = p.ScaledSize()
	p.OffsetX = (p.CanvasWidthPx - p.ScaledWidthPx) / 2
	p.OffsetY = (p.CanvasHeightPx - p.ScaledHeightPx) / 2

	return p, nil
}

// Pages is the number of sheets the poster is printed on.
func (p Plan) Pages() int {
	return p.Rows * p.Cols
}

// TileAt maps a row-major page index to its grid position.
func (p Plan) TileAt(i int) (row, col int) {
	return i / p.Cols, i % p.Cols
}

// ScaledSize is the size of the source image once scaled onto the canvas.
// Each axis is at least one pixel.
func (p Plan) ScaledSize() (width, height int) {
	width = max(1, int(math.RoundToEven(float64(p.SourceWidthPx)*p.Scale)))
	height = max(1, int(math.RoundToEven(float64(p.SourceHeightPx)*p.Scale)))
	return width, height
}
