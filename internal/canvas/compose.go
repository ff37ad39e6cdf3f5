// Package canvas renders the scaled source image onto the full poster canvas
// and cuts it into page-sized tiles.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/lehigh-university-libraries/poster-splitter/internal/layout"
)

var ErrPlanMismatch = errors.New("plan does not match source image")

// Tile is one page worth of poster pixels.
type Tile struct {
	Row   int
	Col   int
	Image *image.RGBA
}

// Lanczos3 is a three-lobed Lanczos resampling kernel. Large-format prints
// make aliasing from cheaper filters visible.
var Lanczos3 = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		return sinc(t) * sinc(t/3)
	},
}

func sinc(x float64) float64 {
	x *= math.Pi
	return math.Sin(x) / x
}

// Compose scales src according to plan, centers it on a white canvas and
// returns the tiles in row-major order. Every tile is exactly
// plan.TileWidthPx x plan.TileHeightPx.
func Compose(src image.Image, plan layout.Plan) ([]Tile, error) {
	b := src.Bounds()
	if b.Dx() != plan.SourceWidthPx || b.Dy() != plan.SourceHeightPx {
		return nil, fmt.Errorf("%w: image is %dx%d, plan expects %dx%d",
			ErrPlanMismatch, b.Dx(), b.Dy(), plan.SourceWidthPx, plan.SourceHeightPx)
	}
	if plan.Pages() < 1 || plan.TileWidthPx < 1 || plan.TileHeightPx < 1 {
		return nil, fmt.Errorf("%w: empty tile grid", ErrPlanMismatch)
	}

	scaledWidth, scaledHeight := plan.ScaledSize()
	scaled := Resize(src, scaledWidth, scaledHeight)

	poster := newWhite(plan.CanvasWidthPx, plan.CanvasHeightPx)
	offset := image.Pt((plan.CanvasWidthPx-scaledWidth)/2, (plan.CanvasHeightPx-scaledHeight)/2)
	draw.Draw(poster, scaled.Bounds().Add(offset), scaled, image.Point{}, draw.Src)

	tiles := make([]Tile, 0, plan.Pages())
	for row := 0; row < plan.Rows; row++ {
		for col := 0; col < plan.Cols; col++ {
			tiles = append(tiles, Tile{
				Row:   row,
				Col:   col,
				Image: cut(poster, row, col, plan.TileWidthPx, plan.TileHeightPx),
			})
		}
	}

	return tiles, nil
}

// cut copies one grid cell out of the canvas. Cells reaching past the canvas
// edge are padded with white so all tiles share the same size.
func cut(poster *image.RGBA, row, col, width, height int) *image.RGBA {
	cell := image.Rect(col*width, row*height, (col+1)*width, (row+1)*height).Intersect(poster.Bounds())
	tile := newWhite(width, height)
	if !cell.Empty() {
		draw.Draw(tile, image.Rect(0, 0, cell.Dx(), cell.Dy()), poster, cell.Min, draw.Src)
	}
	return tile
}

// Resize scales src to width x height with the Lanczos3 kernel. The result is
// always anchored at the origin.
func Resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(1, width), max(1, height)))
	Lanczos3.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Flatten copies img into an opaque RGBA buffer anchored at the origin,
// compositing any transparency onto white.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := newWhite(b.Dx(), b.Dy())
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func newWhite(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
