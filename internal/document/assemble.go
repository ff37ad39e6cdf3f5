// Package document writes poster tiles into a PDF, one A4 page per tile.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/lehigh-university-libraries/poster-splitter/internal/canvas"
	"github.com/lehigh-university-libraries/poster-splitter/internal/units"
)

var ErrNoTiles = errors.New("no tiles to assemble")

// Placement is where a tile is drawn on its page, in points, measured from
// the top-left corner of the page.
type Placement struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`

	// Box is the slot the image is fitted into: the tile's natural printed
	// size, capped at the area inside the margins.
	BoxWidth  float64 `json:"box_width" yaml:"boxwidth"`
	BoxHeight float64 `json:"box_height" yaml:"boxheight"`
}

// PageSize returns the A4 page size in points.
func PageSize() (width, height float64) {
	return units.MMToPoints(units.SheetWidthMM), units.MMToPoints(units.SheetHeightMM)
}

// Place computes the page geometry for a tile of tileWidthPx x tileHeightPx
// pixels printed at dpi. The tile is never enlarged past its natural size;
// if it does not fit inside the margins it is shrunk, keeping its aspect
// ratio, and anchored to the bottom-left corner of its slot. The slot's top
// edge sits on the top margin.
func Place(tileWidthPx, tileHeightPx int, marginMM float64, dpi int) Placement {
	pageWidth, pageHeight := PageSize()
	margin := units.MMToPoints(marginMM)

	tileWidth := units.PixelsToPoints(tileWidthPx, dpi)
	tileHeight := units.PixelsToPoints(tileHeightPx, dpi)

	boxWidth := min(tileWidth, pageWidth-2*margin)
	boxHeight := min(tileHeight, pageHeight-2*margin)

	fit := min(boxWidth/tileWidth, boxHeight/tileHeight)
	width := tileWidth * fit
	height := tileHeight * fit

	// The slot's bottom edge is pageHeight-margin-boxHeight above the page
	// bottom, that is margin+boxHeight below the page top.
	return Placement{
		X:         margin,
		Y:         margin + boxHeight - height,
		Width:     width,
		Height:    height,
		BoxWidth:  boxWidth,
		BoxHeight: boxHeight,
	}
}

// Assemble renders tiles into PDF bytes. Pages follow the order of tiles.
func Assemble(tiles []canvas.Tile, marginMM float64, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, tiles, marginMM, dpi); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write is Assemble for an arbitrary writer.
func Write(w io.Writer, tiles []canvas.Tile, marginMM float64, dpi int) error {
	if len(tiles) == 0 {
		return ErrNoTiles
	}

	pageWidth, pageHeight := PageSize()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("poster-splitter", true)

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	options := fpdf.ImageOptions{ImageType: "PNG"}

	for i, tile := range tiles {
		var encoded bytes.Buffer
		if err := encoder.Encode(&encoded, tile.Image); err != nil {
			return fmt.Errorf("failed to encode tile %d (row %d, col %d): %w", i, tile.Row, tile.Col, err)
		}

		name := fmt.Sprintf("tile-%d-%d", tile.Row, tile.Col)
		pdf.RegisterImageOptionsReader(name, options, &encoded)

		b := tile.Image.Bounds()
		p := Place(b.Dx(), b.Dy(), marginMM, dpi)

		pdf.AddPage()
		pdf.ImageOptions(name, p.X, p.Y, p.Width, p.Height, false, options, 0, "")

		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to add page %d: %w", i+1, err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
