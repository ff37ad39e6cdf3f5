// Package units converts between millimeters, inches, PDF points and pixels.
package units

import "math"

const (
	MMPerInch     = 25.4
	PointsPerInch = 72.0

	// A4 sheet, the only paper size posters are printed on.
	SheetWidthMM  = 210.0
	SheetHeightMM = 297.0
)

// MMToPoints converts millimeters to PDF points.
func MMToPoints(mm float64) float64 {
	return mm * PointsPerInch / MMPerInch
}

func MMToInches(mm float64) float64 {
	return mm / MMPerInch
}

// MMToPixels returns the number of pixels covering mm at the given dpi.
// Halves round to even.
func MMToPixels(mm float64, dpi int) int {
	return int(math.RoundToEven(MMToInches(mm) * float64(dpi)))
}

// PixelsToPoints returns the physical size of px pixels printed at dpi.
func PixelsToPoints(px, dpi int) float64 {
	return float64(px) / float64(dpi) * PointsPerInch
}
