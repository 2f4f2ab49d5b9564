package overlay

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

var (
	// LineColor is the counting line color (yellow).
	LineColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	// TextColor is the color of the counts banner.
	TextColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// LineThickness is the counting line width in pixels.
const LineThickness = 2

// LineX converts a line position into a pixel column for a frame of the given
// width. Positions up to 1 are fractions of the width, larger values are pixels.
func LineX(linePosition float64, width int) int {
	if linePosition <= 1 {
		return int(float64(width) * linePosition)
	}
	return int(linePosition)
}

// DrawCountingLine draws the vertical counting line, plus an optional counts
// banner, onto a JPEG frame and returns the re-encoded JPEG.
func DrawCountingLine(img []byte, linePosition float64, counts map[string]int) ([]byte, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	x := LineX(linePosition, mat.Cols())
	if err := gocv.Line(&mat, image.Pt(x, 0), image.Pt(x, mat.Rows()), LineColor, LineThickness); err != nil {
		return nil, fmt.Errorf("failed to draw counting line: %v", err)
	}

	if len(counts) > 0 {
		if err := gocv.PutText(&mat, FormatCounts(counts), image.Pt(10, 25), gocv.FontHersheySimplex, 0.7, TextColor, 2); err != nil {
			return nil, fmt.Errorf("failed to draw counts: %v", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// FormatCounts renders counts as "line1: 3  line2: 5", sorted by line name.
func FormatCounts(counts map[string]int) string {
	lines := make([]string, 0, len(counts))
	for line := range counts {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s: %d", line, counts[line]))
	}
	return strings.Join(parts, "  ")
}
