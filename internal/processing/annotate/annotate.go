package annotate

import (
	"fmt"
	"image"
	"image/color"

	"contour-counter/internal/opencv/safe"
	"contour-counter/internal/processing/contours"

	"gocv.io/x/gocv"
)

// Style fixes how contours and the count label are drawn.
type Style struct {
	Color           color.RGBA
	StrokeWidth     int
	TextOrigin      image.Point
	Font            gocv.HersheyFont
	FontScale       float64
	TextStrokeWidth int
}

// DefaultStyle draws 3px purple outlines, BGR (240, 0, 159), and a 0.7
// scale Hershey Simplex label at (10, 25).
func DefaultStyle() Style {
	return Style{
		Color:           color.RGBA{R: 159, G: 0, B: 240, A: 255},
		StrokeWidth:     3,
		TextOrigin:      image.Pt(10, 25),
		Font:            gocv.FontHersheySimplex,
		FontScale:       0.7,
		TextStrokeWidth: 2,
	}
}

// Label is the overlay text for a contour count.
func Label(count int) string {
	return fmt.Sprintf("%d objects found!", count)
}

// Draw returns a copy of img with every contour outlined as a closed
// polyline and the count label rendered on top. img is not modified.
func Draw(img *safe.Mat, found contours.Collection, style Style, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if err := safe.ValidateChannels(img, 3, "contour annotation"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if style.StrokeWidth <= 0 || style.TextStrokeWidth <= 0 {
		return nil, fmt.Errorf("stroke widths must be positive, got %d and %d", style.StrokeWidth, style.TextStrokeWidth)
	}

	output, err := img.Clone(tag)
	if err != nil {
		return nil, fmt.Errorf("annotation copy failed: %w", err)
	}
	canvas := output.GetMat()

	if found.Len() > 0 {
		pv := gocv.NewPointsVectorFromPoints(found.Points())
		defer pv.Close()
		gocv.DrawContours(&canvas, pv, -1, style.Color, style.StrokeWidth)
	}

	gocv.PutText(&canvas, Label(found.Len()), style.TextOrigin, style.Font, style.FontScale, style.Color, style.TextStrokeWidth)

	return output, nil
}
