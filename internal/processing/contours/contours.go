package contours

import (
	"fmt"
	"image"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Contour is an ordered boundary trace of one foreground region. The last
// point connects back to the first implicitly.
type Contour []image.Point

// Collection keeps the order in which the library reported the contours.
type Collection []Contour

func (c Collection) Len() int {
	return len(c)
}

// Points returns the contours as plain point slices, the shape gocv's
// drawing helpers accept.
func (c Collection) Points() [][]image.Point {
	pts := make([][]image.Point, len(c))
	for i, contour := range c {
		pts[i] = []image.Point(contour)
	}
	return pts
}

// Bounds is the smallest rectangle containing every point of the contour.
// Max is exclusive, as with image.Rectangle.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}

	r := image.Rectangle{Min: c[0], Max: c[0].Add(image.Pt(1, 1))}
	for _, p := range c[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// Area is the polygon area enclosed by the contour's vertices (shoelace).
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}

	var twice int
	for i := range c {
		j := (i + 1) % len(c)
		twice += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	if twice < 0 {
		twice = -twice
	}
	return float64(twice) / 2
}

// Extract finds the outer contours of the foreground (non-zero) regions of
// a binary mask. Nested contours are discarded and straight runs are
// reduced to their end points.
func Extract(mask *safe.Mat) (Collection, error) {
	if err := safe.ValidateChannels(mask, 1, "contour extraction"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Older OpenCV releases modify the source image while tracing.
	src := mask.GetMat()
	work := src.Clone()
	defer work.Close()

	found := gocv.FindContours(work, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	return Normalize(found)
}
