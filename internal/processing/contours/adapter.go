package contours

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Normalize turns whatever shape the installed gocv release returns from
// FindContours into a Collection. Current releases return a PointsVector;
// releases before 0.26 returned [][]image.Point. Empty traces are dropped.
// The caller keeps ownership of a PointsVector argument.
func Normalize(raw interface{}) (Collection, error) {
	switch v := raw.(type) {
	case gocv.PointsVector:
		return fromPoints(v.ToPoints()), nil
	case *gocv.PointsVector:
		if v == nil {
			return Collection{}, nil
		}
		return fromPoints(v.ToPoints()), nil
	case [][]image.Point:
		return fromPoints(v), nil
	case nil:
		return Collection{}, nil
	default:
		return nil, fmt.Errorf("unsupported contour result type %T", raw)
	}
}

func fromPoints(raw [][]image.Point) Collection {
	out := make(Collection, 0, len(raw))
	for _, pts := range raw {
		if len(pts) == 0 {
			continue
		}
		contour := make(Contour, len(pts))
		copy(contour, pts)
		out = append(out, contour)
	}
	return out
}
