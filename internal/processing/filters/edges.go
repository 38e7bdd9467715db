package filters

import (
	"fmt"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// DetectEdges runs Canny hysteresis edge detection on a grayscale buffer.
// OpenCV uses a 3x3 Sobel aperture and the L1 gradient norm.
// The result is a binary edge map (0 or 255) of the same size.
func DetectEdges(gray *safe.Mat, low, high float32, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if err := safe.ValidateChannels(gray, 1, "edge detection"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if low < 0 || high < low {
		return nil, fmt.Errorf("invalid Canny thresholds: low=%v high=%v", low, high)
	}

	edges := gocv.NewMat()
	gocv.Canny(gray.GetMat(), &edges, low, high)

	result, err := safe.Adopt(edges, tracker, tag)
	if err != nil {
		return nil, fmt.Errorf("edge detection produced no output: %w", err)
	}
	return result, nil
}
