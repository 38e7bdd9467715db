package threshold

import (
	"fmt"
	"math"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// BinaryInverse segments a grayscale buffer for a bright background with
// darker objects: pixels strictly below cutoff become maxValue (foreground),
// pixels at or above cutoff become 0 (background).
func BinaryInverse(gray *safe.Mat, cutoff, maxValue float64, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if err := safe.ValidateChannels(gray, 1, "inverse binary threshold"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := safe.ValidateEightBit(gray, "inverse binary threshold"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if cutoff < 0 || cutoff > 256 {
		return nil, fmt.Errorf("cutoff %v outside [0, 256]", cutoff)
	}
	if maxValue < 0 || maxValue > 255 {
		return nil, fmt.Errorf("max value %v outside [0, 255]", maxValue)
	}

	dst := gocv.NewMat()
	gocv.Threshold(gray.GetMat(), &dst, openCVThresh(cutoff), float32(maxValue), gocv.ThresholdBinaryInv)

	result, err := safe.Adopt(dst, tracker, tag)
	if err != nil {
		return nil, fmt.Errorf("threshold produced no output: %w", err)
	}
	return result, nil
}

// openCVThresh converts a strict "below cutoff" rule into OpenCV's
// "src > thresh -> 0" form for 8-bit data.
func openCVThresh(cutoff float64) float32 {
	return float32(math.Ceil(cutoff) - 1)
}
