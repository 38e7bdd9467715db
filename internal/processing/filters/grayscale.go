package filters

import (
	"fmt"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale reduces a BGR or BGRA image to one intensity channel
// using OpenCV's luma weighting. A single-channel input is cloned.
func ConvertToGrayscale(src *safe.Mat, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var code gocv.ColorConversionCode
	switch src.Channels() {
	case 1:
		return src.Clone(tag)
	case 3:
		code = gocv.ColorBGRToGray
	case 4:
		code = gocv.ColorBGRAToGray
	default:
		return nil, fmt.Errorf("unsupported channel count for grayscale conversion: %d", src.Channels())
	}
	if err := safe.ValidateColorConversion(src, code); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, tracker, tag)
	if err != nil {
		return nil, fmt.Errorf("destination Mat creation failed: %w", err)
	}

	dstMat := dst.GetMat()
	if err := gocv.CvtColor(src.GetMat(), &dstMat, code); err != nil {
		dst.Close()
		return nil, fmt.Errorf("grayscale conversion failed: %w", err)
	}

	return dst, nil
}
