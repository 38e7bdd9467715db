// Package mask keeps the pixels of an image that sit under a binary mask.
package mask

import (
	"fmt"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Apply returns img AND img restricted to mask. Pixels where mask is zero
// come out black; the rest are copied from img unchanged.
func Apply(img, mask *safe.Mat, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(img, "masking"); err != nil {
		return nil, fmt.Errorf("image validation failed: %w", err)
	}
	if err := safe.ValidateChannels(mask, 1, "masking"); err != nil {
		return nil, fmt.Errorf("mask validation failed: %w", err)
	}
	if err := safe.ValidateEightBit(mask, "masking"); err != nil {
		return nil, fmt.Errorf("mask validation failed: %w", err)
	}
	if err := safe.ValidateSameSize(img, mask, "masking"); err != nil {
		return nil, err
	}

	output, err := safe.NewZeroMat(img.Rows(), img.Cols(), img.Type(), tracker, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate masked output: %w", err)
	}

	src := img.GetMat()
	m := mask.GetMat()
	dst := output.GetMat()
	gocv.BitwiseAndWithMask(src, src, &dst, m)

	return output, nil
}
