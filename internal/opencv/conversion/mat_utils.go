package conversion

import (
	"fmt"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// CountForeground returns the number of non-zero elements of a 1-channel Mat.
func CountForeground(mat *safe.Mat) (int, error) {
	if err := safe.ValidateChannels(mat, 1, "foreground count"); err != nil {
		return 0, err
	}
	return gocv.CountNonZero(mat.GetMat()), nil
}

// IsBinary reports whether every element of a 1-channel 8-bit Mat is 0 or 255.
func IsBinary(mat *safe.Mat) (bool, error) {
	hist, err := GrayHistogram(mat)
	if err != nil {
		return false, err
	}
	for value := 1; value < 255; value++ {
		if hist[value] != 0 {
			return false, nil
		}
	}
	return true, nil
}

// GrayHistogram counts occurrences of every intensity of a 1-channel 8-bit Mat.
func GrayHistogram(mat *safe.Mat) ([256]int, error) {
	var bins [256]int

	if err := safe.ValidateChannels(mat, 1, "gray histogram"); err != nil {
		return bins, err
	}
	if err := safe.ValidateEightBit(mat, "gray histogram"); err != nil {
		return bins, err
	}

	hist := gocv.NewMat()
	defer hist.Close()
	noMask := gocv.NewMat()
	defer noMask.Close()

	err := gocv.CalcHist([]gocv.Mat{mat.GetMat()}, []int{0}, noMask, &hist, []int{256}, []float64{0, 256}, false)
	if err != nil {
		return bins, fmt.Errorf("histogram calculation failed: %w", err)
	}

	for i := 0; i < 256; i++ {
		bins[i] = int(hist.GetFloatAt(i, 0))
	}
	return bins, nil
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b *safe.Mat) (bool, error) {
	if err := safe.ValidateMatForOperation(a, "Mat comparison"); err != nil {
		return false, err
	}
	if err := safe.ValidateMatForOperation(b, "Mat comparison"); err != nil {
		return false, err
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() || a.Type() != b.Type() {
		return false, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a.GetMat(), b.GetMat(), &diff)

	if diff.Channels() > 1 {
		flat := diff.Reshape(1, 0)
		defer flat.Close()
		return gocv.CountNonZero(flat) == 0, nil
	}
	return gocv.CountNonZero(diff) == 0, nil
}
