package filters

import (
	"fmt"
	"image"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// KernelShape selects the structuring element used by Erode and Dilate.
type KernelShape int

const (
	// KernelRect is a full square, OpenCV's default when no kernel is given.
	KernelRect KernelShape = iota
	KernelCross
	KernelEllipse
)

func (k KernelShape) String() string {
	switch k {
	case KernelRect:
		return "rect"
	case KernelCross:
		return "cross"
	case KernelEllipse:
		return "ellipse"
	default:
		return fmt.Sprintf("KernelShape(%d)", int(k))
	}
}

// ParseKernelShape accepts the names produced by KernelShape.String.
func ParseKernelShape(name string) (KernelShape, error) {
	switch name {
	case "", "rect":
		return KernelRect, nil
	case "cross":
		return KernelCross, nil
	case "ellipse":
		return KernelEllipse, nil
	default:
		return KernelRect, fmt.Errorf("unknown kernel shape %q", name)
	}
}

func (k KernelShape) morphShape() gocv.MorphShape {
	switch k {
	case KernelCross:
		return gocv.MorphCross
	case KernelEllipse:
		return gocv.MorphEllipse
	default:
		return gocv.MorphRect
	}
}

type MorphOptions struct {
	Iterations int
	KernelSize int
	Shape      KernelShape
}

func DefaultMorphOptions() MorphOptions {
	return MorphOptions{
		Iterations: 5,
		KernelSize: 3,
		Shape:      KernelRect,
	}
}

func (o MorphOptions) Validate() error {
	if o.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", o.Iterations)
	}
	if o.KernelSize < 1 || o.KernelSize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d", o.KernelSize)
	}
	return nil
}

// Erode shrinks foreground regions: after each iteration a pixel stays
// foreground only if its whole neighbourhood was foreground.
func Erode(mask *safe.Mat, opts MorphOptions, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	return iterate(mask, opts, tracker, tag, "erosion", func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.Erode(src, dst, kernel)
	})
}

// Dilate grows foreground regions: after each iteration a pixel becomes
// foreground if any pixel of its neighbourhood was foreground.
func Dilate(mask *safe.Mat, opts MorphOptions, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	return iterate(mask, opts, tracker, tag, "dilation", func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.Dilate(src, dst, kernel)
	})
}

func iterate(mask *safe.Mat, opts MorphOptions, tracker safe.MemoryTracker, tag, operation string,
	apply func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat)) (*safe.Mat, error) {
	if err := safe.ValidateChannels(mask, 1, operation); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if opts.Iterations == 0 {
		return mask.Clone(tag)
	}

	kernel := gocv.GetStructuringElement(opts.Shape.morphShape(), image.Pt(opts.KernelSize, opts.KernelSize))
	defer kernel.Close()

	src := mask.GetMat()
	output := src.Clone()
	for i := 0; i < opts.Iterations; i++ {
		temp := gocv.NewMat()
		apply(output, &temp, kernel)
		output.Close()
		output = temp
	}

	result, err := safe.Adopt(output, tracker, tag)
	if err != nil {
		return nil, fmt.Errorf("%s produced no output: %w", operation, err)
	}
	return result, nil
}
