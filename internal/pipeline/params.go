package pipeline

import (
	"fmt"

	"contour-counter/internal/processing/annotate"
	"contour-counter/internal/processing/filters"
)

// Params holds every tunable constant of a run.
type Params struct {
	CannyLow        float32
	CannyHigh       float32
	ThresholdCutoff float64
	ThresholdMax    float64
	Morph           filters.MorphOptions
	Style           annotate.Style
}

func DefaultParams() Params {
	return Params{
		CannyLow:        30,
		CannyHigh:       150,
		ThresholdCutoff: 220,
		ThresholdMax:    255,
		Morph:           filters.DefaultMorphOptions(),
		Style:           annotate.DefaultStyle(),
	}
}

func (p Params) Validate() error {
	if p.CannyLow < 0 || p.CannyHigh < p.CannyLow {
		return fmt.Errorf("invalid canny thresholds %.1f/%.1f", p.CannyLow, p.CannyHigh)
	}
	if p.ThresholdCutoff < 0 || p.ThresholdCutoff > 256 {
		return fmt.Errorf("threshold cutoff %.1f outside [0, 256]", p.ThresholdCutoff)
	}
	if p.ThresholdMax < 0 || p.ThresholdMax > 255 {
		return fmt.Errorf("threshold max value %.1f outside [0, 255]", p.ThresholdMax)
	}
	if err := p.Morph.Validate(); err != nil {
		return fmt.Errorf("morphology: %w", err)
	}
	if p.Style.StrokeWidth <= 0 || p.Style.TextStrokeWidth <= 0 {
		return fmt.Errorf("annotation stroke widths must be positive")
	}
	return nil
}
