// Package report renders run summaries: a gray-level histogram chart and a
// PDF contact sheet of every artifact.
package report

import (
	"fmt"
	"io"
	"os"

	"contour-counter/internal/opencv/conversion"
	"contour-counter/internal/opencv/safe"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	histogramWidth  = 1280
	histogramHeight = 720
)

// cutoffLine is a vertical segment at x spanning [0, top].
func cutoffLine(x, top float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    fmt.Sprintf("cutoff %.0f", x),
		XValues: []float64{x, x},
		YValues: []float64{0, top},
		Style: chart.Style{
			StrokeColor:     chart.ColorRed,
			StrokeWidth:     2,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// WriteHistogram renders the 256-bin histogram of gray as a PNG chart with
// a marker at the threshold cutoff.
func WriteHistogram(w io.Writer, gray *safe.Mat, cutoff float64) error {
	if cutoff < 0 || cutoff > 256 {
		return fmt.Errorf("cutoff %.1f outside [0, 256]", cutoff)
	}

	hist, err := conversion.GrayHistogram(gray)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}

	xvalues := make([]float64, len(hist))
	yvalues := make([]float64, len(hist))
	peak := 1.0
	for level, count := range hist {
		xvalues[level] = float64(level)
		yvalues[level] = float64(count)
		if yvalues[level] > peak {
			peak = yvalues[level]
		}
	}
	top := peak * 1.05

	var ticks []chart.Tick
	for level := 0; level <= 256; level += 32 {
		ticks = append(ticks, chart.Tick{Value: float64(level), Label: fmt.Sprintf("%d", level)})
	}

	graph := chart.Chart{
		Title:  "Gray level histogram",
		Width:  histogramWidth,
		Height: histogramHeight,
		XAxis: chart.XAxis{
			Name:  "Intensity",
			Range: &chart.ContinuousRange{Min: 0, Max: 256},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Pixels",
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "pixels",
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorAlternateBlue,
				},
				XValues: xvalues,
				YValues: yvalues,
			},
			cutoffLine(cutoff, top),
		},
	}

	return graph.Render(chart.PNG, w)
}

// SaveHistogram writes the histogram chart to path.
func SaveHistogram(path string, gray *safe.Mat, cutoff float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := WriteHistogram(f, gray, cutoff); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
