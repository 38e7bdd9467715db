package report

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"

	"contour-counter/internal/opencv/conversion"
	"contour-counter/internal/pipeline"

	"github.com/jung-kurt/gofpdf"
)

const (
	pxToPt      = 0.75 // 96 dpi pixels to 72 dpi points
	margin      = 24.0
	titleHeight = 28.0
	minPageWd   = 320.0
)

// ContactSheet writes a PDF with one page per artifact, titled with the
// artifact name, followed by a summary page.
func ContactSheet(w io.Writer, result *pipeline.Result) error {
	artifacts := result.Artifacts()
	if len(artifacts) == 0 {
		return fmt.Errorf("result has no artifacts")
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Contour report", false)
	pdf.SetCreator("contour-counter", false)

	for _, artifact := range artifacts {
		img, err := conversion.MatToImage(artifact.Mat)
		if err != nil {
			return fmt.Errorf("artifact %s: %w", artifact.Name, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("artifact %s: %w", artifact.Name, err)
		}

		b := img.Bounds()
		imgWd := float64(b.Dx()) * pxToPt
		imgHt := float64(b.Dy()) * pxToPt
		pageWd := imgWd + 2*margin
		if pageWd < minPageWd {
			pageWd = minPageWd
		}
		pageHt := imgHt + 2*margin + titleHeight

		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pageWd, Ht: pageHt})
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetXY(margin, margin)
		pdf.CellFormat(pageWd-2*margin, titleHeight, artifact.Name, "", 0, "L", false, 0, "")

		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(artifact.Name, opts, &buf)
		pdf.ImageOptions(artifact.Name, margin, margin+titleHeight, imgWd, imgHt, false, opts, 0, "")

		if err := pdf.Error(); err != nil {
			return fmt.Errorf("artifact %s: %w", artifact.Name, err)
		}
	}

	addSummary(pdf, result)
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func addSummary(pdf *gofpdf.Fpdf, result *pipeline.Result) {
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: 595.28, Ht: 841.89})
	pdf.SetXY(margin, margin)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, titleHeight, result.Label, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Source", result.SourcePath},
		{"Run", result.RunID},
		{"Contours", fmt.Sprintf("%d", result.Contours.Len())},
	}
	for _, row := range rows {
		pdf.SetX(margin)
		pdf.CellFormat(90, 18, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 18, row[1], "", 1, "L", false, 0, "")
	}

	if len(result.Timings) == 0 {
		return
	}
	pdf.Ln(12)
	pdf.SetX(margin)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(180, 18, "Stage", "B", 0, "L", false, 0, "")
	pdf.CellFormat(100, 18, "Time (ms)", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, entry := range result.Timings {
		pdf.SetX(margin)
		pdf.CellFormat(180, 16, entry.Operation, "", 0, "L", false, 0, "")
		pdf.CellFormat(100, 16, fmt.Sprintf("%.2f", float64(entry.Total.Microseconds())/1000), "", 1, "R", false, 0, "")
	}
}

// SaveContactSheet writes the contact sheet PDF to path.
func SaveContactSheet(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := ContactSheet(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
