package pipeline

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/conversion"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Formats accepted by Saver.
var Formats = []string{"png", "jpeg", "bmp", "tiff"}

// NormalizeFormat maps aliases such as "jpg" or ".TIF" onto Formats.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch f {
	case "", "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpeg", nil
	case "bmp":
		return "bmp", nil
	case "tif", "tiff":
		return "tiff", nil
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

type Saver struct {
	logger logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Saver{logger: log}
}

// Encode writes img to w in format.
func (s *Saver) Encode(w io.Writer, img image.Image, format string) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// SaveAll writes every artifact of result into dir as <stem>_<artifact>.<ext>
// and returns the written paths in artifact order.
func (s *Saver) SaveAll(result *Result, dir, format string) ([]string, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(result.SourcePath), filepath.Ext(result.SourcePath))
	if stem == "" || stem == "." {
		stem = "output"
	}

	written := make([]string, 0, len(result.artifacts))
	for _, artifact := range result.artifacts {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", stem, artifact.Name, extension(format)))
		if err := s.saveArtifact(path, artifact, format); err != nil {
			s.logger.Error("ImageSaver", err, map[string]interface{}{
				"artifact": artifact.Name,
				"path":     path,
			})
			return written, err
		}
		written = append(written, path)
	}

	s.logger.Info("ImageSaver", "artifacts saved", map[string]interface{}{
		"dir":    dir,
		"format": format,
		"count":  len(written),
	})

	return written, nil
}

func (s *Saver) saveArtifact(path string, artifact Artifact, format string) error {
	img, err := conversion.MatToImage(artifact.Mat)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", artifact.Name, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", artifact.Name, err)
	}

	if err := s.Encode(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("artifact %s: encode %s: %w", artifact.Name, format, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("artifact %s: %w", artifact.Name, err)
	}

	s.logger.Debug("ImageSaver", "artifact saved", map[string]interface{}{
		"artifact": artifact.Name,
		"path":     path,
	})
	return nil
}
