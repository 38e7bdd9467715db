package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageLoader struct {
	tracker safe.MemoryTracker
	logger  logger.Logger
}

// Load reads path and decodes it as a 3-channel BGR image. Grayscale and
// alpha inputs are expanded or flattened to BGR.
func (l *imageLoader) Load(path string, tag string) (*safe.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &LoadError{Path: path, Err: ErrEmptyFile}
	}

	l.logger.Debug("ImageLoader", "image data read", map[string]interface{}{
		"path":       path,
		"size_bytes": len(data),
	})

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", ErrUndecodable, err)}
	}
	if mat.Empty() {
		mat.Close()
		return nil, &LoadError{Path: path, Err: ErrUndecodable}
	}

	loaded, err := safe.Adopt(mat, l.tracker, tag)
	if err != nil {
		mat.Close()
		return nil, &LoadError{Path: path, Err: err}
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"path":     path,
		"width":    loaded.Cols(),
		"height":   loaded.Rows(),
		"channels": loaded.Channels(),
		"format":   detectFormat(path, data),
	})

	return loaded, nil
}

// detectFormat prefers the extension and falls back to sniffing the header.
func detectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return format
	}
	return "unknown"
}
