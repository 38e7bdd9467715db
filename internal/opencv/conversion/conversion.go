package conversion

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"

	"contour-counter/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MatToImage converts a GoCV Mat to a standard Go image. 1-channel Mats
// become *image.Gray, BGR and BGRA Mats become *image.RGBA.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateEightBit(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	mat := src.GetMat()

	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("Mat data access failed: %w", err)
	}

	switch src.Channels() {
	case 1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data[:rows*cols])
		return img, nil
	case 3:
		return packedBGRToRGBA(data, rows, cols, 3), nil
	case 4:
		return packedBGRToRGBA(data, rows, cols, 4), nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// ImageToMat converts a standard Go image to a 3-channel BGR Mat, or to a
// 1-channel Mat when the input is *image.Gray.
func ImageToMat(img image.Image, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image has invalid dimensions: %dx%d", width, height)
	}

	if gray, ok := img.(*image.Gray); ok {
		packed := make([]byte, width*height)
		for y := 0; y < height; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			copy(packed[y*width:], row)
		}
		return fromPacked(packed, height, width, gocv.MatTypeCV8UC1, tracker, tag)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	packed := make([]byte, width*height*3)
	for i, j := 0, 0; i < len(rgba.Pix); i, j = i+4, j+3 {
		packed[j] = rgba.Pix[i+2]
		packed[j+1] = rgba.Pix[i+1]
		packed[j+2] = rgba.Pix[i]
	}

	return fromPacked(packed, height, width, gocv.MatTypeCV8UC3, tracker, tag)
}

// fromPacked copies packed into a Mat that owns its own storage; the Mat
// returned by NewMatFromBytes may alias the Go slice.
func fromPacked(packed []byte, rows, cols int, matType gocv.MatType, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, matType, packed)
	if err != nil {
		return nil, fmt.Errorf("Mat creation from bytes failed: %w", err)
	}
	defer view.Close()

	owned, err := safe.NewMatFromMatWithTracker(view, tracker, tag)
	runtime.KeepAlive(packed)
	return owned, err
}

func packedBGRToRGBA(data []byte, rows, cols, channels int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := (y*cols + x) * channels
			alpha := uint8(255)
			if channels == 4 {
				alpha = data[i+3]
			}
			img.SetRGBA(x, y, color.RGBA{R: data[i+2], G: data[i+1], B: data[i], A: alpha})
		}
	}

	return img
}
