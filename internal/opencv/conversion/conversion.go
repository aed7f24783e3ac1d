package conversion

import (
	"fmt"
	"image"

	"region-obliterator/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale converts multi-channel images to single-channel grayscale
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.CloneAs(src.Tag())
	}

	dst := gocv.NewMat()
	srcMat := src.GetMat()

	switch src.Channels() {
	case 3:
		gocv.CvtColor(srcMat, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(srcMat, &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return safe.Adopt(dst, nil, src.Tag()+"_gray")
}

// MatToImage converts a BGR or grayscale Mat into a standard Go image.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	data := src.Bytes()

	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case gocv.MatTypeCV8UC3:
		return bgrToRGBA(data, rows, cols), nil
	default:
		return nil, fmt.Errorf("unsupported Mat type for image conversion: %d", int(src.Type()))
	}
}

// bgrToRGBA converts BGR pixel data to RGBA image
func bgrToRGBA(data []byte, rows, cols int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for i, j := 0, 0; i+2 < len(data); i, j = i+3, j+4 {
		img.Pix[j] = data[i+2]
		img.Pix[j+1] = data[i+1]
		img.Pix[j+2] = data[i]
		img.Pix[j+3] = 255
	}

	return img
}

// ImageToMat converts a standard Go image into an 8-bit BGR Mat. Alpha is dropped.
func ImageToMat(img image.Image, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "image to Mat conversion"); err != nil {
		return nil, err
	}

	data := make([]byte, 0, width*height*3)
	switch typed := img.(type) {
	case *image.RGBA:
		for y := 0; y < height; y++ {
			row := typed.Pix[y*typed.Stride : y*typed.Stride+width*4]
			for x := 0; x < width*4; x += 4 {
				data = append(data, row[x+2], row[x+1], row[x])
			}
		}
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			row := typed.Pix[y*typed.Stride : y*typed.Stride+width*4]
			for x := 0; x < width*4; x += 4 {
				data = append(data, row[x+2], row[x+1], row[x])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				data = append(data, uint8(b>>8), uint8(g>>8), uint8(r>>8))
			}
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return nil, fmt.Errorf("Mat creation failed: %w", err)
	}
	defer mat.Close()

	// NewMatFromBytes shares data with the Go slice; clone into native memory.
	return safe.NewMatFromMatWithTracker(mat, tracker, tag)
}
