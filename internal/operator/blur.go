package operator

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/safe"
)

const (
	DefaultKernelSize = 35

	EngineOpenCV = "opencv"
	EngineBild   = "bild"
)

// NormalizeKernelSize bumps even sizes to the next odd one; Gaussian kernels
// need a centre tap.
func NormalizeKernelSize(size int) int {
	if size%2 == 0 {
		return size + 1
	}
	return size
}

// Blur applies an OpenCV Gaussian blur to the selected region.
type Blur struct {
	KernelSize int
}

func NewBlur(kernelSize int) (*Blur, error) {
	if kernelSize <= 0 {
		return nil, fmt.Errorf("kernel size must be positive, got %d", kernelSize)
	}
	return &Blur{KernelSize: NormalizeKernelSize(kernelSize)}, nil
}

func (b *Blur) Name() string {
	return "blur"
}

func (b *Blur) Apply(ctx context.Context, img, mask *safe.Mat) (*safe.Mat, error) {
	ksize := NormalizeKernelSize(b.KernelSize)

	return applyMasked(ctx, b.Name(), img, mask, func(src, _ gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		gocv.GaussianBlur(src, &dst, image.Point{X: ksize, Y: ksize}, 0, 0, gocv.BorderDefault)
		return dst, nil
	})
}

// NewBlurEngine picks the blur implementation named by engine.
func NewBlurEngine(engine string, kernelSize int) (PixelOperator, error) {
	switch engine {
	case "", EngineOpenCV:
		return NewBlur(kernelSize)
	case EngineBild:
		return NewBildBlur(kernelSize)
	default:
		return nil, fmt.Errorf("unknown blur engine %q", engine)
	}
}
