package operator

import (
	"context"
	"fmt"

	"github.com/anthonynsimon/bild/blur"
	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/conversion"
	"region-obliterator/internal/opencv/safe"
)

// BildBlur is a pure Go Gaussian blur. Its sigma follows the value OpenCV
// derives for a kernel of the same size, so results are close to Blur but not
// bit-identical. Borders are clamped rather than reflected.
type BildBlur struct {
	KernelSize int
}

func NewBildBlur(kernelSize int) (*BildBlur, error) {
	if kernelSize <= 0 {
		return nil, fmt.Errorf("kernel size must be positive, got %d", kernelSize)
	}
	return &BildBlur{KernelSize: NormalizeKernelSize(kernelSize)}, nil
}

func (b *BildBlur) Name() string {
	return "blur"
}

// Sigma is OpenCV's default sigma for the kernel size.
func (b *BildBlur) Sigma() float64 {
	k := float64(NormalizeKernelSize(b.KernelSize))
	return 0.3*((k-1)*0.5-1) + 0.8
}

// Radius is the bild parameter giving Sigma. bild weights taps by
// exp(-x²/(4r)) over ceil(2r+1) taps, so r = sigma²/2.
func (b *BildBlur) Radius() float64 {
	sigma := b.Sigma()
	return sigma * sigma / 2
}

func (b *BildBlur) Apply(ctx context.Context, img, mask *safe.Mat) (*safe.Mat, error) {
	return applyMasked(ctx, b.Name(), img, mask, func(src, _ gocv.Mat) (gocv.Mat, error) {
		goImg, err := conversion.MatToImage(img)
		if err != nil {
			return gocv.NewMat(), err
		}

		blurred := blur.Gaussian(goImg, b.Radius())

		out, err := conversion.ImageToMat(blurred, nil, "bild_blur")
		if err != nil {
			return gocv.NewMat(), err
		}
		defer out.Close()

		outMat := out.GetMat()
		return outMat.Clone(), nil
	})
}
