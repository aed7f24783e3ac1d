package operator

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/safe"
)

const DefaultInpaintRadius = 3

// Inpaint reconstructs the selected region from its surroundings with the
// Telea fast marching method.
type Inpaint struct {
	Radius float32
}

func NewInpaint(radius float32) (*Inpaint, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("inpaint radius must be positive, got %v", radius)
	}
	return &Inpaint{Radius: radius}, nil
}

func (p *Inpaint) Name() string {
	return "inpaint"
}

func (p *Inpaint) Apply(ctx context.Context, img, mask *safe.Mat) (*safe.Mat, error) {
	return applyMasked(ctx, p.Name(), img, mask, func(src, m gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		gocv.Inpaint(src, m, &dst, p.Radius, gocv.Telea)
		return dst, nil
	})
}
