// Package operator implements the pluggable full-image transforms that are
// composited back onto an image through a selection mask.
package operator

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"region-obliterator/internal/models"
	"region-obliterator/internal/opencv/safe"
)

// PixelOperator transforms the selected pixels of an image.
//
// Apply never modifies img. The result is a new Mat of the same size and type
// in which every pixel whose mask value is zero is copied unchanged from img.
// When mask selects nothing the result is an unmodified copy and the error is
// models.ErrEmptySelection.
type PixelOperator interface {
	Name() string
	Apply(ctx context.Context, img, mask *safe.Mat) (*safe.Mat, error)
}

// transformFunc computes the operator's output over the whole image.
type transformFunc func(src, mask gocv.Mat) (gocv.Mat, error)

func applyMasked(ctx context.Context, name string, img, mask *safe.Mat, transform transformFunc) (result *safe.Mat, err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := safe.ValidateColorImage(img, name); err != nil {
		return nil, &models.ProcessingError{Operation: name, Err: err}
	}
	if err := safe.ValidateMask(mask, name); err != nil {
		return nil, &models.ProcessingError{Operation: name, Err: err}
	}
	if err := safe.ValidateSameSize(img, mask, name); err != nil {
		return nil, &models.ProcessingError{Operation: name, Err: err}
	}

	if gocv.CountNonZero(mask.GetMat()) == 0 {
		identity, err := img.CloneAs(name + "_result")
		if err != nil {
			return nil, &models.ProcessingError{Operation: name, Err: err}
		}
		return identity, models.ErrEmptySelection
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &models.ProcessingError{Operation: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	transformed, err := transform(img.GetMat(), mask.GetMat())
	defer transformed.Close()
	if err != nil {
		return nil, &models.ProcessingError{Operation: name, Err: err}
	}

	if transformed.Empty() || transformed.Rows() != img.Rows() || transformed.Cols() != img.Cols() || transformed.Type() != img.Type() {
		return nil, &models.ProcessingError{Operation: name, Err: fmt.Errorf("transform produced an incompatible image")}
	}

	return Composite(img, transformed, mask, name+"_result")
}

// Composite returns a copy of base in which the pixels selected by mask are
// taken from overlay.
func Composite(base *safe.Mat, overlay gocv.Mat, mask *safe.Mat, tag string) (*safe.Mat, error) {
	result, err := base.CloneAs(tag)
	if err != nil {
		return nil, err
	}

	err = result.Mutate(func(dst *gocv.Mat) error {
		overlay.CopyToWithMask(dst, mask.GetMat())
		return nil
	})
	if err != nil {
		result.Close()
		return nil, err
	}

	return result, nil
}
