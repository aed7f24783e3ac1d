// Package mask holds the single channel selection mask painted over an image.
//
// A pixel is selected when its value exceeds the store's threshold. Paint
// strokes only ever add to the selection; Clear is the only way back.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/safe"
)

// Selected is the value written by paint strokes and by BinaryView.
const Selected = 255

type Store struct {
	mat       *safe.Mat
	threshold int
}

// NewStore creates an all-zero mask covering a rows x cols grid.
func NewStore(rows, cols, threshold int, tracker safe.MemoryTracker) (*Store, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("mask threshold %d outside [0,255]", threshold)
	}

	mat, err := safe.NewMatWithTracker(rows, cols, gocv.MatTypeCV8UC1, tracker, "mask")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate mask: %w", err)
	}

	return &Store{mat: mat, threshold: threshold}, nil
}

// FromMat wraps an existing single channel mask, such as an uploaded one.
// The store takes ownership; closing both is harmless.
func FromMat(mat *safe.Mat, threshold int) (*Store, error) {
	if err := safe.ValidateMask(mat, "mask store"); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("mask threshold %d outside [0,255]", threshold)
	}
	return &Store{mat: mat, threshold: threshold}, nil
}

func (s *Store) Rows() int      { return s.mat.Rows() }
func (s *Store) Cols() int      { return s.mat.Cols() }
func (s *Store) Threshold() int { return s.threshold }

// Mat exposes the raw mask values for read-only use.
func (s *Store) Mat() *safe.Mat {
	return s.mat
}

// Paint stamps a filled circle of the selected value. Parts of the circle that
// fall outside the grid are clipped; a non-positive radius stamps nothing.
func (s *Store) Paint(center image.Point, radius int) error {
	if radius <= 0 {
		return nil
	}

	return s.mat.Mutate(func(m *gocv.Mat) error {
		gocv.Circle(m, center, radius, color.RGBA{R: Selected, G: Selected, B: Selected, A: Selected}, -1)
		return nil
	})
}

func (s *Store) Clear() error {
	return s.mat.Mutate(func(m *gocv.Mat) error {
		m.SetTo(gocv.NewScalar(0, 0, 0, 0))
		return nil
	})
}

// Count returns the number of pixels above the threshold.
func (s *Store) Count() (int, error) {
	view, err := s.BinaryView(s.threshold)
	if err != nil {
		return 0, err
	}
	defer view.Close()

	return gocv.CountNonZero(view.GetMat()), nil
}

func (s *Store) IsEmpty() (bool, error) {
	n, err := s.Count()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// BinaryView returns a fresh 0/255 mask where value > threshold maps to 255.
func (s *Store) BinaryView(threshold int) (*safe.Mat, error) {
	return binarize(s.mat, threshold)
}

func binarize(src *safe.Mat, threshold int) (*safe.Mat, error) {
	if err := safe.ValidateMask(src, "binarize"); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("mask threshold %d outside [0,255]", threshold)
	}

	dst := gocv.NewMat()
	gocv.Threshold(src.GetMat(), &dst, float32(threshold), Selected, gocv.ThresholdBinary)

	return safe.Adopt(dst, nil, "mask_binary")
}

func (s *Store) Close() {
	s.mat.Close()
}
