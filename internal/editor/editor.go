// Package editor keeps the original and working copies of an image together
// with its selection mask and applies pixel operators through that mask.
package editor

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"region-obliterator/internal/logger"
	"region-obliterator/internal/mask"
	"region-obliterator/internal/models"
	"region-obliterator/internal/operator"
	"region-obliterator/internal/opencv/safe"
)

// RegionEditor is not safe for concurrent use; callers serialise access.
type RegionEditor struct {
	original *safe.Mat
	current  *safe.Mat
	mask     *mask.Store
	logger   logger.Logger
}

// New snapshots img as the original. The editor keeps its own copies; the
// caller still owns img.
func New(img *safe.Mat, threshold int, tracker safe.MemoryTracker, log logger.Logger) (*RegionEditor, error) {
	if err := safe.ValidateColorImage(img, "editor"); err != nil {
		return nil, &models.LoadError{Source: "image", Err: err}
	}
	if log == nil {
		log = logger.NewNop()
	}

	original, err := safe.NewMatFromMatWithTracker(img.GetMat(), tracker, "original")
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot original: %w", err)
	}

	current, err := original.CloneAs("current")
	if err != nil {
		original.Close()
		return nil, fmt.Errorf("failed to create working copy: %w", err)
	}

	store, err := mask.NewStore(img.Rows(), img.Cols(), threshold, tracker)
	if err != nil {
		original.Close()
		current.Close()
		return nil, err
	}

	return &RegionEditor{
		original: original,
		current:  current,
		mask:     store,
		logger:   log,
	}, nil
}

// Current is the working image. It is replaced, never mutated, by Apply and
// Reset, so callers must not hold on to it across those calls.
func (e *RegionEditor) Current() *safe.Mat {
	return e.current
}

func (e *RegionEditor) Original() *safe.Mat {
	return e.original
}

func (e *RegionEditor) Mask() *mask.Store {
	return e.mask
}

// Apply runs op over the current image restricted to the selection. The mask
// is left as it is so further operators can be stacked on the same region.
// An empty selection leaves current untouched and returns models.ErrEmptySelection.
func (e *RegionEditor) Apply(ctx context.Context, op operator.PixelOperator) (*EditStats, error) {
	binary, err := e.mask.BinaryView(e.mask.Threshold())
	if err != nil {
		return nil, &models.ProcessingError{Operation: op.Name(), Err: err}
	}
	defer binary.Close()

	result, err := op.Apply(ctx, e.current, binary)
	if errors.Is(err, models.ErrEmptySelection) {
		if result != nil {
			result.Close()
		}
		e.logger.Warning("Editor", "nothing selected", map[string]interface{}{
			"operation": op.Name(),
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if err := checkResult(e.current, result, op.Name()); err != nil {
		result.Close()
		return nil, &models.ProcessingError{Operation: op.Name(), Err: err}
	}

	stats, err := ComputeStats(e.current, result, binary)
	if err != nil {
		e.logger.Debug("Editor", "edit statistics unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		stats = &EditStats{SelectedPixels: gocv.CountNonZero(binary.GetMat())}
	}

	e.current.Close()
	e.current = result

	e.logger.Info("Editor", "edit applied", map[string]interface{}{
		"operation":       op.Name(),
		"selected_pixels": stats.SelectedPixels,
		"mean_change":     stats.MeanChange,
		"stddev_change":   stats.StdDevChange,
	})

	return stats, nil
}

func checkResult(current, result *safe.Mat, operation string) error {
	if err := safe.ValidateSameSize(current, result, operation); err != nil {
		return err
	}
	if result.Type() != current.Type() {
		return fmt.Errorf("result type %d does not match image type %d", int(result.Type()), int(current.Type()))
	}
	return nil
}

// Reset restores the working image from the original and clears the selection.
func (e *RegionEditor) Reset() error {
	restored, err := e.original.CloneAs("current")
	if err != nil {
		return fmt.Errorf("failed to restore original: %w", err)
	}

	e.current.Close()
	e.current = restored

	if err := e.mask.Clear(); err != nil {
		return fmt.Errorf("failed to clear mask: %w", err)
	}

	e.logger.Info("Editor", "image reset", nil)
	return nil
}

// ClearSelection empties the mask and keeps every edit made so far.
func (e *RegionEditor) ClearSelection() error {
	if err := e.mask.Clear(); err != nil {
		return fmt.Errorf("failed to clear mask: %w", err)
	}
	e.logger.Debug("Editor", "selection cleared", nil)
	return nil
}

func (e *RegionEditor) Close() {
	e.current.Close()
	e.original.Close()
	e.mask.Close()
}
