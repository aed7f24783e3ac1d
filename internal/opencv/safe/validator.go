package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MaxDimension bounds either side of an image accepted for processing.
const MaxDimension = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

// ValidateColorImage requires an 8-bit, three channel image.
func ValidateColorImage(mat *Mat, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("operation %s requires an 8-bit 3-channel image, got %d channels (type %d)",
			operation, mat.Channels(), int(mat.Type()))
	}

	return nil
}

// ValidateMask requires an 8-bit single channel Mat.
func ValidateMask(mat *Mat, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}

	if mat.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("operation %s requires an 8-bit single channel mask, got %d channels (type %d)",
			operation, mat.Channels(), int(mat.Type()))
	}

	return nil
}

// ValidateSameSize requires a and b to cover the same pixel grid.
func ValidateSameSize(a, b *Mat, operation string) error {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("size mismatch for operation %s: %dx%d vs %dx%d",
			operation, a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}
	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

func ValidateCoordinates(row, col, rows, cols int, operation string) error {
	if row < 0 || row >= rows {
		return fmt.Errorf("row %d out of bounds [0, %d) for operation: %s", row, rows, operation)
	}

	if col < 0 || col >= cols {
		return fmt.Errorf("col %d out of bounds [0, %d) for operation: %s", col, cols, operation)
	}

	return nil
}

func ValidateChannel(channel, channels int, operation string) error {
	if channel < 0 || channel >= channels {
		return fmt.Errorf("channel %d out of bounds [0, %d) for operation: %s", channel, channels, operation)
	}

	return nil
}
