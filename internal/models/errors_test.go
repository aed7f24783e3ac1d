package models

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("request: %w", &LoadError{Source: "mask", Err: io.ErrUnexpectedEOF})

	assert.True(t, IsLoadError(err))
	assert.False(t, IsProcessingError(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "load mask")
}

func TestProcessingErrorUnwraps(t *testing.T) {
	cause := errors.New("cv exception")
	err := &ProcessingError{Operation: "inpaint", Err: cause}

	assert.True(t, IsProcessingError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "inpaint failed: cv exception", err.Error())
}

func TestNewLoadError(t *testing.T) {
	err := NewLoadError("image", "decoded %d bytes to nothing", 12)
	assert.Equal(t, "load image: decoded 12 bytes to nothing", err.Error())
}
