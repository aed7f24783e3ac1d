// Package codec moves images between bytes, files, base64 payloads and owned Mats.
package codec

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"region-obliterator/internal/models"
	"region-obliterator/internal/opencv/conversion"
	"region-obliterator/internal/opencv/safe"
)

// Codec decodes and encodes images, accounting native allocations against Tracker.
type Codec struct {
	Tracker safe.MemoryTracker
}

func New(tracker safe.MemoryTracker) *Codec {
	return &Codec{Tracker: tracker}
}

// StripDataURI drops a leading "data:<mime>;base64," prefix if present.
func StripDataURI(payload string) string {
	payload = strings.TrimSpace(payload)
	if i := strings.IndexByte(payload, ','); i >= 0 {
		return payload[i+1:]
	}
	return payload
}

func decodeBase64(source, payload string) ([]byte, error) {
	raw := StripDataURI(payload)
	if raw == "" {
		return nil, models.NewLoadError(source, "empty payload")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some clients strip the padding.
		if data, err = base64.RawStdEncoding.DecodeString(raw); err != nil {
			return nil, &models.LoadError{Source: source, Err: fmt.Errorf("invalid base64: %w", err)}
		}
	}
	return data, nil
}

// DecodeImage decodes encoded image bytes into an 8-bit BGR Mat.
func (c *Codec) DecodeImage(source string, data []byte) (*safe.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, &models.LoadError{Source: source, Err: err}
	}
	if mat.Empty() {
		mat.Close()
		return nil, models.NewLoadError(source, "failed to decode image")
	}

	return safe.Adopt(mat, c.Tracker, source)
}

// DecodeMask decodes encoded mask bytes into a single channel Mat. Masks go
// through the same colour decode as images, so deeper bit depths are scaled to
// 8 bits and EXIF orientation matches the image, then collapse to grayscale.
// Alpha is ignored.
func (c *Codec) DecodeMask(source string, data []byte) (*safe.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, &models.LoadError{Source: source, Err: err}
	}
	if mat.Empty() {
		mat.Close()
		return nil, models.NewLoadError(source, "failed to decode mask")
	}

	decoded, err := safe.Adopt(mat, c.Tracker, source+"_raw")
	if err != nil {
		return nil, &models.LoadError{Source: source, Err: err}
	}
	defer decoded.Close()

	gray, err := conversion.ConvertToGrayscale(decoded)
	if err != nil {
		return nil, &models.LoadError{Source: source, Err: err}
	}
	defer gray.Close()

	// Re-home the grayscale copy under the tracker.
	return gray.CloneAs(source)
}

func (c *Codec) DecodeBase64Image(source, payload string) (*safe.Mat, error) {
	data, err := decodeBase64(source, payload)
	if err != nil {
		return nil, err
	}
	return c.DecodeImage(source, data)
}

func (c *Codec) DecodeBase64Mask(source, payload string) (*safe.Mat, error) {
	data, err := decodeBase64(source, payload)
	if err != nil {
		return nil, err
	}
	return c.DecodeMask(source, data)
}

// EncodePNG encodes a Mat as PNG bytes.
func EncodePNG(img *safe.Mat) ([]byte, error) {
	if err := safe.ValidateMatForOperation(img, "png encode"); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img.GetMat())
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodePNGDataURI encodes a Mat as a "data:image/png;base64,..." string.
func EncodePNGDataURI(img *safe.Mat) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// LoadFile reads and decodes an image file into an 8-bit BGR Mat.
func (c *Codec) LoadFile(path string) (*safe.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.LoadError{Source: path, Err: err}
	}
	return c.DecodeImage(path, data)
}

// SaveFile writes img to path, choosing the format from the extension and
// creating parent directories as needed.
func SaveFile(path string, img *safe.Mat) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	goImg, err := conversion.MatToImage(img)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}

	if err := imaging.Save(goImg, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
