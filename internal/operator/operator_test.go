package operator

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"region-obliterator/internal/models"
	"region-obliterator/internal/opencv/safe"
)

func gradientImage(t *testing.T, rows, cols int) *safe.Mat {
	t.Helper()
	data := make([]byte, 0, rows*cols*3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data = append(data, uint8(x*7), uint8(y*5), uint8((x*y)%256))
		}
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	defer m.Close()

	img, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(img.Close)
	return img
}

func solidImage(t *testing.T, rows, cols int, bgr gocv.Scalar) *safe.Mat {
	t.Helper()
	img, err := safe.NewMat(rows, cols, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	require.NoError(t, img.Mutate(func(m *gocv.Mat) error {
		m.SetTo(bgr)
		return nil
	}))
	t.Cleanup(img.Close)
	return img
}

func discMask(t *testing.T, rows, cols int, center image.Point, radius int) *safe.Mat {
	t.Helper()
	m, err := safe.NewMat(rows, cols, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	if radius > 0 {
		require.NoError(t, m.Mutate(func(mat *gocv.Mat) error {
			gocv.Circle(mat, center, radius, color.RGBA{255, 255, 255, 255}, -1)
			return nil
		}))
	}
	t.Cleanup(m.Close)
	return m
}

func assertUnselectedUnchanged(t *testing.T, before, after, mask *safe.Mat) {
	t.Helper()
	require.Equal(t, before.Rows(), after.Rows())
	require.Equal(t, before.Cols(), after.Cols())
	require.Equal(t, before.Type(), after.Type())

	b, a, m := before.Bytes(), after.Bytes(), mask.Bytes()
	for p, sel := range m {
		if sel != 0 {
			continue
		}
		require.Equal(t, b[p*3:p*3+3], a[p*3:p*3+3], "pixel %d drifted", p)
	}
}

func selectedChanged(before, after, mask *safe.Mat) bool {
	b, a, m := before.Bytes(), after.Bytes(), mask.Bytes()
	for p, sel := range m {
		if sel == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			if b[p*3+c] != a[p*3+c] {
				return true
			}
		}
	}
	return false
}

func operators(t *testing.T) []PixelOperator {
	t.Helper()
	blur, err := NewBlur(15)
	require.NoError(t, err)
	inpaint, err := NewInpaint(DefaultInpaintRadius)
	require.NoError(t, err)
	bild, err := NewBildBlur(15)
	require.NoError(t, err)
	return []PixelOperator{blur, inpaint, bild}
}

func TestNormalizeKernelSize(t *testing.T) {
	assert.Equal(t, 35, NormalizeKernelSize(34))
	assert.Equal(t, 35, NormalizeKernelSize(35))
	assert.Equal(t, 1, NormalizeKernelSize(1))

	b, err := NewBlur(34)
	require.NoError(t, err)
	assert.Equal(t, 35, b.KernelSize)

	_, err = NewBlur(0)
	assert.Error(t, err)
	_, err = NewInpaint(0)
	assert.Error(t, err)
}

func TestNewBlurEngine(t *testing.T) {
	op, err := NewBlurEngine("", 10)
	require.NoError(t, err)
	assert.IsType(t, &Blur{}, op)

	op, err = NewBlurEngine(EngineBild, 10)
	require.NoError(t, err)
	assert.IsType(t, &BildBlur{}, op)
	assert.Equal(t, 11, op.(*BildBlur).KernelSize)

	_, err = NewBlurEngine("gpu", 10)
	assert.Error(t, err)
}

func TestOperatorsPreserveUnselectedPixels(t *testing.T) {
	img := gradientImage(t, 60, 80)
	mask := discMask(t, 60, 80, image.Pt(40, 30), 12)
	before := img.Bytes()

	for _, op := range operators(t) {
		out, err := op.Apply(context.Background(), img, mask)
		require.NoError(t, err, op.Name())

		assert.NotEqual(t, img.ID(), out.ID())
		assertUnselectedUnchanged(t, img, out, mask)
		assert.True(t, selectedChanged(img, out, mask), "%T changed nothing", op)
		assert.Equal(t, before, img.Bytes(), "input mutated by %T", op)
		out.Close()
	}
}

func TestOperatorsAreIdentityOnEmptyMask(t *testing.T) {
	img := gradientImage(t, 30, 30)
	mask := discMask(t, 30, 30, image.Point{}, 0)

	for _, op := range operators(t) {
		out, err := op.Apply(context.Background(), img, mask)
		assert.ErrorIs(t, err, models.ErrEmptySelection)
		require.NotNil(t, out)
		assert.Equal(t, img.Bytes(), out.Bytes())
		assert.NotEqual(t, img.ID(), out.ID())
		out.Close()
	}
}

func TestOperatorsRejectMismatchedMask(t *testing.T) {
	img := gradientImage(t, 30, 30)
	mask := discMask(t, 30, 31, image.Pt(5, 5), 3)

	for _, op := range operators(t) {
		_, err := op.Apply(context.Background(), img, mask)
		assert.True(t, models.IsProcessingError(err), "%T", op)
	}
}

func TestOperatorsHonourCancelledContext(t *testing.T) {
	img := gradientImage(t, 10, 10)
	mask := discMask(t, 10, 10, image.Pt(5, 5), 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, op := range operators(t) {
		_, err := op.Apply(ctx, img, mask)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestBlurBlackImageStaysBlackOutsideSelection(t *testing.T) {
	img := solidImage(t, 100, 100, gocv.NewScalar(0, 0, 0, 0))
	mask := discMask(t, 100, 100, image.Pt(50, 50), 20)

	blur, err := NewBlur(35)
	require.NoError(t, err)

	out, err := blur.Apply(context.Background(), img, mask)
	require.NoError(t, err)
	defer out.Close()

	data, m := out.Bytes(), mask.Bytes()
	for p, sel := range m {
		if sel == 0 {
			require.Equal(t, []byte{0, 0, 0}, data[p*3:p*3+3])
		}
	}
}

func TestInpaintFillsFromSurroundings(t *testing.T) {
	img := solidImage(t, 50, 50, gocv.NewScalar(255, 255, 255, 0))
	require.NoError(t, img.Mutate(func(m *gocv.Mat) error {
		gocv.Rectangle(m, image.Rect(20, 20, 30, 30), color.RGBA{0, 0, 0, 255}, -1)
		return nil
	}))
	mask := discMask(t, 50, 50, image.Pt(25, 25), 9)

	inpaint, err := NewInpaint(DefaultInpaintRadius)
	require.NoError(t, err)

	out, err := inpaint.Apply(context.Background(), img, mask)
	require.NoError(t, err)
	defer out.Close()

	v, err := out.GetUCharAt3(25, 25, 1)
	require.NoError(t, err)
	assert.Greater(t, int(v), 200)
	assertUnselectedUnchanged(t, img, out, mask)
}

func TestCompositeSelectsPerPixel(t *testing.T) {
	base := solidImage(t, 4, 4, gocv.NewScalar(10, 10, 10, 0))
	overlay := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(99, 99, 99, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer overlay.Close()

	mask, err := safe.NewMat(4, 4, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer mask.Close()
	require.NoError(t, mask.Mutate(func(m *gocv.Mat) error {
		m.SetUCharAt(1, 2, 255)
		return nil
	}))

	out, err := Composite(base, overlay, mask, "test")
	require.NoError(t, err)
	defer out.Close()

	v, _ := out.GetUCharAt3(1, 2, 0)
	assert.EqualValues(t, 99, v)
	v, _ = out.GetUCharAt3(2, 1, 0)
	assert.EqualValues(t, 10, v)
}

func blockImage(t *testing.T, rows, cols, block int) *safe.Mat {
	t.Helper()
	data := make([]byte, 0, rows*cols*3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := uint8(20)
			if (x/block+y/block)%2 == 0 {
				v = 235
			}
			data = append(data, v, v, v)
		}
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	defer m.Close()

	img, err := safe.NewMatFromMat(m)
	require.NoError(t, err)
	t.Cleanup(img.Close)
	return img
}

func TestBildBlurRadiusMatchesSigma(t *testing.T) {
	b, err := NewBildBlur(35)
	require.NoError(t, err)

	assert.InDelta(t, 5.6, b.Sigma(), 1e-9)
	assert.InDelta(t, 15.68, b.Radius(), 1e-9)
}

func TestBildBlurTracksOpenCVBlur(t *testing.T) {
	const size = 96
	img := blockImage(t, size, size, 6)
	mask := discMask(t, size, size, image.Pt(size/2, size/2), 30)

	cv, err := NewBlur(35)
	require.NoError(t, err)
	pure, err := NewBildBlur(35)
	require.NoError(t, err)

	want, err := cv.Apply(context.Background(), img, mask)
	require.NoError(t, err)
	defer want.Close()
	got, err := pure.Apply(context.Background(), img, mask)
	require.NoError(t, err)
	defer got.Close()

	// Only compare where neither kernel reaches the image border.
	w, g := want.Bytes(), got.Bytes()
	total, n := 0, 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-size/2, y-size/2
			if dx*dx+dy*dy > 20*20 {
				continue
			}
			p := (y*size + x) * 3
			for c := 0; c < 3; c++ {
				d := int(w[p+c]) - int(g[p+c])
				if d < 0 {
					d = -d
				}
				total += d
				n++
			}
		}
	}
	require.NotZero(t, n)
	assert.Less(t, float64(total)/float64(n), 2.0)
}
