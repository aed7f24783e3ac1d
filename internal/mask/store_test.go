package mask

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/safe"
)

func newStore(t *testing.T, rows, cols, threshold int) *Store {
	t.Helper()
	s, err := NewStore(rows, cols, threshold, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewStoreStartsEmpty(t *testing.T) {
	s := newStore(t, 20, 30, 0)

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, 20, s.Rows())
	assert.Equal(t, 30, s.Cols())
}

func TestNewStoreRejectsBadThreshold(t *testing.T) {
	_, err := NewStore(5, 5, 256, nil)
	assert.Error(t, err)
	_, err = NewStore(5, 5, -1, nil)
	assert.Error(t, err)
}

func TestPaintSelectsDisc(t *testing.T) {
	s := newStore(t, 100, 100, 0)
	require.NoError(t, s.Paint(image.Pt(50, 50), 20))

	center, _ := s.Mat().GetUCharAt(50, 50)
	assert.EqualValues(t, Selected, center)

	edge, _ := s.Mat().GetUCharAt(50, 69)
	assert.EqualValues(t, Selected, edge)

	outside, _ := s.Mat().GetUCharAt(50, 75)
	assert.Zero(t, outside)

	corner, _ := s.Mat().GetUCharAt(0, 0)
	assert.Zero(t, corner)

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestPaintIsIdempotent(t *testing.T) {
	s := newStore(t, 64, 64, 0)
	require.NoError(t, s.Paint(image.Pt(20, 30), 10))
	once := s.Mat().Bytes()
	countOnce, err := s.Count()
	require.NoError(t, err)

	require.NoError(t, s.Paint(image.Pt(20, 30), 10))
	assert.Equal(t, once, s.Mat().Bytes())

	countTwice, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, countOnce, countTwice)
}

func TestPaintIsAdditive(t *testing.T) {
	s := newStore(t, 64, 64, 0)
	require.NoError(t, s.Paint(image.Pt(10, 10), 5))
	first, _ := s.Count()

	require.NoError(t, s.Paint(image.Pt(50, 50), 5))
	second, _ := s.Count()
	assert.Equal(t, 2*first, second)

	v, _ := s.Mat().GetUCharAt(10, 10)
	assert.EqualValues(t, Selected, v)
}

func TestPaintOutOfBoundsIsClipped(t *testing.T) {
	s := newStore(t, 10, 10, 0)

	require.NoError(t, s.Paint(image.Pt(-3, -3), 5))
	v, _ := s.Mat().GetUCharAt(0, 0)
	assert.EqualValues(t, Selected, v)

	require.NoError(t, s.Paint(image.Pt(500, 500), 5))
	require.NoError(t, s.Paint(image.Pt(5, 5), 1000))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	require.NoError(t, s.Paint(image.Pt(5, 5), 0))
}

func TestClear(t *testing.T) {
	s := newStore(t, 32, 32, 0)
	require.NoError(t, s.Paint(image.Pt(16, 16), 8))
	require.NoError(t, s.Clear())

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, make([]byte, 32*32), s.Mat().Bytes())
}

func TestBinaryViewThreshold(t *testing.T) {
	raw, err := safe.NewMat(1, 4, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	require.NoError(t, raw.Mutate(func(m *gocv.Mat) error {
		m.SetUCharAt(0, 0, 0)
		m.SetUCharAt(0, 1, 1)
		m.SetUCharAt(0, 2, 127)
		m.SetUCharAt(0, 3, 128)
		return nil
	}))

	s, err := FromMat(raw, 127)
	require.NoError(t, err)
	defer s.Close()

	strict, err := s.BinaryView(127)
	require.NoError(t, err)
	defer strict.Close()
	assert.Equal(t, []byte{0, 0, 0, 255}, strict.Bytes())

	loose, err := s.BinaryView(0)
	require.NoError(t, err)
	defer loose.Close()
	assert.Equal(t, []byte{0, 255, 255, 255}, loose.Bytes())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []byte{0, 1, 127, 128}, s.Mat().Bytes())
}

func TestMaskBelowThresholdIsEmpty(t *testing.T) {
	raw, err := safe.NewMat(3, 3, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	require.NoError(t, raw.Mutate(func(m *gocv.Mat) error {
		m.SetTo(gocv.NewScalar(100, 0, 0, 0))
		return nil
	}))

	s, err := FromMat(raw, 127)
	require.NoError(t, err)
	defer s.Close()

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestFromMatRejectsColour(t *testing.T) {
	raw, err := safe.NewMat(3, 3, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer raw.Close()

	_, err = FromMat(raw, 0)
	assert.Error(t, err)
}
