package gui

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"region-obliterator/internal/opencv/safe"
	"region-obliterator/internal/operator"
	"region-obliterator/internal/session"
)

func newTestWindow(t *testing.T) (*Window, *session.EditSession, *int) {
	t.Helper()
	app := test.NewApp()

	img, err := safe.NewMat(60, 80, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	require.NoError(t, img.Mutate(func(m *gocv.Mat) error {
		m.SetTo(gocv.NewScalar(40, 90, 160, 0))
		gocv.Rectangle(m, image.Rect(30, 20, 50, 40), color.RGBA{255, 255, 255, 255}, -1)
		return nil
	}))
	t.Cleanup(img.Close)

	blur, err := operator.NewBlur(15)
	require.NoError(t, err)
	inpaint, err := operator.NewInpaint(3)
	require.NoError(t, err)

	saves := 0
	sess, err := session.New(img, session.Options{
		Brush:      session.Brush{Radius: 20, Min: 5, Max: 100, Step: 5},
		OutputPath: "out.jpg",
		Overlay:    color.RGBA{R: 255, A: 255},
		Blur:       blur,
		Inpaint:    inpaint,
		Save: func(string, *safe.Mat) error {
			saves++
			return nil
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	return NewWindow(app, sess, nil), sess, &saves
}

func TestWindowShowsPreviewOnOpen(t *testing.T) {
	w, _, _ := newTestWindow(t)

	require.NotNil(t, w.canvas.Image())
	assert.Equal(t, image.Rect(0, 0, 80, 60), w.canvas.Image().Bounds())
	assert.Equal(t, "Brush: 20", w.brush.Text)
}

func TestWindowKeysDriveSession(t *testing.T) {
	w, sess, saves := newTestWindow(t)

	w.handleRune('+')
	assert.Equal(t, "Brush: 25", w.brush.Text)
	w.handleRune('_')
	assert.Equal(t, "Brush: 20", w.brush.Text)

	w.handleRune(' ')
	assert.Equal(t, "No area selected!", w.status.Text)

	w.strokeStart(image.Pt(40, 30))
	assert.Equal(t, session.Painting, sess.State())
	w.canvas.OnStrokeEnd()
	assert.Equal(t, session.Idle, sess.State())

	w.handleRune('I')
	assert.Contains(t, w.status.Text, "done")

	w.handleRune('s')
	assert.Equal(t, 1, *saves)
	assert.Equal(t, "Saved: out.jpg", w.status.Text)

	w.handleRune('x')
	assert.Equal(t, "Saved: out.jpg", w.status.Text)
}

func TestWindowPaintShowsOverlay(t *testing.T) {
	w, _, _ := newTestWindow(t)

	w.strokeStart(image.Pt(10, 10))
	w.canvas.OnStrokeEnd()

	r, g, b, _ := w.canvas.Image().At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestWindowRepaintsOnStrokeEnd(t *testing.T) {
	w, sess, _ := newTestWindow(t)

	w.strokeStart(image.Pt(40, 30))
	during := w.canvas.Image()

	w.canvas.OnStrokeEnd()
	assert.Equal(t, session.Idle, sess.State())
	assert.NotSame(t, during, w.canvas.Image())
}
