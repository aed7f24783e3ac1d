package widgets

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToImagePoint(t *testing.T) {
	tests := []struct {
		name   string
		pos    fyne.Position
		size   fyne.Size
		w, h   int
		want   image.Point
		wantOK bool
	}{
		{"identity", fyne.NewPos(10, 20), fyne.NewSize(100, 100), 100, 100, image.Pt(10, 20), true},
		{"scaled up", fyne.NewPos(50, 50), fyne.NewSize(200, 200), 100, 100, image.Pt(25, 25), true},
		{"letterbox horizontal", fyne.NewPos(150, 50), fyne.NewSize(400, 100), 100, 100, image.Pt(0, 50), true},
		{"left bar", fyne.NewPos(100, 50), fyne.NewSize(400, 100), 100, 100, image.Point{}, false},
		{"letterbox vertical", fyne.NewPos(50, 199), fyne.NewSize(100, 300), 100, 100, image.Pt(50, 99), true},
		{"past bottom", fyne.NewPos(50, 201), fyne.NewSize(100, 300), 100, 100, image.Point{}, false},
		{"no image", fyne.NewPos(1, 1), fyne.NewSize(100, 100), 0, 0, image.Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToImagePoint(tt.pos, tt.size, tt.w, tt.h)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPaintCanvasStroke(t *testing.T) {
	test.NewApp()

	pc := NewPaintCanvas()
	pc.SetImage(image.NewRGBA(image.Rect(0, 0, 50, 50)))
	pc.Resize(fyne.NewSize(100, 100))

	var points []image.Point
	ended := 0
	pc.OnStrokeStart = func(p image.Point) { points = append(points, p) }
	pc.OnStrokeMove = func(p image.Point) { points = append(points, p) }
	pc.OnStrokeEnd = func() { ended++ }

	down := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary}
	down.Position = fyne.NewPos(20, 40)
	pc.MouseDown(down)

	drag := &fyne.DragEvent{}
	drag.Position = fyne.NewPos(60, 60)
	pc.Dragged(drag)

	pc.MouseUp(down)

	require.Len(t, points, 2)
	assert.Equal(t, image.Pt(10, 20), points[0])
	assert.Equal(t, image.Pt(30, 30), points[1])
	assert.Equal(t, 1, ended)
}

func TestPaintCanvasIgnoresSecondaryButton(t *testing.T) {
	test.NewApp()

	pc := NewPaintCanvas()
	pc.SetImage(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	pc.Resize(fyne.NewSize(10, 10))

	called := false
	pc.OnStrokeStart = func(image.Point) { called = true }

	ev := &desktop.MouseEvent{Button: desktop.MouseButtonSecondary}
	ev.Position = fyne.NewPos(5, 5)
	pc.MouseDown(ev)
	assert.False(t, called)
}
