package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	CanvasMinWidth  = 640
	CanvasMinHeight = 480
)

// PaintCanvas shows an image and reports pointer strokes in image pixel
// coordinates. The image is drawn with ImageFillContain.
type PaintCanvas struct {
	widget.BaseWidget

	image *canvas.Image

	OnStrokeStart func(image.Point)
	OnStrokeMove  func(image.Point)
	OnStrokeEnd   func()
}

var (
	_ desktop.Mouseable = (*PaintCanvas)(nil)
	_ fyne.Draggable    = (*PaintCanvas)(nil)
)

func NewPaintCanvas() *PaintCanvas {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(CanvasMinWidth, CanvasMinHeight))

	pc := &PaintCanvas{image: img}
	pc.ExtendBaseWidget(pc)
	return pc
}

func (pc *PaintCanvas) SetImage(img image.Image) {
	pc.image.Image = img
	pc.image.Refresh()
}

func (pc *PaintCanvas) Image() image.Image {
	return pc.image.Image
}

func (pc *PaintCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(pc.image)
}

func (pc *PaintCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if p, ok := pc.toImage(ev.Position); ok && pc.OnStrokeStart != nil {
		pc.OnStrokeStart(p)
	}
}

func (pc *PaintCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if pc.OnStrokeEnd != nil {
		pc.OnStrokeEnd()
	}
}

func (pc *PaintCanvas) Dragged(ev *fyne.DragEvent) {
	if p, ok := pc.toImage(ev.Position); ok && pc.OnStrokeMove != nil {
		pc.OnStrokeMove(p)
	}
}

func (pc *PaintCanvas) DragEnd() {
	if pc.OnStrokeEnd != nil {
		pc.OnStrokeEnd()
	}
}

func (pc *PaintCanvas) toImage(pos fyne.Position) (image.Point, bool) {
	if pc.image.Image == nil {
		return image.Point{}, false
	}
	b := pc.image.Image.Bounds()
	return ToImagePoint(pos, pc.Size(), b.Dx(), b.Dy())
}

// ToImagePoint maps a widget-relative position onto pixel coordinates of an
// imgW x imgH image letterboxed into size. ok is false outside the drawn image.
func ToImagePoint(pos fyne.Position, size fyne.Size, imgW, imgH int) (image.Point, bool) {
	if imgW <= 0 || imgH <= 0 || size.Width <= 0 || size.Height <= 0 {
		return image.Point{}, false
	}

	scale := size.Width / float32(imgW)
	if s := size.Height / float32(imgH); s < scale {
		scale = s
	}
	offX := (size.Width - float32(imgW)*scale) / 2
	offY := (size.Height - float32(imgH)*scale) / 2

	fx := (pos.X - offX) / scale
	fy := (pos.Y - offY) / scale
	if fx < 0 || fy < 0 {
		return image.Point{}, false
	}

	p := image.Pt(int(fx), int(fy))
	if p.X >= imgW || p.Y >= imgH {
		return image.Point{}, false
	}
	return p, true
}
