// Package gui hosts an EditSession in a fyne window.
package gui

import (
	"context"
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"region-obliterator/internal/gui/widgets"
	"region-obliterator/internal/logger"
	"region-obliterator/internal/session"
)

const WindowTitle = "Region Obliterator"

type Window struct {
	app     fyne.App
	window  fyne.Window
	session *session.EditSession
	logger  logger.Logger

	canvas *widgets.PaintCanvas
	status *widget.Label
	brush  *widget.Label
}

func NewWindow(app fyne.App, sess *session.EditSession, log logger.Logger) *Window {
	if log == nil {
		log = logger.NewNop()
	}

	w := &Window{
		app:     app,
		window:  app.NewWindow(WindowTitle),
		session: sess,
		logger:  log,
		canvas:  widgets.NewPaintCanvas(),
		status:  widget.NewLabel("Ready"),
		brush:   widget.NewLabel(""),
	}

	w.canvas.OnStrokeStart = w.strokeStart
	w.canvas.OnStrokeMove = w.strokeMove
	w.canvas.OnStrokeEnd = w.strokeEnd

	w.window.SetContent(container.NewBorder(
		nil,
		container.NewBorder(nil, nil, w.status, w.brush),
		nil, nil,
		w.canvas,
	))
	w.window.Canvas().SetOnTypedRune(w.handleRune)
	w.window.Canvas().SetOnTypedKey(w.handleKey)
	w.window.SetOnClosed(func() {
		w.logger.Info("GUI", "window closed", nil)
	})

	w.refresh()
	return w
}

func (w *Window) Window() fyne.Window {
	return w.window
}

// ShowAndRun blocks until the window is closed.
func (w *Window) ShowAndRun() {
	w.window.ShowAndRun()
}

func (w *Window) strokeStart(p image.Point) {
	if err := w.session.PointerDown(p); err != nil {
		w.logger.Error("GUI", err, map[string]interface{}{"x": p.X, "y": p.Y})
	}
	w.refreshPreview()
}

func (w *Window) strokeMove(p image.Point) {
	if err := w.session.PointerMove(p); err != nil {
		w.logger.Error("GUI", err, map[string]interface{}{"x": p.X, "y": p.Y})
	}
	w.refreshPreview()
}

func (w *Window) strokeEnd() {
	w.session.PointerUp()
	w.refreshPreview()
}

func (w *Window) handleRune(r rune) {
	cmd, ok := session.CommandForKey(r)
	if !ok {
		return
	}
	w.execute(cmd)
}

func (w *Window) handleKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		w.execute(session.CommandQuit)
	}
}

func (w *Window) execute(cmd session.Command) {
	// Failures are logged by the session and surface through Status.
	quit, _ := w.session.Execute(context.Background(), cmd)
	if quit {
		w.window.Close()
		w.app.Quit()
		return
	}
	w.refresh()
}

func (w *Window) refresh() {
	w.refreshPreview()
	if msg := w.session.Status(); msg != "" {
		w.status.SetText(msg)
	}
	w.brush.SetText(brushLabel(w.session.BrushRadius()))
}

func (w *Window) refreshPreview() {
	preview, err := w.session.Preview()
	if err != nil {
		w.logger.Error("GUI", err, map[string]interface{}{"stage": "preview"})
		return
	}
	w.canvas.SetImage(preview)
}

func brushLabel(radius int) string {
	return fmt.Sprintf("Brush: %d", radius)
}
