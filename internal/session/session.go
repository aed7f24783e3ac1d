// Package session drives a RegionEditor from pointer and key events.
//
// A session is single threaded: every method must be called from the UI event
// loop, one event at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"region-obliterator/internal/codec"
	"region-obliterator/internal/editor"
	"region-obliterator/internal/logger"
	"region-obliterator/internal/models"
	"region-obliterator/internal/opencv/conversion"
	"region-obliterator/internal/opencv/safe"
	"region-obliterator/internal/operator"
)

type State int

const (
	Idle State = iota
	Painting
)

func (s State) String() string {
	if s == Painting {
		return "painting"
	}
	return "idle"
}

// Options configures a session. Blur and Inpaint are required.
type Options struct {
	Threshold  int
	Brush      Brush
	OutputPath string
	Overlay    color.RGBA
	Blur       operator.PixelOperator
	Inpaint    operator.PixelOperator
	Tracker    safe.MemoryTracker
	// Save writes the current image; defaults to codec.SaveFile.
	Save func(path string, img *safe.Mat) error
}

type EditSession struct {
	editor  *editor.RegionEditor
	opts    Options
	brush   Brush
	state   State
	status  string
	logger  logger.Logger
	overlay *safe.Mat
}

func New(img *safe.Mat, opts Options, log logger.Logger) (*EditSession, error) {
	if opts.Blur == nil || opts.Inpaint == nil {
		return nil, fmt.Errorf("session requires blur and inpaint operators")
	}
	if opts.Brush.Min <= 0 || opts.Brush.Max < opts.Brush.Min || opts.Brush.Step <= 0 {
		return nil, fmt.Errorf("invalid brush range [%d,%d] step %d", opts.Brush.Min, opts.Brush.Max, opts.Brush.Step)
	}
	if opts.Save == nil {
		opts.Save = codec.SaveFile
	}
	if log == nil {
		log = logger.NewNop()
	}

	ed, err := editor.New(img, opts.Threshold, opts.Tracker, log)
	if err != nil {
		return nil, err
	}

	overlay := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(opts.Overlay.B), float64(opts.Overlay.G), float64(opts.Overlay.R), 0),
		img.Rows(), img.Cols(), gocv.MatTypeCV8UC3)
	overlayMat, err := safe.Adopt(overlay, opts.Tracker, "overlay")
	if err != nil {
		ed.Close()
		return nil, fmt.Errorf("failed to create overlay: %w", err)
	}

	brush := opts.Brush
	brush.clamp()

	return &EditSession{
		editor:  ed,
		opts:    opts,
		brush:   brush,
		state:   Idle,
		logger:  log,
		overlay: overlayMat,
	}, nil
}

func (s *EditSession) State() State {
	return s.state
}

func (s *EditSession) BrushRadius() int {
	return s.brush.Radius
}

func (s *EditSession) Editor() *editor.RegionEditor {
	return s.editor
}

// Status is the most recent user-facing message.
func (s *EditSession) Status() string {
	return s.status
}

// PointerDown starts a stroke and stamps the brush at p.
func (s *EditSession) PointerDown(p image.Point) error {
	s.state = Painting
	return s.stamp(p)
}

// PointerMove stamps the brush at p while a stroke is in progress.
func (s *EditSession) PointerMove(p image.Point) error {
	if s.state != Painting {
		return nil
	}
	return s.stamp(p)
}

func (s *EditSession) PointerUp() {
	s.state = Idle
}

func (s *EditSession) stamp(p image.Point) error {
	if err := s.editor.Mask().Paint(p, s.brush.Radius); err != nil {
		return fmt.Errorf("paint failed: %w", err)
	}
	return nil
}

// Execute runs one command. It reports whether the session should end. Errors
// are logged and recorded in Status; they never end the session.
func (s *EditSession) Execute(ctx context.Context, cmd Command) (quit bool, err error) {
	s.logger.Debug("Session", "command", map[string]interface{}{"command": cmd.String()})

	switch cmd {
	case CommandBlur:
		err = s.apply(ctx, s.opts.Blur)
	case CommandInpaint:
		err = s.apply(ctx, s.opts.Inpaint)
	case CommandClearMask:
		if err = s.editor.ClearSelection(); err == nil {
			s.report("Mask cleared")
		}
	case CommandReset:
		if err = s.editor.Reset(); err == nil {
			s.report("Reset")
		}
	case CommandGrowBrush:
		s.report(fmt.Sprintf("Brush size: %d", s.brush.Grow()))
	case CommandShrinkBrush:
		s.report(fmt.Sprintf("Brush size: %d", s.brush.Shrink()))
	case CommandSave:
		if err = s.opts.Save(s.opts.OutputPath, s.editor.Current()); err == nil {
			s.report("Saved: " + s.opts.OutputPath)
		}
	case CommandQuit:
		return true, nil
	default:
		err = fmt.Errorf("unknown command %d", int(cmd))
	}

	if err != nil {
		if errors.Is(err, models.ErrEmptySelection) {
			s.status = "No area selected!"
			return false, err
		}
		s.status = "Error: " + err.Error()
		s.logger.Error("Session", err, map[string]interface{}{"command": cmd.String()})
	}
	return false, err
}

func (s *EditSession) apply(ctx context.Context, op operator.PixelOperator) error {
	stats, err := s.editor.Apply(ctx, op)
	if err != nil {
		return err
	}
	if stats == nil {
		s.report(op.Name() + " done")
		return nil
	}
	s.report(fmt.Sprintf("%s done (%d pixels)", op.Name(), stats.SelectedPixels))
	return nil
}

func (s *EditSession) report(msg string) {
	s.status = msg
	s.logger.Info("Session", msg, nil)
}

// PreviewMat renders the current image with selected pixels painted in the
// overlay colour. Neither the image nor the mask is modified.
func (s *EditSession) PreviewMat() (*safe.Mat, error) {
	selection, err := s.editor.Mask().BinaryView(s.editor.Mask().Threshold())
	if err != nil {
		return nil, err
	}
	defer selection.Close()

	return operator.Composite(s.editor.Current(), s.overlay.GetMat(), selection, "preview")
}

// Preview is PreviewMat converted for display.
func (s *EditSession) Preview() (image.Image, error) {
	mat, err := s.PreviewMat()
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return conversion.MatToImage(mat)
}

func (s *EditSession) Close() {
	s.overlay.Close()
	s.editor.Close()
}
