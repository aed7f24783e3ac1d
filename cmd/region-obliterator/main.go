package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/lucasb-eyer/go-colorful"

	"region-obliterator/internal/codec"
	"region-obliterator/internal/config"
	"region-obliterator/internal/gui"
	"region-obliterator/internal/logger"
	"region-obliterator/internal/opencv/memory"
	"region-obliterator/internal/operator"
	"region-obliterator/internal/session"
	"region-obliterator/internal/shutdown"
)

const (
	AppID      = "com.imageprocessing.region-obliterator"
	AppVersion = "1.0.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("region-obliterator", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "path to YAML configuration")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: region-obliterator [-config file] <image_path>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 0
	}
	imagePath := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log := logger.NewConsoleLogger(logger.ParseLevel(cfg.Log.Level))
	mem := memory.NewManager(log)
	shutdownMgr := shutdown.NewManager(log)
	shutdownMgr.Register("memory", mem)
	defer shutdownMgr.Shutdown()

	img, err := codec.New(mem).LoadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load image %s: %v\n", imagePath, err)
		return 1
	}
	defer img.Close()

	opts, err := sessionOptions(cfg, mem)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sess, err := session.New(img, opts, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer sess.Close()

	fmt.Print(session.Help)
	log.Info("Main", "image loaded", map[string]interface{}{
		"path":   imagePath,
		"width":  img.Cols(),
		"height": img.Rows(),
	})

	fyneApp := app.NewWithID(AppID)
	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    gui.WindowTitle,
		Version: AppVersion,
	})

	// A signal closes the window; after a normal quit there is no loop left to stop.
	var running atomic.Bool
	running.Store(true)
	shutdownMgr.Register("window", shutdown.Func(func() {
		if running.Load() {
			fyne.Do(fyneApp.Quit)
		}
	}))
	shutdownMgr.Listen()

	w := gui.NewWindow(fyneApp, sess, log)
	w.Window().Resize(fyne.NewSize(float32(img.Cols()), float32(img.Rows())))
	w.ShowAndRun()
	running.Store(false)
	return 0
}

func sessionOptions(cfg *config.Config, mem *memory.Manager) (session.Options, error) {
	blur, err := operator.NewBlurEngine(cfg.Blur.Engine, cfg.Blur.KernelSize)
	if err != nil {
		return session.Options{}, err
	}
	inpaint, err := operator.NewInpaint(cfg.Inpaint.Radius)
	if err != nil {
		return session.Options{}, err
	}

	overlay, err := colorful.Hex(cfg.Editor.OverlayColor)
	if err != nil {
		return session.Options{}, fmt.Errorf("overlay colour: %w", err)
	}
	r, g, b := overlay.RGB255()

	return session.Options{
		Threshold: cfg.Mask.InteractiveThreshold,
		Brush: session.Brush{
			Radius: cfg.Editor.BrushSize,
			Min:    cfg.Editor.BrushMin,
			Max:    cfg.Editor.BrushMax,
			Step:   cfg.Editor.BrushStep,
		},
		OutputPath: cfg.Editor.OutputPath,
		Overlay:    color.RGBA{R: r, G: g, B: b, A: 255},
		Blur:       blur,
		Inpaint:    inpaint,
		Tracker:    mem,
	}, nil
}
