package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"region-obliterator/internal/api"
	"region-obliterator/internal/config"
	"region-obliterator/internal/logger"
	"region-obliterator/internal/opencv/memory"
	"region-obliterator/internal/shutdown"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML configuration")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this path and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := config.Save(cfg, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
		return
	}

	level := logger.ParseLevel(cfg.Log.Level)
	var log *logger.ZerologAdapter
	if cfg.Log.Console {
		log = logger.NewConsoleLogger(level)
	} else {
		log = logger.NewZerolog(os.Stdout, level)
	}
	zerolog.SetGlobalLevel(level)

	log.Info("Main", "starting image processing API", map[string]interface{}{
		"addr":           cfg.Server.Addr,
		"opencv_version": gocv.OpenCVVersion(),
		"go_version":     runtime.Version(),
		"blur_engine":    cfg.Blur.Engine,
	})

	mem := memory.NewManager(log)
	server := api.NewServer(cfg, mem, log, log.Zerolog())

	shutdownMgr := shutdown.NewManager(log)
	server.SetBaseContext(shutdownMgr.Context())
	shutdownMgr.Register("memory", mem)
	shutdownMgr.Register("server", server)
	shutdownMgr.Listen()

	if err := server.ListenAndServe(); err != nil {
		log.Error("Main", err, map[string]interface{}{"addr": cfg.Server.Addr})
		shutdownMgr.Shutdown()
		os.Exit(1)
	}

	// Blocks until a signal-triggered shutdown has finished.
	shutdownMgr.Shutdown()
}
