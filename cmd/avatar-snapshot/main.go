// Package main renders avatar stage frames headlessly and writes them to
// disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/avatar-stage/internal/config"
	"github.com/Faultbox/avatar-stage/internal/headless"
	"github.com/Faultbox/avatar-stage/internal/logger"
	"github.com/Faultbox/avatar-stage/internal/snapshot"
)

var (
	flagFrames      = flag.Int("frames", 1, "Number of frames to render")
	flagFPS         = flag.Float64("fps", 30, "Simulated frame rate")
	flagOut         = flag.String("out", "", "Output directory (default: snapshot.dir from config)")
	flagSupersample = flag.Int("supersample", 0, "Supersampling factor (default: snapshot.supersample from config)")
	flagFormat      = flag.String("format", "webp", "Output format: webp or png")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	format, err := snapshot.ParseFormat(*flagFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(2)
	}

	opts := headless.Options{
		Frames:      *flagFrames,
		FPS:         *flagFPS,
		Dir:         cfg.Snapshot.Dir,
		Format:      format,
		Supersample: cfg.Snapshot.Supersample,
	}
	if *flagOut != "" {
		opts.Dir = *flagOut
	}
	if *flagSupersample > 0 {
		opts.Supersample = *flagSupersample
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := headless.Run(ctx, cfg, opts)
	if err != nil {
		logger.Error("capture failed", zap.Error(err))
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
