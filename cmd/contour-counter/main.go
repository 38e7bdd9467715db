package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"contour-counter/internal/config"
	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/memory"
	"contour-counter/internal/pipeline"
	"contour-counter/internal/preview"
	"contour-counter/internal/report"

	"gocv.io/x/gocv"
)

const (
	AppName    = "contour-counter"
	AppVersion = "1.0.0"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, ".env", os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one CLI invocation. dotenv names a file whose variables are
// added to the process environment first; empty skips it.
func run(ctx context.Context, dotenv string, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if dotenv != "" {
		if err := config.LoadDotEnv(dotenv); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		}
	}

	cfg, err := config.Load(args, getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "%s: %v\n\n", AppName, err)
		config.Usage(stderr)
		return exitUsage
	}

	log, err := logger.NewForFormat(stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return exitUsage
	}

	log.Info("Main", "starting", map[string]interface{}{
		"version":      AppVersion,
		"go_version":   runtime.Version(),
		"gocv_version": gocv.Version(),
		"opencv":       gocv.OpenCVVersion(),
		"log_level":    cfg.LogLevel,
	})

	memManager := memory.NewManager(log)
	defer memManager.Cleanup()

	p := pipeline.New(
		pipeline.WithLogger(log),
		pipeline.WithParams(cfg.Params()),
		pipeline.WithMemoryManager(memManager),
	)

	result, err := p.Run(ctx, cfg.ImagePath)
	if err != nil {
		log.Error("Main", err, map[string]interface{}{"path": cfg.ImagePath})
		var loadErr *pipeline.LoadError
		if errors.As(err, &loadErr) {
			fmt.Fprintf(stderr, "%s: cannot load image: %v\n", AppName, loadErr)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		}
		return exitFailure
	}
	defer result.Close()

	fmt.Fprintln(stdout, result.Label)

	if err := writeOutputs(cfg, result, log); err != nil {
		log.Error("Main", err, nil)
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return exitFailure
	}

	if cfg.Preview {
		if err := preview.Show(fmt.Sprintf("%s - %s", AppName, result.Label), result); err != nil {
			log.Error("Preview", err, nil)
			return exitFailure
		}
	}

	for _, entry := range result.Timings {
		log.Debug("Main", "stage timing", map[string]interface{}{
			"stage":    entry.Operation,
			"total_ms": float64(entry.Total.Microseconds()) / 1000,
		})
	}
	return exitOK
}

// writeOutputs handles the optional export, histogram and PDF outputs.
func writeOutputs(cfg *config.Config, result *pipeline.Result, log logger.Logger) error {
	if cfg.OutDir != "" {
		written, err := pipeline.NewSaver(log).SaveAll(result, cfg.OutDir, cfg.Format)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		log.Info("Main", "artifacts exported", map[string]interface{}{"files": len(written), "dir": cfg.OutDir})
	}

	if cfg.HistogramPath != "" {
		gray, ok := result.Artifact(pipeline.ArtifactGray)
		if !ok {
			return fmt.Errorf("histogram: no %s artifact", pipeline.ArtifactGray)
		}
		if err := report.SaveHistogram(cfg.HistogramPath, gray, cfg.Cutoff); err != nil {
			return fmt.Errorf("histogram failed: %w", err)
		}
		log.Info("Main", "histogram written", map[string]interface{}{"path": cfg.HistogramPath})
	}

	if cfg.PDFPath != "" {
		if err := report.SaveContactSheet(cfg.PDFPath, result); err != nil {
			return fmt.Errorf("contact sheet failed: %w", err)
		}
		log.Info("Main", "contact sheet written", map[string]interface{}{"path": cfg.PDFPath})
	}
	return nil
}
