// Package config resolves command-line flags, environment variables and an
// optional .env file into the settings of one run.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"contour-counter/internal/logger"
	"contour-counter/internal/pipeline"
	"contour-counter/internal/processing/filters"

	"github.com/joho/godotenv"
)

var ErrMissingImage = errors.New("an input image is required (-image or CONTOUR_IMAGE)")

type Config struct {
	ImagePath     string
	OutDir        string
	Format        string
	PDFPath       string
	HistogramPath string
	Preview       bool

	Iterations int
	Kernel     string
	Cutoff     float64
	CannyLow   float64
	CannyHigh  float64

	LogLevel  string
	LogFormat string
}

func defaults() Config {
	p := pipeline.DefaultParams()
	return Config{
		Format:     "png",
		Iterations: p.Morph.Iterations,
		Kernel:     p.Morph.Shape.String(),
		Cutoff:     p.ThresholdCutoff,
		CannyLow:   float64(p.CannyLow),
		CannyHigh:  float64(p.CannyHigh),
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

// LoadDotEnv copies variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load resolves settings. Flags win over environment, environment over
// built-in defaults. getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := defaults()
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	flags := newFlagSet(&cfg)
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 && cfg.ImagePath == "" {
		cfg.ImagePath = flags.Arg(0)
	}

	if v := getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage prints the flag reference to w.
func Usage(w io.Writer) {
	cfg := defaults()
	flags := newFlagSet(&cfg)
	flags.SetOutput(w)
	fmt.Fprintf(w, "Usage: contour-counter -image <path> [flags]\n\n")
	flags.PrintDefaults()
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	flags := flag.NewFlagSet("contour-counter", flag.ContinueOnError)
	flags.StringVar(&cfg.ImagePath, "image", cfg.ImagePath, "path to the input image (env CONTOUR_IMAGE)")
	flags.StringVar(&cfg.ImagePath, "i", cfg.ImagePath, "shorthand for -image")
	flags.StringVar(&cfg.OutDir, "out", cfg.OutDir, "directory to export every artifact to (env CONTOUR_OUT)")
	flags.StringVar(&cfg.Format, "format", cfg.Format, "export format: png, jpeg, bmp or tiff (env CONTOUR_FORMAT)")
	flags.StringVar(&cfg.PDFPath, "pdf", cfg.PDFPath, "write a PDF contact sheet to this path (env CONTOUR_PDF)")
	flags.StringVar(&cfg.HistogramPath, "histogram", cfg.HistogramPath, "write a gray level histogram PNG to this path (env CONTOUR_HISTOGRAM)")
	flags.BoolVar(&cfg.Preview, "preview", cfg.Preview, "open a window showing every artifact (env CONTOUR_PREVIEW)")
	flags.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "erosion and dilation iterations (env CONTOUR_ITERATIONS)")
	flags.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "morphology structuring element: rect, cross or ellipse (env CONTOUR_KERNEL)")
	flags.Float64Var(&cfg.Cutoff, "cutoff", cfg.Cutoff, "gray levels below this become foreground (env CONTOUR_CUTOFF)")
	flags.Float64Var(&cfg.CannyLow, "canny-low", cfg.CannyLow, "Canny hysteresis low threshold (env CONTOUR_CANNY_LOW)")
	flags.Float64Var(&cfg.CannyHigh, "canny-high", cfg.CannyHigh, "Canny hysteresis high threshold (env CONTOUR_CANNY_HIGH)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env LOG_LEVEL)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json (env LOG_FORMAT)")
	return flags
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("CONTOUR_IMAGE", &c.ImagePath)
	str("CONTOUR_OUT", &c.OutDir)
	str("CONTOUR_FORMAT", &c.Format)
	str("CONTOUR_KERNEL", &c.Kernel)
	str("CONTOUR_PDF", &c.PDFPath)
	str("CONTOUR_HISTOGRAM", &c.HistogramPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v := getenv("CONTOUR_PREVIEW"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONTOUR_PREVIEW: %w", err)
		}
		c.Preview = b
	}
	if v := getenv("CONTOUR_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONTOUR_ITERATIONS: %w", err)
		}
		c.Iterations = n
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"CONTOUR_CUTOFF", &c.Cutoff},
		{"CONTOUR_CANNY_LOW", &c.CannyLow},
		{"CONTOUR_CANNY_HIGH", &c.CannyHigh},
	}
	for _, f := range floats {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ImagePath) == "" {
		return ErrMissingImage
	}
	format, err := pipeline.NormalizeFormat(c.Format)
	if err != nil {
		return err
	}
	c.Format = format

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
		c.LogFormat = strings.ToLower(c.LogFormat)
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	shape, err := filters.ParseKernelShape(c.Kernel)
	if err != nil {
		return err
	}
	c.Kernel = shape.String()

	return c.Params().Validate()
}

// Params maps the numeric settings onto pipeline parameters.
func (c *Config) Params() pipeline.Params {
	p := pipeline.DefaultParams()
	p.Morph.Iterations = c.Iterations
	if shape, err := filters.ParseKernelShape(c.Kernel); err == nil {
		p.Morph.Shape = shape
	}
	p.ThresholdCutoff = c.Cutoff
	p.CannyLow = float32(c.CannyLow)
	p.CannyHigh = float32(c.CannyHigh)
	return p
}
