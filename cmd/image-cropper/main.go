package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/animation"
	"github.com/menta2k/image-cropper/pkg/detection"
	"github.com/menta2k/image-cropper/pkg/framing"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/imageio"
	"github.com/menta2k/image-cropper/pkg/llamacpp"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/ollama"
	"github.com/menta2k/image-cropper/pkg/raster"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/transform"
	"github.com/menta2k/image-cropper/pkg/types"
	"github.com/menta2k/image-cropper/pkg/vision"
)

type options struct {
	in, out, script, cfgPath, writeConfig string
	maskName, size, ext, filter            string
	backend, backendURL, model             string
	quality                                int
	display                                float64
	lossless, auto, debug                  bool
}

func main() {
	var o options
	flag.StringVar(&o.in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&o.out, "out", "", "output file (default <output_dir>/<name>_<mask>.<ext>)")
	flag.StringVar(&o.maskName, "mask", "", "mask shape: circle|square|rectangle|custom")
	flag.StringVar(&o.size, "size", "", "output size WxH for custom masks, e.g. 400x200")
	flag.StringVar(&o.script, "script", "", "JSON gesture script to replay before committing")
	flag.StringVar(&o.ext, "ext", "", "output format: png|jpg|webp")
	flag.IntVar(&o.quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&o.lossless, "lossless", false, "WebP output lossless mode")
	flag.Float64Var(&o.display, "display", -1, "longest side of the on-screen crop window, 0 = output size")
	flag.StringVar(&o.filter, "filter", "", "resample filter: nearest|approxbilinear|bilinear|catmullrom")
	flag.BoolVar(&o.auto, "auto", false, "frame the subject automatically before replaying the script")
	flag.StringVar(&o.backend, "backend", "", "auto framing backend: saliency|ollama|llamacpp (default saliency)")
	flag.StringVar(&o.backendURL, "backend-url", "", "vision server URL (default per backend)")
	flag.StringVar(&o.model, "model", "", "vision model name")
	flag.BoolVar(&o.debug, "debug", false, "verbose logging and a grid overlay of the visible region")
	flag.StringVar(&o.cfgPath, "config", config.GetConfigPath(), "configuration file")
	flag.StringVar(&o.writeConfig, "write-config", "", "write the effective configuration to this file and exit")
	flag.Parse()

	logger := newLogger(o.debug)
	defer logger.Sync() //nolint:errcheck

	if err := run(logger, o); err != nil {
		logger.Error("crop failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func run(logger *zap.Logger, o options) error {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlags(cfg, o); err != nil {
		return err
	}
	if o.writeConfig != "" {
		if err := cfg.SaveToFile(o.writeConfig); err != nil {
			return err
		}
		logger.Info("configuration written", zap.String("path", o.writeConfig))
		return nil
	}

	if o.in == "" {
		return fmt.Errorf("usage: %s -in input.jpg|URL [-mask circle|square|rectangle|custom] [-size WxH] [-script gestures.json] [-out crop.png] [-auto]",
			filepath.Base(os.Args[0]))
	}

	if err := checkInput(o.in); err != nil {
		return err
	}

	desc, err := cfg.Descriptor()
	if err != nil {
		return err
	}

	cropper := imagecropper.NewWithConfig(imagecropper.Config{
		Filter:      cfg.Raster.Filter,
		DisplaySide: cfg.Session.DisplaySide,
		Quality:     cfg.Output.Quality,
		Lossless:    cfg.Output.Lossless,
		Logger:      logger,
	})

	img, err := cropper.LoadImage(o.in)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	info := imageio.Describe(img)
	logger.Info("image loaded",
		zap.String("source", o.in),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("aspect", info.AspectRatio),
		zap.String("mask", desc.Name()),
	)

	events, err := loadScript(o.script)
	if err != nil {
		return err
	}

	var sessionOpts []session.Option
	var subject *types.Box
	if cfg.Vision.Enabled {
		initial, det, err := autoFrame(logger, cfg, o.debug, img, desc)
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, session.WithInitial(initial))
		if det.Found() {
			subject = &det.Subject.Box
		}
	}

	s, err := cropper.Start(desc, img, sessionOpts...)
	if err != nil {
		return err
	}
	replay(logger, cfg, s, events)

	format := strings.ToLower(cfg.Output.DefaultFormat)
	outPath := o.out
	if outPath == "" {
		outPath = utils.OutputFilename(o.in, cfg.Output.OutputDir, desc.Name(), format)
	} else if o.ext == "" {
		format = imageio.FormatFor(outPath)
	}

	if o.debug {
		writeOverlay(logger, cropper, img, s, subject, outPath)
		saveScript(logger, events, outPath)
	}

	final := s.Preview()
	out, err := s.Commit()
	if err != nil {
		return err
	}

	codec := imageio.New()
	if err := codec.Save(out, outPath, format, cfg.Output.Quality, cfg.Output.Lossless); err != nil {
		return fmt.Errorf("failed to save crop: %w", err)
	}
	logger.Info("wrote crop", zap.String("path", outPath), zap.Stringer("transform", final))
	return nil
}

// applyFlags lets explicitly set flags override the loaded configuration
func applyFlags(cfg *config.Config, o options) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mask":
			cfg.Mask.Shape = o.maskName
		case "size":
			var w, h int
			if w, h, err = mask.ParseSize(o.size); err == nil {
				cfg.Mask.Width, cfg.Mask.Height = w, h
				if o.maskName == "" {
					cfg.Mask.Shape = mask.Custom.String()
				}
			}
		case "ext":
			cfg.Output.DefaultFormat = o.ext
		case "quality":
			cfg.Output.Quality = o.quality
		case "lossless":
			cfg.Output.Lossless = o.lossless
		case "display":
			cfg.Session.DisplaySide = o.display
		case "filter":
			cfg.Raster.Filter = o.filter
		case "auto":
			cfg.Vision.Enabled = o.auto
		case "backend":
			cfg.Vision.Backend = o.backend
		case "backend-url":
			cfg.Vision.BackendURL = o.backendURL
		case "model":
			cfg.Vision.Model = o.model
		}
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}

func checkInput(in string) error {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		return nil
	}
	if !utils.FileExists(in) {
		return fmt.Errorf("input file not found: %s", in)
	}
	if !utils.IsImageFile(in) {
		return fmt.Errorf("unsupported input file type: %s", in)
	}
	return nil
}

func loadScript(path string) ([]transform.Event, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gesture script: %w", err)
	}
	defer f.Close()
	events, err := transform.DecodeScript(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read gesture script: %w", err)
	}
	return events, nil
}

func autoFrame(logger *zap.Logger, cfg *config.Config, debug bool, img image.Image, desc mask.Descriptor) (transform.State, *types.Detection, error) {
	ctx := context.Background()
	modelCfg := framing.ModelConfig{Model: cfg.Vision.Model, MaxDim: cfg.Vision.MaxDim, Quality: cfg.Vision.Quality}

	locator, detector, err := newLocator(cfg.Vision, modelCfg)
	if err != nil {
		return transform.State{}, nil, err
	}
	if detector != nil && debug {
		checkVision(ctx, logger, detector, modelCfg, img)
	}

	window, err := geometry.WindowFor(desc, cfg.Session.DisplaySide)
	if err != nil {
		return transform.State{}, nil, err
	}
	return framing.NewFramer(locator, cfg.Vision.MaxScale, logger).Frame(ctx, img, desc, window)
}

// newLocator builds the locator for the configured backend. The detector is
// nil for the offline saliency backend.
func newLocator(v config.VisionConfig, modelCfg framing.ModelConfig) (framing.Locator, *detection.Detector, error) {
	var detector *detection.Detector
	switch v.Backend {
	case config.BackendOllama:
		client, err := ollama.NewClient(v.URL(), v.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		detector = detection.NewDetector(client)
	case config.BackendLlamaCpp:
		detector = detection.NewDetector(llamacpp.NewClient(v.URL(), v.Timeout))
	case config.BackendSaliency:
		return vision.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend: %s (use ollama, llamacpp or saliency)", v.Backend)
	}
	return framing.NewModelLocator(detector, modelCfg), detector, nil
}

// checkVision asks the model to describe the image so a debug run shows
// whether it can see it at all
func checkVision(ctx context.Context, logger *zap.Logger, detector *detection.Detector, cfg framing.ModelConfig, img image.Image) {
	imgB64, err := imageio.EncodeBase64(img, "jpg", cfg.MaxDim, cfg.Quality)
	if err != nil {
		logger.Warn("vision check skipped", zap.Error(err))
		return
	}
	answer, err := detector.TestVision(ctx, cfg.Model, imgB64)
	if err != nil {
		logger.Warn("vision check failed", zap.Error(err))
		return
	}
	logger.Debug("vision check", zap.String("model", cfg.Model), zap.String("answer", answer))
}

// replay feeds the script to the session and logs each snap-back with the
// animation a display would run for it
func replay(logger *zap.Logger, cfg *config.Config, s *session.Session, events []transform.Event) {
	for i, ev := range events {
		c := s.Apply(ev)
		if !c.Moved() {
			continue
		}
		anim := animation.FromCorrection(c, cfg.Session.SnapbackDuration)
		logger.Debug("snap-back",
			zap.Int("event", i),
			zap.String("type", ev.Name()),
			zap.Duration("duration", anim.Duration),
			zap.Int("frames", len(anim.Frames(cfg.Session.AnimationFPS))),
		)
	}
}

func writeOverlay(logger *zap.Logger, cropper *imagecropper.ImageCropper, img image.Image, s *session.Session, subject *types.Box, outPath string) {
	b := img.Bounds()
	visible, err := raster.VisibleRegion(b.Dx(), b.Dy(), s.Preview(), s.Window())
	if err != nil {
		logger.Warn("debug overlay skipped", zap.Error(err))
		return
	}
	overlay := imageio.GridOverlay(img, visible, subject)
	path := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_debug.png"
	if err := cropper.SaveImage(overlay, path); err != nil {
		logger.Warn("debug overlay save failed", zap.Error(err))
		return
	}
	logger.Info("wrote debug overlay", zap.String("path", path), zap.Stringer("visible", visible))
}

// saveScript records the replayed gestures next to the output so a debug run
// can be reproduced with -script
func saveScript(logger *zap.Logger, events []transform.Event, outPath string) {
	if len(events) == 0 {
		return
	}
	path := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_gestures.json"
	f, err := os.Create(path)
	if err != nil {
		logger.Warn("gesture script save failed", zap.Error(err))
		return
	}
	defer f.Close()
	if err := transform.EncodeScript(f, events); err != nil {
		logger.Warn("gesture script save failed", zap.Error(err))
		return
	}
	logger.Info("wrote gesture script", zap.String("path", path))
}
