package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"segstitch/core/compose"
	"segstitch/core/discover"
	"segstitch/core/media"
	"segstitch/core/pipeline"
	"segstitch/core/plan"
	"segstitch/core/reconcile"
	"segstitch/logger"
	"segstitch/model"
)

var composeFlags struct {
	dir             string
	out             string
	planFile        string
	segments        string
	width           int
	height          int
	fps             int
	crf             int
	preset          string
	workers         int
	continueOnError bool
	keepTemp        bool
	watch           bool
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose segments from a directory into one output video",
	RunE: func(cmd *cobra.Command, args []string) error {
		if composeFlags.watch {
			return runWatch()
		}
		return runCompose()
	},
}

func init() {
	f := composeCmd.Flags()
	f.StringVarP(&composeFlags.dir, "dir", "d", ".", "input directory containing the segment tracks")
	f.StringVarP(&composeFlags.out, "out", "o", "output.mp4", "output video path")
	f.StringVarP(&composeFlags.planFile, "plan", "p", "", "composition plan file (optional)")
	f.StringVarP(&composeFlags.segments, "segments", "s", "", "ordinal filter, e.g. \"2,5-8\"")
	f.IntVar(&composeFlags.width, "width", 1920, "output frame width")
	f.IntVar(&composeFlags.height, "height", 1080, "output frame height")
	f.IntVar(&composeFlags.fps, "fps", 0, "output frame rate (0 uses the configured default)")
	f.IntVar(&composeFlags.crf, "crf", 0, "encode quality, lower is better (0 uses the configured default)")
	f.StringVar(&composeFlags.preset, "preset", "", "x264 preset (empty uses the configured default)")
	f.IntVar(&composeFlags.workers, "workers", 0, "parallel segment workers (0 uses the configured default)")
	f.BoolVar(&composeFlags.continueOnError, "continue-on-error", false, "skip failing segments instead of aborting")
	f.BoolVar(&composeFlags.keepTemp, "keep-temp", false, "keep the scratch directory after the run")
	f.BoolVar(&composeFlags.watch, "watch", false, "re-run composition when inputs change")
}

func runCompose() error {
	var planConfigs map[int]model.SegmentConfig
	if composeFlags.planFile != "" {
		var err error
		planConfigs, err = plan.ParseFile(composeFlags.planFile)
		if err != nil {
			return err
		}
	}

	filter, err := discover.ParseFilter(composeFlags.segments)
	if err != nil {
		return fmt.Errorf("bad --segments value: %w", err)
	}

	placement := model.DefaultPlacementPolicy()
	placement.Margin = cfg.OverlayMargin

	configs, err := discover.Resolve(discover.Options{
		Root:   composeFlags.dir,
		Plan:   planConfigs,
		Filter: filter,
		Convention: discover.Convention{
			PrimarySuffix:   cfg.PrimarySuffix,
			OverlaySuffixes: cfg.OverlaySuffixes,
			Pad:             cfg.OrdinalPad,
		},
		Placement: placement,
	})
	if err != nil {
		return err
	}

	scratchDir := filepath.Join(cfg.TempDir, "segstitch_"+uuid.New().String()[:8])
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	if !composeFlags.keepTemp {
		defer os.RemoveAll(scratchDir)
	}

	enc := media.EncodeSettings{
		Codec:  cfg.VideoCodec,
		Preset: cfg.Preset,
		PixFmt: cfg.PixelFmt,
		CRF:    cfg.CRF,
		FPS:    cfg.FPS,
	}
	if composeFlags.fps > 0 {
		enc.FPS = composeFlags.fps
	}
	if composeFlags.crf > 0 {
		enc.CRF = composeFlags.crf
	}
	if composeFlags.preset != "" {
		enc.Preset = composeFlags.preset
	}

	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, scratchDir, enc)
	engine := reconcile.New(processor, processor)
	compositor := compose.NewCompositor(processor, placement)
	concatenator := compose.NewConcatenator(processor)

	workers := cfg.Workers
	if composeFlags.workers > 0 {
		workers = composeFlags.workers
	}

	pipe := pipeline.New(processor, engine, compositor, concatenator, pipeline.Options{
		Workers:         workers,
		ContinueOnError: composeFlags.continueOnError,
	})

	_, err = pipe.Run(configs, media.OutputSpec{
		Path:   composeFlags.out,
		Width:  composeFlags.width,
		Height: composeFlags.height,
	})
	return err
}

// runWatch runs one composition immediately, then re-runs whenever the
// input directory or plan file changes.
func runWatch() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		if err := runCompose(); err != nil {
			logger.Error("composition failed", logger.ErrorField(err))
		}
	}
	run()

	paths := []string{composeFlags.dir}
	if composeFlags.planFile != "" {
		paths = append(paths, composeFlags.planFile)
	}
	err := pipeline.Watch(ctx, paths, run)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
