// Package pipeline drives the whole composition run: probe each segment's
// tracks, reconcile durations, composite overlays, then concatenate in
// ordinal order. Segments are independent of each other, so they are fanned
// out across a worker pool; results are indexed back into ordinal order
// rather than relying on completion order.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"segstitch/core/compose"
	"segstitch/core/media"
	"segstitch/core/reconcile"
	"segstitch/logger"
	"segstitch/model"
)

// Pipeline wires the per-segment stages together.
type Pipeline struct {
	prober       media.Prober
	engine       *reconcile.Engine
	compositor   *compose.Compositor
	concatenator *compose.Concatenator

	workers         int
	continueOnError bool
}

// Options configure a pipeline.
type Options struct {
	Workers         int  // <=0 picks a CPU-bound default
	ContinueOnError bool // skip failing segments instead of aborting
}

// New assembles a pipeline from its stages.
func New(prober media.Prober, engine *reconcile.Engine, compositor *compose.Compositor, concatenator *compose.Concatenator, opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	return &Pipeline{
		prober:          prober,
		engine:          engine,
		compositor:      compositor,
		concatenator:    concatenator,
		workers:         workers,
		continueOnError: opts.ContinueOnError,
	}
}

type job struct {
	index int
	cfg   model.SegmentConfig
}

type result struct {
	index int
	track model.Track
	err   error
}

// Run processes every segment and renders the concatenated timeline into
// spec.Path. Per-segment failures abort the run unless ContinueOnError is
// set, in which case the offending segment is skipped with a warning.
func (p *Pipeline) Run(configs []model.SegmentConfig, spec media.OutputSpec) (model.Track, error) {
	if len(configs) == 0 {
		return model.Track{}, fmt.Errorf("no segments to process")
	}

	start := time.Now()
	logger.Info("starting composition run",
		logger.Int("segments", len(configs)),
		logger.Int("workers", p.workers))

	jobs := make(chan job, len(configs))
	results := make(chan result, len(configs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				track, err := p.processSegment(j.cfg)
				results <- result{index: j.index, track: track, err: err}
			}
		}()
	}

	for i, cfg := range configs {
		jobs <- job{index: i, cfg: cfg}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Index results back into declaration order so concatenation never
	// depends on completion order.
	ordered := make([]*model.Track, len(configs))
	var firstErr error
	for res := range results {
		if res.err != nil {
			ord := configs[res.index].ID
			if p.continueOnError {
				logger.Warn("skipping failed segment",
					logger.Int("segment", ord),
					logger.ErrorField(res.err))
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("segment %d: %w", ord, res.err)
			}
			continue
		}
		track := res.track
		ordered[res.index] = &track
	}
	if firstErr != nil {
		return model.Track{}, firstErr
	}

	parts := make([]model.Track, 0, len(ordered))
	for _, t := range ordered {
		if t != nil {
			parts = append(parts, *t)
		}
	}
	if len(parts) == 0 {
		return model.Track{}, fmt.Errorf("every segment failed")
	}

	out, err := p.concatenator.Join(parts, spec)
	if err != nil {
		return model.Track{}, err
	}

	logger.Info("composition run finished",
		logger.String("output", out.Path),
		logger.Float64("duration", out.Duration),
		logger.Duration("elapsed", time.Since(start)))

	return out, nil
}

// processSegment runs one segment through probe -> reconcile -> composite.
// A track whose duration cannot be read fails the whole segment: no target
// can be computed without it.
func (p *Pipeline) processSegment(cfg model.SegmentConfig) (model.Track, error) {
	primary, err := p.prober.Probe(cfg.PrimaryPath, model.RolePrimary)
	if err != nil {
		return model.Track{}, err
	}

	overlays := make([]model.Track, 0, len(cfg.Overlays))
	for _, ref := range cfg.Overlays {
		overlay, err := p.prober.Probe(ref.Path, ref.Role)
		if err != nil {
			return model.Track{}, err
		}
		overlays = append(overlays, overlay)
	}

	seg := &model.Segment{Config: cfg, Primary: primary, Overlays: overlays}
	if err := p.engine.Reconcile(seg); err != nil {
		return model.Track{}, err
	}
	return p.compositor.Compose(seg)
}
