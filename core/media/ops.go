package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"segstitch/logger"
	"segstitch/model"
)

// durationTolerance is the slack used when deciding whether an adjustment
// is a no-op.
const durationTolerance = 0.01

// encodeKwArgs returns the uniform output parameters. Audio is dropped
// ("-an"); audio handling lives outside this system.
func (p *FFmpegProcessor) encodeKwArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"c:v":     p.enc.Codec,
		"preset":  p.enc.Preset,
		"crf":     p.enc.CRF,
		"pix_fmt": p.enc.PixFmt,
		"r":       p.enc.FPS,
		"an":      "",
	}
}

// run executes a compiled filter graph.
func (p *FFmpegProcessor) run(s *ffmpeg.Stream) error {
	s = s.OverWriteOutput().Silent(true)
	if p.ffmpegPath != "" && p.ffmpegPath != "ffmpeg" {
		s = s.SetFfmpegPath(p.ffmpegPath)
	}
	return s.Run()
}

// FreezeExtend returns a copy of t whose duration equals target: a short
// track gets its last frame cloned for the gap, a long track is clipped.
// A track already at the target is returned unchanged, so the operation is
// idempotent.
func (p *FFmpegProcessor) FreezeExtend(t model.Track, target float64) (model.Track, error) {
	switch {
	case t.Duration >= target-durationTolerance && t.Duration <= target+durationTolerance:
		return t, nil

	case t.Duration > target:
		out := p.scratchFile("clip")
		stream := ffmpeg.Input(t.Path).
			Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": formatSeconds(target)}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"}).
			Output(out, p.encodeKwArgs())
		if err := p.run(stream); err != nil {
			return model.Track{}, fmt.Errorf("clip %s to %.3fs: %w", t.Path, target, err)
		}
		logger.Debug("clipped track",
			logger.String("path", t.Path),
			logger.Float64("target", target))
		return t.WithDuration(out, target), nil

	default:
		gap := target - t.Duration
		out := p.scratchFile("freeze")
		stream := ffmpeg.Input(t.Path).
			Filter("tpad", ffmpeg.Args{}, ffmpeg.KwArgs{
				"stop_mode":     "clone",
				"stop_duration": formatSeconds(gap),
			}).
			Output(out, p.encodeKwArgs())
		if err := p.run(stream); err != nil {
			return model.Track{}, fmt.Errorf("freeze-extend %s by %.3fs: %w", t.Path, gap, err)
		}
		logger.Debug("freeze-extended track",
			logger.String("path", t.Path),
			logger.Float64("gap", gap),
			logger.Float64("target", target))
		return t.WithDuration(out, target), nil
	}
}

// TimeStretch re-times t's frames so playback lasts target seconds. The
// setpts ratio is target/original; a ratio above 1 slows the track down,
// which is the common case since the target is the segment maximum.
func (p *FFmpegProcessor) TimeStretch(t model.Track, target float64) (model.Track, error) {
	if t.Duration <= 0 {
		return model.Track{}, fmt.Errorf("stretch %s: non-positive duration %.3f", t.Path, t.Duration)
	}
	if t.Duration >= target-durationTolerance && t.Duration <= target+durationTolerance {
		return t, nil
	}

	ratio := target / t.Duration
	out := p.scratchFile("stretch")
	stream := ffmpeg.Input(t.Path).
		Filter("setpts", ffmpeg.Args{fmt.Sprintf("%.6f*PTS", ratio)}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(p.enc.FPS)}).
		Output(out, p.encodeKwArgs())
	if err := p.run(stream); err != nil {
		return model.Track{}, fmt.Errorf("time-stretch %s to %.3fs: %w", t.Path, target, err)
	}
	logger.Debug("time-stretched track",
		logger.String("path", t.Path),
		logger.Float64("ratio", ratio),
		logger.Float64("target", target))
	return t.WithDuration(out, target), nil
}

// Overlay stacks layers over base in declaration order. With no layers the
// base is still re-encoded with the uniform settings so concatenation sees
// identical streams in every part.
func (p *FFmpegProcessor) Overlay(base model.Track, layers []Layer) (model.Track, error) {
	out := p.scratchFile("composite")

	stream := ffmpeg.Input(base.Path)
	for _, l := range layers {
		scaled := ffmpeg.Input(l.Track.Path).
			Filter("scale", ffmpeg.Args{strconv.Itoa(l.Width), strconv.Itoa(l.Height)})
		stream = stream.Overlay(scaled, "", ffmpeg.KwArgs{
			"x": strconv.Itoa(l.X),
			"y": strconv.Itoa(l.Y),
		})
	}

	if err := p.run(stream.Output(out, p.encodeKwArgs())); err != nil {
		return model.Track{}, fmt.Errorf("composite %s (%d overlays): %w", base.Path, len(layers), err)
	}

	composite := base
	composite.Path = out
	return composite, nil
}

// Concat joins the parts in order using the concat demuxer (all parts share
// the uniform encode settings) and rescales the joined timeline when the
// requested output size differs from the parts.
func (p *FFmpegProcessor) Concat(parts []model.Track, spec OutputSpec) (model.Track, error) {
	if len(parts) == 0 {
		return model.Track{}, fmt.Errorf("concat: no parts")
	}

	listPath, err := p.writeConcatList(parts)
	if err != nil {
		return model.Track{}, err
	}

	stream := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"})
	if spec.Rescale {
		stream = stream.Filter("scale", ffmpeg.Args{
			strconv.Itoa(spec.Width), strconv.Itoa(spec.Height),
		})
	}

	if err := p.run(stream.Output(spec.Path, p.encodeKwArgs())); err != nil {
		return model.Track{}, fmt.Errorf("concat %d parts into %s: %w", len(parts), spec.Path, err)
	}

	var total float64
	for _, part := range parts {
		total += part.Duration
	}
	return model.Track{
		Path:     spec.Path,
		Role:     model.RolePrimary,
		Duration: total,
		Width:    spec.Width,
		Height:   spec.Height,
	}, nil
}

// writeConcatList writes the concat demuxer's file list into the scratch dir.
func (p *FFmpegProcessor) writeConcatList(parts []model.Track) (string, error) {
	listPath := filepath.Join(p.scratchDir, "concat_list.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return "", fmt.Errorf("create concat list: %w", err)
	}
	defer f.Close()

	for _, part := range parts {
		abs, err := filepath.Abs(part.Path)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", part.Path, err)
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", abs); err != nil {
			return "", fmt.Errorf("write concat list: %w", err)
		}
	}
	return listPath, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
