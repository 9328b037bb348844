package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"segstitch/logger"
	"segstitch/model"
)

// FFmpegProcessor implements Prober, Adjuster, Overlayer and Joiner on top
// of ffmpeg/ffprobe. Every operation writes into the processor's scratch
// directory; callers own the lifecycle of that directory.
type FFmpegProcessor struct {
	ffmpegPath string
	scratchDir string
	enc        EncodeSettings
}

// NewFFmpegProcessor creates a processor writing intermediates under
// scratchDir.
func NewFFmpegProcessor(ffmpegPath, scratchDir string, enc EncodeSettings) *FFmpegProcessor {
	return &FFmpegProcessor{
		ffmpegPath: ffmpegPath,
		scratchDir: scratchDir,
		enc:        enc,
	}
}

// ffprobePath derives the ffprobe binary from the configured ffmpeg path.
func (p *FFmpegProcessor) ffprobePath() string {
	return strings.Replace(p.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

// scratchFile returns a fresh intermediate path tagged with the operation
// that produced it.
func (p *FFmpegProcessor) scratchFile(op string) string {
	name := fmt.Sprintf("%s_%s.mp4", op, uuid.New().String()[:8])
	return filepath.Join(p.scratchDir, name)
}

type probeData struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe reads the intrinsic duration and frame size of a media file.
// Failure here is fatal for the segment referencing the file: without a
// duration no reconciliation target can be computed.
func (p *FFmpegProcessor) Probe(path string, role model.Role) (model.Track, error) {
	if _, err := os.Stat(path); err != nil {
		return model.Track{}, fmt.Errorf("track %s: %w", path, err)
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-show_entries", "stream=codec_type,width,height",
		"-of", "json",
		path,
	}

	cmd := exec.Command(p.ffprobePath(), args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.Track{}, fmt.Errorf("ffprobe failed for %s: %w\n%s", path, err, stderr.String())
	}

	var data probeData
	if err := json.Unmarshal(out.Bytes(), &data); err != nil {
		return model.Track{}, fmt.Errorf("unmarshal ffprobe output for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return model.Track{}, fmt.Errorf("track %s has no readable duration: %w", path, err)
	}

	track := model.Track{Path: path, Role: role, Duration: duration}
	for _, s := range data.Streams {
		if s.CodecType == "video" {
			track.Width = s.Width
			track.Height = s.Height
			break
		}
	}
	if track.Width == 0 || track.Height == 0 {
		return model.Track{}, fmt.Errorf("track %s has no video stream", path)
	}

	logger.Debug("probed track",
		logger.String("path", path),
		logger.String("role", string(role)),
		logger.Float64("duration", track.Duration),
		logger.Int("width", track.Width),
		logger.Int("height", track.Height))

	return track, nil
}
