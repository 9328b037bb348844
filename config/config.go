package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with sensible defaults.
type Config struct {
	FFmpegPath string // ffmpeg binary; ffprobe is derived from it
	TempDir    string // base directory for per-run scratch dirs
	LogPath    string // empty logs to stderr only
	LogLevel   string

	// Default naming convention used when no plan file is supplied:
	// <ordinal>_<suffix>.<ext>, ordinal zero-padded to OrdinalPad digits.
	PrimarySuffix   string
	OverlaySuffixes []string
	OrdinalPad      int

	// Default overlay geometry for plan-less composition.
	OverlayMargin int

	// Encode defaults, overridable by compose flags.
	VideoCodec string
	Preset     string
	CRF        int
	PixelFmt   string
	FPS        int
	Workers    int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the env.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
		TempDir:         getEnv("SEGSTITCH_TMP", os.TempDir()),
		LogPath:         getEnv("SEGSTITCH_LOG", ""),
		LogLevel:        getEnv("SEGSTITCH_LOG_LEVEL", "info"),
		PrimarySuffix:   getEnv("SEGSTITCH_PRIMARY_SUFFIX", "slide"),
		OverlaySuffixes: []string{getEnv("SEGSTITCH_PIP_SUFFIX", "pip"), getEnv("SEGSTITCH_COMMENT_SUFFIX", "comment")},
		OrdinalPad:      getEnvInt("SEGSTITCH_ORDINAL_PAD", 3),
		OverlayMargin:   getEnvInt("SEGSTITCH_OVERLAY_MARGIN", 20),
		VideoCodec:      getEnv("SEGSTITCH_VCODEC", "libx264"),
		Preset:          getEnv("SEGSTITCH_PRESET", "veryfast"),
		CRF:             getEnvInt("SEGSTITCH_CRF", 23),
		PixelFmt:        getEnv("SEGSTITCH_PIX_FMT", "yuv420p"),
		FPS:             getEnvInt("SEGSTITCH_FPS", 30),
		Workers:         getEnvInt("SEGSTITCH_WORKERS", 4),
	}
}
