package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"segstitch/config"
	"segstitch/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "segstitch",
	Short: "segstitch composes overlay segments into one video",
	Long: `segstitch reconciles independently authored media tracks into
fixed-duration segments (primary plus positioned overlays) and concatenates
them into a single output video.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		})
	},
}

// Execute runs the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(probeCmd)
}
