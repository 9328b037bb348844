package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"segstitch/core/media"
	"segstitch/model"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Print duration and frame size of media files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.TempDir, media.EncodeSettings{})
		for _, path := range args {
			track, err := processor.Probe(path, model.RolePrimary)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%.3fs\t%dx%d\n", track.Path, track.Duration, track.Width, track.Height)
		}
		return nil
	},
}
