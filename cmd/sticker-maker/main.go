package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	stickermaker "github.com/menta2k/sticker-maker"
)

var (
	version = stickermaker.Version
	verbose bool
	log     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "sticker-maker",
	Short: "Turn a freehand drawing into a sticker",
	Long: `sticker-maker converts a raster drawing into a cropped,
background-removed sticker.

Detects the drawing's main subject (remote vision model with a local
flood-fill fallback), erases the background, crops to the content, and
exports a lossless PNG plus a size-budgeted lossy WebP.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	// A .env next to the binary may hold STICKER_VISION_API_KEY.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"sticker-maker %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
