package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	stickermaker "github.com/menta2k/sticker-maker"
	"github.com/menta2k/sticker-maker/internal/config"
	"github.com/menta2k/sticker-maker/internal/imageio"
	"github.com/menta2k/sticker-maker/internal/utils"
)

var (
	createOutDir   string
	createBackend  string
	createURL      string
	createModel    string
	createPadding  int
	createMaxBytes int
	createConfig   string
)

var createCmd = &cobra.Command{
	Use:   "create <drawing>",
	Short: "Create a sticker from a drawing file",
	Long: `Loads a drawing (png, jpg, gif, webp), runs the sticker pipeline and
writes the exported payloads as sticker_<timestamp>.png and, when the size
budget is met, sticker_<timestamp>.webp.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createOutDir, "out", "o", "", "output directory (default: config value)")
	createCmd.Flags().StringVar(&createBackend, "backend", "", "vision backend: ollama|http (empty = local detection only)")
	createCmd.Flags().StringVar(&createURL, "url", "", "vision server URL")
	createCmd.Flags().StringVar(&createModel, "model", "", "vision model name")
	createCmd.Flags().IntVar(&createPadding, "padding", 0, "padding around the subject in px (0 = default)")
	createCmd.Flags().IntVar(&createMaxBytes, "max-bytes", 0, "lossy export size budget in bytes (0 = default)")
	createCmd.Flags().StringVar(&createConfig, "config", "", "config file (default: ~/.config/sticker-maker/config.json when present)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfgPath := createConfig
	if cfgPath == "" {
		if p := config.GetConfigPath(); utils.FileExists(p) {
			cfgPath = p
		}
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded
	}

	// Flags override file values.
	if createBackend != "" {
		cfg.Vision.Backend = createBackend
	}
	if createURL != "" {
		cfg.Vision.URL = createURL
	}
	if createModel != "" {
		cfg.Vision.Model = createModel
	}
	if createPadding != 0 {
		cfg.Cropper.Padding = createPadding
	}
	if createMaxBytes != 0 {
		cfg.Export.MaxLossyBytes = createMaxBytes
	}
	if createOutDir != "" {
		cfg.Output.OutputDir = createOutDir
	}

	maker, err := stickermaker.New(stickermaker.Options{
		Backend:          cfg.Vision.Backend,
		ServerURL:        cfg.Vision.URL,
		Model:            cfg.Vision.Model,
		APIKey:           os.Getenv("STICKER_VISION_API_KEY"),
		VisionTimeout:    time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
		VisionMaxRetries: cfg.Vision.MaxRetries,
		Padding:          cfg.Cropper.Padding,
		MaxLossyBytes:    cfg.Export.MaxLossyBytes,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	img, err := imageio.LoadImage(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := maker.CreateStickerFromImage(context.Background(), img)
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return err
	}

	created := result.Metadata.CreatedAt
	pngPath := filepath.Join(cfg.Output.OutputDir, utils.StickerFilename(created, "png"))
	if err := imageio.WritePayload(pngPath, result.Formats.Lossless); err != nil {
		return err
	}
	log.Infof("wrote %s (%s)", pngPath, utils.FormatFileSize(int64(len(result.Formats.Lossless))))

	if result.Formats.Lossy != nil {
		webpPath := filepath.Join(cfg.Output.OutputDir, utils.StickerFilename(created, "webp"))
		if err := imageio.WritePayload(webpPath, result.Formats.Lossy); err != nil {
			return err
		}
		log.Infof("wrote %s (%s)", webpPath, utils.FormatFileSize(int64(len(result.Formats.Lossy))))
	} else {
		log.Info("lossy export unavailable within size budget, png only")
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Infof(
		"sticker %s: %s detection (confidence %.2f), %dx%d -> %dx%d",
		result.Metadata.ID,
		result.Metadata.DetectionMethod,
		result.Metadata.DetectionConfidence,
		result.Metadata.OriginalDimensions.Width, result.Metadata.OriginalDimensions.Height,
		result.Metadata.CroppedDimensions.Width, result.Metadata.CroppedDimensions.Height,
	)

	return nil
}
