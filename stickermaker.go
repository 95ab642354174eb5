// Package stickermaker turns a freehand raster drawing into a cropped,
// background-removed sticker available in two export formats.
//
// The pipeline detects the drawing's main subject (through a remote vision
// model when one is configured, with a deterministic local flood-fill
// fallback), erases the background through the subject mask, crops to the
// content with padding, and exports a lossless PNG plus a size-budgeted
// lossy WebP.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		stickermaker "github.com/menta2k/sticker-maker"
//	)
//
//	func main() {
//		maker, err := stickermaker.New(stickermaker.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// buf is the drawing surface's RGBA pixel buffer.
//		result, err := maker.CreateSticker(context.Background(), buf)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		log.Printf("sticker %s: %s detection, %d byte png",
//			result.Metadata.ID, result.Metadata.DetectionMethod,
//			len(result.Formats.Lossless))
//	}
//
// The package consists of the pipeline orchestrator (pkg/pipeline), the
// two detection strategies (pkg/detection, pkg/vision), the vision-model
// transports (pkg/ollama, pkg/visionhttp), and the background removal,
// cropping and export stages (pkg/removal, pkg/cropper, pkg/export).
//
// AI detection is strictly best-effort: a missing API key, an unreachable
// server, a timeout or an unparseable answer all route silently to the
// pixel fallback. The only user-facing failures are an empty canvas, a
// drawing too small to be a sticker, and wrapped processing errors.
package stickermaker

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/sticker-maker/pkg/client"
	"github.com/menta2k/sticker-maker/pkg/detection"
	"github.com/menta2k/sticker-maker/pkg/ollama"
	"github.com/menta2k/sticker-maker/pkg/pipeline"
	"github.com/menta2k/sticker-maker/pkg/types"
	"github.com/menta2k/sticker-maker/pkg/vision"
	"github.com/menta2k/sticker-maker/pkg/visionhttp"
)

// Version of the sticker-maker library.
const Version = "1.0.0"

// Supported vision backends.
const (
	BackendOllama = "ollama"
	BackendHTTP   = "http"
)

// Options configures a StickerMaker. The zero value disables AI detection
// and uses defaults everywhere else.
type Options struct {
	// Backend selects the vision transport: BackendOllama, BackendHTTP,
	// or "" to disable AI detection entirely.
	Backend string
	// ServerURL of the vision service; backend-specific default when
	// empty.
	ServerURL string
	// Model name sent to the vision service.
	Model string
	// APIKey for hosted HTTP endpoints. Leaving it empty is not an
	// error: detection then degrades to the pixel fallback.
	APIKey string
	// VisionTimeout applies per service attempt; 0 uses the default.
	VisionTimeout time.Duration
	// VisionMaxRetries is the retry count after the first attempt; a
	// negative value means 0.
	VisionMaxRetries int

	// Padding around the detected content, clamped to the cropper's
	// valid range; 0 uses the default.
	Padding int
	// MaxLossyBytes is the lossy export budget; 0 uses the default.
	MaxLossyBytes int

	// Logger for stage and fallback events; nil uses the logrus
	// standard logger.
	Logger *logrus.Logger
}

// StickerMaker is the high-level entry point of the library.
type StickerMaker struct {
	orch *pipeline.Orchestrator
}

// New creates a StickerMaker from options.
func New(opts Options) (*StickerMaker, error) {
	var ai pipeline.SubjectDetector

	if opts.Backend != "" {
		visionClient, err := newVisionClient(opts)
		if err != nil {
			return nil, err
		}
		model := opts.Model
		if model == "" {
			model = "minicpm-v"
		}
		service := detection.NewServiceWithConfig(visionClient, model, detection.ServiceConfig{
			Timeout:    opts.VisionTimeout,
			MaxRetries: opts.VisionMaxRetries,
		})
		ai = detection.NewAIDetector(service)
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Padding:       opts.Padding,
		MaxLossyBytes: opts.MaxLossyBytes,
	}, ai, vision.New(), opts.Logger)

	return &StickerMaker{orch: orch}, nil
}

func newVisionClient(opts Options) (client.VisionClient, error) {
	switch opts.Backend {
	case BackendOllama:
		url := opts.ServerURL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return c, nil
	case BackendHTTP:
		c, err := visionhttp.NewClient(opts.ServerURL, opts.APIKey)
		if err != nil {
			return nil, fmt.Errorf("create http vision client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown vision backend %q (use %q or %q)",
			opts.Backend, BackendOllama, BackendHTTP)
	}
}

// CreateSticker runs the pipeline on a raw pixel buffer.
func (s *StickerMaker) CreateSticker(ctx context.Context, buf *types.PixelBuffer) (*types.StickerResult, error) {
	return s.orch.CreateSticker(ctx, buf)
}

// CreateStickerFromImage converts any image to a pixel buffer and runs the
// pipeline on it.
func (s *StickerMaker) CreateStickerFromImage(ctx context.Context, img image.Image) (*types.StickerResult, error) {
	return s.orch.CreateSticker(ctx, types.FromImage(img))
}
