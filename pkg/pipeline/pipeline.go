// Package pipeline wires the sticker-creation stages together and owns
// the fallback and error policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/sticker-maker/pkg/bounds"
	"github.com/menta2k/sticker-maker/pkg/cropper"
	"github.com/menta2k/sticker-maker/pkg/export"
	"github.com/menta2k/sticker-maker/pkg/removal"
	"github.com/menta2k/sticker-maker/pkg/types"
)

// State names the orchestrator's stages. Each creation request walks them
// in order; any failure jumps to StateError.
type State string

const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StateDetecting          State = "detecting"
	StateRemovingBackground State = "removing_background"
	StateCropping           State = "cropping"
	StateExporting          State = "exporting"
	StateComplete           State = "complete"
	StateError              State = "error"
)

// DefaultMaxLossyBytes is the lossy size budget: the common messenger
// sticker cap for a 512×512 WebP.
const DefaultMaxLossyBytes = 100 * 1024

// SubjectDetector is the capability both detection strategies implement.
type SubjectDetector interface {
	DetectSubject(ctx context.Context, buf *types.PixelBuffer) (*types.SubjectMask, error)
}

// Config holds orchestrator tuning.
type Config struct {
	// Padding passed to the cropper, clamped to its valid range.
	Padding int
	// MaxLossyBytes is the lossy export budget; 0 uses the default.
	MaxLossyBytes int
}

// Orchestrator runs the sticker-creation pipeline. It holds no per-request
// state: every stage allocates fresh buffers, so concurrent CreateSticker
// calls need no coordination.
type Orchestrator struct {
	ai       SubjectDetector // nil when AI detection is disabled
	fallback SubjectDetector
	remover  *removal.Remover
	cropper  *cropper.SmartCropper
	exporter *export.Exporter
	config   Config
	log      *logrus.Logger
}

// NewOrchestrator creates an Orchestrator. ai may be nil, in which case
// every request takes the pixel path. fallback must not be nil. A nil
// logger uses the logrus standard logger.
func NewOrchestrator(config Config, ai, fallback SubjectDetector, logger *logrus.Logger) *Orchestrator {
	if config.MaxLossyBytes <= 0 {
		config.MaxLossyBytes = DefaultMaxLossyBytes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	pad := config.Padding
	if pad == 0 {
		pad = cropper.DefaultPadding
	}
	return &Orchestrator{
		ai:       ai,
		fallback: fallback,
		remover:  removal.New(),
		cropper:  cropper.NewWithPadding(pad),
		exporter: export.New(),
		config:   config,
		log:      logger,
	}
}

// CreateSticker runs the full pipeline on a drawing buffer. Only
// StickerError values escape: inner stages fail with narrow errors that
// are classified here, and anything unanticipated (including panics) is
// wrapped as ProcessingError with its original cause.
func (o *Orchestrator) CreateSticker(ctx context.Context, buf *types.PixelBuffer) (result *types.StickerResult, err error) {
	start := time.Now()
	state := StateIdle

	defer func() {
		if r := recover(); r != nil {
			err = newError(CodeProcessing, fmt.Sprintf("panic in stage %s", state), fmt.Errorf("%v", r))
			result = nil
		}
		if err != nil {
			o.log.WithFields(logrus.Fields{
				"stage": state,
				"code":  CodeOf(err),
			}).Debug("sticker creation failed")
		}
	}()

	// Validating.
	state = StateValidating
	if verr := buf.Validate(); verr != nil {
		return nil, newError(CodeCanvasContext, "could not obtain a usable pixel buffer", verr)
	}
	if fullyTransparent(buf) {
		return nil, newError(CodeEmptyCanvas, "the canvas has no visible content", nil)
	}

	// Detecting.
	state = StateDetecting
	mask, err := o.detect(ctx, buf)
	if err != nil {
		if errors.Is(err, bounds.ErrEmptyRegion) {
			// Strokes exist but none clear the visibility threshold.
			return nil, newError(CodeEmptyCanvas, "no stroke is visible enough to detect", err)
		}
		return nil, newError(CodeProcessing, "subject detection failed", err)
	}

	// RemovingBackground.
	state = StateRemovingBackground
	removed, err := o.remover.Remove(buf, mask)
	if err != nil {
		return nil, newError(CodeProcessing, "background removal failed", err)
	}

	// Cropping.
	state = StateCropping
	cropped, err := o.cropper.Crop(removed)
	if err != nil {
		if errors.Is(err, bounds.ErrEmptyRegion) {
			return nil, newError(CodeDrawingTooSmall, "background removal left no usable content", err)
		}
		return nil, newError(CodeProcessing, "cropping failed", err)
	}
	if cropped.ImageData.Width < cropper.MinDimension || cropped.ImageData.Height < cropper.MinDimension {
		return nil, newError(CodeDrawingTooSmall,
			fmt.Sprintf("cropped drawing %dx%d is below the %dpx minimum",
				cropped.ImageData.Width, cropped.ImageData.Height, cropper.MinDimension), nil)
	}

	// Exporting. Lossless is mandatory; lossy is best-effort.
	state = StateExporting
	lossless, err := o.exporter.Lossless(cropped.ImageData)
	if err != nil {
		return nil, newError(CodeProcessing, "lossless export failed", err)
	}

	lossy, err := o.exporter.Lossy(cropped.ImageData, o.config.MaxLossyBytes)
	if err != nil {
		o.log.WithError(err).Warn("lossy export failed, continuing without it")
		lossy = nil
	}

	state = StateComplete
	result = o.assemble(buf, cropped, mask, lossless, lossy)

	o.log.WithFields(logrus.Fields{
		"method":      mask.Method,
		"confidence":  mask.Confidence,
		"cropped":     fmt.Sprintf("%dx%d", cropped.ImageData.Width, cropped.ImageData.Height),
		"lossy":       lossy != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("sticker created")

	return result, nil
}

// detect runs the AI detector when configured and falls back to the pixel
// detector on any AI failure. AI unavailability is invisible to the
// caller: degraded accuracy only, never a user-facing error. A pixel
// detector failure propagates.
func (o *Orchestrator) detect(ctx context.Context, buf *types.PixelBuffer) (*types.SubjectMask, error) {
	if o.ai != nil {
		mask, err := o.ai.DetectSubject(ctx, buf)
		if err == nil {
			return mask, nil
		}
		o.log.WithError(err).Warn("ai detection failed, using pixel fallback")
	}
	return o.fallback.DetectSubject(ctx, buf)
}

// assemble builds the StickerResult and its derived metadata.
func (o *Orchestrator) assemble(src *types.PixelBuffer, cropped *types.CroppedResult, mask *types.SubjectMask, lossless, lossy []byte) *types.StickerResult {
	formats := []string{o.exporter.LosslessExtension()}
	sizes := map[string]int{
		o.exporter.LosslessExtension(): len(lossless),
	}
	checksums := map[string]string{
		o.exporter.LosslessExtension(): export.Checksum(lossless),
	}
	if lossy != nil {
		ext := o.exporter.LossyExtension()
		formats = append(formats, ext)
		sizes[ext] = len(lossy)
		checksums[ext] = export.Checksum(lossy)
	}

	return &types.StickerResult{
		Preview: cropped.ImageData,
		Formats: types.StickerFormats{
			Lossless: lossless,
			Lossy:    lossy,
		},
		Metadata: types.StickerMetadata{
			ID:                  uuid.NewString(),
			CreatedAt:           time.Now().UTC(),
			OriginalDimensions:  types.Dimensions{Width: src.Width, Height: src.Height},
			CroppedDimensions:   types.Dimensions{Width: cropped.ImageData.Width, Height: cropped.ImageData.Height},
			DetectionMethod:     mask.Method,
			DetectionConfidence: mask.Confidence,
			ExportFormats:       formats,
			FileSizes:           sizes,
			Checksums:           checksums,
		},
	}
}

// fullyTransparent reports whether no pixel of the buffer has alpha > 0.
func fullyTransparent(buf *types.PixelBuffer) bool {
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 0 {
			return false
		}
	}
	return true
}
