package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/sticker-maker/pkg/types"
)

// AIDetector adapts a pixel buffer to the vision service and turns its
// bounding-box answer into a subject mask. The box is the mask: every
// pixel inside it is marked, which is intentionally coarser than
// pixel-level segmentation.
type AIDetector struct {
	service *Service
	config  AIConfig
}

// AIConfig controls the payload sent to the model.
type AIConfig struct {
	// SendMaxDim caps the long side of the image sent to the model,
	// 0 = send original size.
	SendMaxDim int
	// SendQuality is the JPEG quality of the payload (1-100).
	SendQuality int
}

// NewAIDetector creates an AIDetector with default payload settings:
// long side capped at 1024, JPEG quality 85.
func NewAIDetector(service *Service) *AIDetector {
	return NewAIDetectorWithConfig(service, AIConfig{
		SendMaxDim:  1024,
		SendQuality: 85,
	})
}

// NewAIDetectorWithConfig creates an AIDetector with custom payload
// settings.
func NewAIDetectorWithConfig(service *Service, config AIConfig) *AIDetector {
	if config.SendQuality <= 0 || config.SendQuality > 100 {
		config.SendQuality = 85
	}
	return &AIDetector{service: service, config: config}
}

// DetectSubject asks the vision service for the main subject's bounding
// box, clamps it to the buffer, and rasterizes it into a filled mask. Any
// service or parse failure propagates; the orchestrator owns the fallback.
func (d *AIDetector) DetectSubject(ctx context.Context, buf *types.PixelBuffer) (*types.SubjectMask, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}

	imgB64, scale, err := d.encodePayload(buf)
	if err != nil {
		return nil, fmt.Errorf("detection: encode payload: %w", err)
	}

	det, err := d.service.Analyze(ctx, imgB64, LocatePrompt)
	if err != nil {
		return nil, err
	}

	box := scaleBox(det.Box, scale).ClampTo(buf.Width, buf.Height)
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("%w: box outside image bounds", ErrBadResponse)
	}

	mask := make([]uint8, buf.Width*buf.Height)
	for y := box.Y; y < box.Y+box.Height; y++ {
		row := y * buf.Width
		for x := box.X; x < box.X+box.Width; x++ {
			mask[row+x] = 1
		}
	}

	return &types.SubjectMask{
		Mask:        mask,
		Width:       buf.Width,
		Height:      buf.Height,
		BoundingBox: box,
		Confidence:  det.Confidence,
		Method:      types.MethodAI,
	}, nil
}

// encodePayload JPEG-encodes the buffer for the model, downscaling the
// long side to SendMaxDim first. It returns the base64 payload and the
// factor that maps answer coordinates back to buffer coordinates.
func (d *AIDetector) encodePayload(buf *types.PixelBuffer) (string, float64, error) {
	var img image.Image = buf.NRGBA()
	scale := 1.0

	if d.config.SendMaxDim > 0 {
		long := buf.Width
		if buf.Height > long {
			long = buf.Height
		}
		if long > d.config.SendMaxDim {
			scale = float64(long) / float64(d.config.SendMaxDim)
			if buf.Width >= buf.Height {
				img = imaging.Resize(img, d.config.SendMaxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, d.config.SendMaxDim, imaging.Lanczos)
			}
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: d.config.SendQuality}); err != nil {
		return "", 0, err
	}
	return base64.StdEncoding.EncodeToString(out.Bytes()), scale, nil
}

// scaleBox maps a box from sent-image coordinates back to the original
// buffer's coordinate space.
func scaleBox(b types.BoundingBox, scale float64) types.BoundingBox {
	if scale == 1.0 {
		return b
	}
	return types.BoundingBox{
		X:      int(math.Round(float64(b.X) * scale)),
		Y:      int(math.Round(float64(b.Y) * scale)),
		Width:  int(math.Round(float64(b.Width) * scale)),
		Height: int(math.Round(float64(b.Height) * scale)),
	}
}
