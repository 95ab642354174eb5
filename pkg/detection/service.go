// Package detection locates the main subject of a drawing through a
// remote vision model. The Service owns timeouts, retries and response
// parsing; the AIDetector adapts pixel buffers to the service and turns
// its answer into a subject mask.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/menta2k/sticker-maker/pkg/client"
	"github.com/menta2k/sticker-maker/pkg/types"
	"github.com/menta2k/sticker-maker/pkg/visionhttp"
)

// LocatePrompt asks the model for the main subject's bounding box in the
// pixel space of the image it was sent.
const LocatePrompt = `You are an image subject locator.

Find the single main subject of this image and return its bounding box in
pixel coordinates of the image as sent.

Return JSON only:
{"x": 0, "y": 0, "width": 0, "height": 0, "confidence": 0.0}

HARD RULES
- x,y is the top-left corner; width and height must be positive integers.
- The box should tightly include the visually dominant drawn figure and
  exclude empty background.
- confidence is your certainty in [0,1].
- JSON only. No markdown, no code fences, no comments, no prose.`

// Detection is a parsed service answer: a pixel-space bounding box and the
// model's confidence in it.
type Detection struct {
	Box        types.BoundingBox
	Confidence float64
}

// ServiceConfig holds configuration for the vision service wrapper.
type ServiceConfig struct {
	// Timeout applies per attempt; a timed-out call is aborted and
	// counted as a failed attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
}

// Service wraps a vision transport with timeout, retry with exponential
// backoff, and answer parsing.
type Service struct {
	client  client.VisionClient
	model   string
	config  ServiceConfig
	backoff func(attempt int) time.Duration
}

// NewService creates a Service with default configuration: 30s per
// attempt, 2 retries.
func NewService(c client.VisionClient, model string) *Service {
	return NewServiceWithConfig(c, model, ServiceConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	})
}

// NewServiceWithConfig creates a Service with custom configuration.
func NewServiceWithConfig(c client.VisionClient, model string, config ServiceConfig) *Service {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Service{
		client:  c,
		model:   model,
		config:  config,
		backoff: expBackoff,
	}
}

// expBackoff waits 2^attempt seconds before retry number attempt.
func expBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Analyze sends the payload and prompt to the model and parses its answer
// into a Detection. Failed attempts (transport errors, timeouts, unusable
// answers) are retried up to MaxRetries times; after the final attempt the
// last error is returned. A missing API key is not retried: the failure is
// deterministic, so it surfaces immediately.
func (s *Service) Analyze(ctx context.Context, imgB64, prompt string) (Detection, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Detection{}, ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		raw, err := s.client.Query(callCtx, s.model, prompt, imgB64)
		cancel()
		if err != nil {
			// A missing credential cannot heal between attempts; fail
			// now so the pixel fallback runs without retry sleeps.
			if errors.Is(err, visionhttp.ErrMissingAPIKey) {
				return Detection{}, err
			}
			lastErr = err
			continue
		}

		det, err := ParseDetection(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return det, nil
	}

	return Detection{}, fmt.Errorf("vision service failed after %d attempts: %w",
		s.config.MaxRetries+1, lastErr)
}
