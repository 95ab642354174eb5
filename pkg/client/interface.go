package client

import "context"

// VisionClient is implemented by model transports that can answer a
// natural-language question about a base64-encoded image. The answer is
// returned as raw text; parsing it belongs to the detection service.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
