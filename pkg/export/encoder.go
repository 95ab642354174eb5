// Package export encodes cropped stickers into their distributable
// formats: an exact lossless payload and a size-budgeted lossy payload.
package export

import "image"

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "webp").
	Format() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore the quality parameter.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use on this
	// runtime.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}
