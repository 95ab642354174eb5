// Package imageio loads drawing files for the CLI and writes exported
// payloads to disk.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"
)

// LoadImage loads an image from a file path with WebP support.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	if img, _, err := image.Decode(f); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode for files the registered decoders
	// reject.
	if strings.Contains(strings.ToLower(path), ".webp") {
		if _, err := f.Seek(0, 0); err == nil {
			if img, err := webp.Decode(f); err == nil {
				return img, nil
			}
		}
	}

	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// WritePayload writes an encoded sticker payload to disk.
func WritePayload(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
