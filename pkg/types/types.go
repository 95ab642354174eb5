package types

import (
	"fmt"
	"image"
	"image/draw"
	"time"
)

// DetectionMethod identifies which strategy produced a subject mask.
type DetectionMethod string

const (
	// MethodAI marks masks produced by the remote vision service.
	MethodAI DetectionMethod = "ai"
	// MethodFallback marks masks produced by the local pixel detector.
	MethodFallback DetectionMethod = "fallback"
)

// BoundingBox is an integer rectangle in the pixel space of the buffer it
// was derived from. Width and Height are always positive for boxes produced
// by detectors and croppers.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Contains reports whether the pixel (x, y) lies inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// ClampTo clips the box to a width×height buffer. Negative origins are
// moved to zero and the far edges are pulled inside the buffer. The result
// may have zero Width or Height if the box lies entirely outside.
func (b BoundingBox) ClampTo(width, height int) BoundingBox {
	x0, y0 := b.X, b.Y
	x1, y1 := b.X+b.Width, b.Y+b.Height
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > width {
		x1 = width
	}
	if y1 > height {
		y1 = height
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// SubjectMask is a binary foreground mask over a width×height buffer.
// Mask[y*Width+x] == 1 marks a subject pixel. BoundingBox is the tight
// enclosure of all set entries. A mask is produced once per detection and
// never mutated afterwards.
type SubjectMask struct {
	Mask        []uint8
	Width       int
	Height      int
	BoundingBox BoundingBox
	Confidence  float64
	Method      DetectionMethod
}

// At reports whether the mask marks (x, y) as subject.
func (m *SubjectMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Mask[y*m.Width+x] != 0
}

// PixelBuffer is the working image representation threaded through every
// pipeline stage: non-premultiplied RGBA bytes, 4 per pixel. Stages that
// produce a new image allocate a new buffer instead of mutating their
// input.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed (fully transparent) buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage converts any image into a PixelBuffer, flattening it to
// non-premultiplied RGBA.
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return &PixelBuffer{Width: b.Dx(), Height: b.Dy(), Pix: nrgba.Pix}
}

// Validate checks the buffer invariant: positive dimensions and a pixel
// slice of exactly width*height*4 bytes.
func (p *PixelBuffer) Validate() error {
	if p == nil {
		return fmt.Errorf("nil pixel buffer")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid buffer dimensions %dx%d", p.Width, p.Height)
	}
	if want := p.Width * p.Height * 4; len(p.Pix) != want {
		return fmt.Errorf("buffer length %d does not match %dx%d RGBA (want %d)",
			len(p.Pix), p.Width, p.Height, want)
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (p *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(p.Pix))
	copy(pix, p.Pix)
	return &PixelBuffer{Width: p.Width, Height: p.Height, Pix: pix}
}

// Alpha returns the alpha byte at (x, y). Out-of-range coordinates read as
// fully transparent.
func (p *PixelBuffer) Alpha(x, y int) uint8 {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0
	}
	return p.Pix[(y*p.Width+x)*4+3]
}

// NRGBA copies the buffer into an *image.NRGBA so it can be fed to the
// imaging and encoder libraries.
func (p *PixelBuffer) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	copy(img.Pix, p.Pix)
	return img
}

// CroppedResult is the output of the smart cropper. BoundingBox is in the
// coordinate space of the cropped buffer's source, after padding and
// dimension clamping.
type CroppedResult struct {
	ImageData   *PixelBuffer
	BoundingBox BoundingBox
	Padding     int
}

// Dimensions is a width/height pair recorded in sticker metadata.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StickerMetadata is a read-only summary derived while assembling a
// StickerResult.
type StickerMetadata struct {
	ID                  string            `json:"id"`
	CreatedAt           time.Time         `json:"created_at"`
	OriginalDimensions  Dimensions        `json:"original_dimensions"`
	CroppedDimensions   Dimensions        `json:"cropped_dimensions"`
	DetectionMethod     DetectionMethod   `json:"detection_method"`
	DetectionConfidence float64           `json:"detection_confidence"`
	ExportFormats       []string          `json:"export_formats"`
	FileSizes           map[string]int    `json:"file_sizes"`
	Checksums           map[string]string `json:"checksums"`
}

// StickerFormats holds the encoded payloads. Lossy is nil when no quality
// level met the size budget or the runtime has no lossy encoder.
type StickerFormats struct {
	Lossless []byte
	Lossy    []byte
}

// StickerResult is the pipeline's sole output.
type StickerResult struct {
	Preview  *PixelBuffer
	Formats  StickerFormats
	Metadata StickerMetadata
}
