package stickermaker

import (
	"context"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/sticker-maker/pkg/pipeline"
	"github.com/menta2k/sticker-maker/pkg/types"
)

func newTestMaker(t *testing.T, opts Options) *StickerMaker {
	t.Helper()
	if opts.Logger == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		opts.Logger = log
	}
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewAcceptsKnownBackends(t *testing.T) {
	for _, backend := range []string{BackendOllama, BackendHTTP} {
		if _, err := New(Options{Backend: backend}); err != nil {
			t.Errorf("New(Backend: %q) failed: %v", backend, err)
		}
	}
}

func TestCreateStickerWithoutAI(t *testing.T) {
	m := newTestMaker(t, Options{})

	buf := types.NewPixelBuffer(400, 400)
	for y := 100; y < 300; y++ {
		for x := 100; x < 300; x++ {
			i := (y*400 + x) * 4
			buf.Pix[i+1] = 180
			buf.Pix[i+3] = 255
		}
	}

	res, err := m.CreateSticker(context.Background(), buf)
	if err != nil {
		t.Fatalf("CreateSticker failed: %v", err)
	}
	if res.Metadata.DetectionMethod != types.MethodFallback {
		t.Errorf("expected fallback detection, got %q", res.Metadata.DetectionMethod)
	}
	if len(res.Formats.Lossless) == 0 {
		t.Error("missing lossless payload")
	}
}

func TestCreateStickerFromImage(t *testing.T) {
	m := newTestMaker(t, Options{})

	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	for y := 60; y < 240; y++ {
		for x := 60; x < 240; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 250, G: 120, B: 30, A: 255})
		}
	}

	res, err := m.CreateStickerFromImage(context.Background(), img)
	if err != nil {
		t.Fatalf("CreateStickerFromImage failed: %v", err)
	}
	if res.Metadata.OriginalDimensions != (types.Dimensions{Width: 300, Height: 300}) {
		t.Errorf("unexpected original dimensions %+v", res.Metadata.OriginalDimensions)
	}
}

func TestCreateStickerEmptyCanvasCode(t *testing.T) {
	m := newTestMaker(t, Options{})

	_, err := m.CreateSticker(context.Background(), types.NewPixelBuffer(200, 200))
	if !pipeline.IsCode(err, pipeline.CodeEmptyCanvas) {
		t.Errorf("expected %s, got %v", pipeline.CodeEmptyCanvas, err)
	}
}

func TestOptionsPassThrough(t *testing.T) {
	// An unreachable ollama endpoint must not break sticker creation:
	// detection falls back to the pixel path.
	m := newTestMaker(t, Options{
		Backend:          BackendOllama,
		ServerURL:        "http://127.0.0.1:1", // nothing listens here
		VisionMaxRetries: 0,
	})

	buf := types.NewPixelBuffer(300, 300)
	for y := 50; y < 250; y++ {
		for x := 50; x < 250; x++ {
			i := (y*300 + x) * 4
			buf.Pix[i] = 90
			buf.Pix[i+3] = 255
		}
	}

	res, err := m.CreateSticker(context.Background(), buf)
	if err != nil {
		t.Fatalf("CreateSticker failed: %v", err)
	}
	if res.Metadata.DetectionMethod != types.MethodFallback {
		t.Errorf("expected fallback after transport failure, got %q", res.Metadata.DetectionMethod)
	}
}
