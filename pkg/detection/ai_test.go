package detection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/menta2k/sticker-maker/pkg/types"
)

func testBuffer(width, height int) *types.PixelBuffer {
	buf := types.NewPixelBuffer(width, height)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = 200
		buf.Pix[i+3] = 255
	}
	return buf
}

func TestAIDetectorRasterizesBox(t *testing.T) {
	fc := &fakeClient{responses: []string{`{"x":10,"y":20,"width":30,"height":40,"confidence":0.9}`}}
	svc := NewService(fc, "test-model")
	svc.backoff = noBackoff
	det := NewAIDetector(svc)

	buf := testBuffer(100, 100)
	mask, err := det.DetectSubject(context.Background(), buf)
	if err != nil {
		t.Fatalf("DetectSubject failed: %v", err)
	}

	want := types.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}
	if mask.BoundingBox != want {
		t.Errorf("expected box %+v, got %+v", want, mask.BoundingBox)
	}
	if mask.Method != types.MethodAI {
		t.Errorf("expected method %q, got %q", types.MethodAI, mask.Method)
	}
	if mask.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", mask.Confidence)
	}

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			inside := want.Contains(x, y)
			if got := mask.At(x, y); got != inside {
				t.Fatalf("mask mismatch at (%d,%d): got %v, inside box %v", x, y, got, inside)
			}
		}
	}
}

func TestAIDetectorClampsBoxToBuffer(t *testing.T) {
	fc := &fakeClient{responses: []string{`{"x":80,"y":-10,"width":50,"height":50}`}}
	svc := NewService(fc, "test-model")
	svc.backoff = noBackoff
	det := NewAIDetector(svc)

	mask, err := det.DetectSubject(context.Background(), testBuffer(100, 100))
	if err != nil {
		t.Fatalf("DetectSubject failed: %v", err)
	}

	want := types.BoundingBox{X: 80, Y: 0, Width: 20, Height: 40}
	if mask.BoundingBox != want {
		t.Errorf("expected clamped box %+v, got %+v", want, mask.BoundingBox)
	}
}

func TestAIDetectorRejectsBoxOutsideBuffer(t *testing.T) {
	fc := &fakeClient{responses: []string{`{"x":500,"y":500,"width":50,"height":50}`}}
	svc := NewServiceWithConfig(fc, "test-model", ServiceConfig{MaxRetries: 0})
	svc.backoff = noBackoff
	det := NewAIDetector(svc)

	_, err := det.DetectSubject(context.Background(), testBuffer(100, 100))
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse for out-of-bounds box, got %v", err)
	}
}

func TestAIDetectorScalesAnswerBack(t *testing.T) {
	// A 128x64 buffer sent with the long side capped at 64 halves the
	// payload; answer coordinates must be doubled on the way back.
	fc := &fakeClient{responses: []string{`{"x":10,"y":5,"width":20,"height":10}`}}
	svc := NewService(fc, "test-model")
	svc.backoff = noBackoff
	det := NewAIDetectorWithConfig(svc, AIConfig{SendMaxDim: 64, SendQuality: 85})

	mask, err := det.DetectSubject(context.Background(), testBuffer(128, 64))
	if err != nil {
		t.Fatalf("DetectSubject failed: %v", err)
	}

	want := types.BoundingBox{X: 20, Y: 10, Width: 40, Height: 20}
	if mask.BoundingBox != want {
		t.Errorf("expected scaled box %+v, got %+v", want, mask.BoundingBox)
	}
}

func TestAIDetectorPropagatesServiceError(t *testing.T) {
	fc := &fakeClient{
		responses: []string{""},
		errs:      []error{fmt.Errorf("model not loaded")},
	}
	svc := NewServiceWithConfig(fc, "test-model", ServiceConfig{MaxRetries: 0})
	svc.backoff = noBackoff
	det := NewAIDetector(svc)

	if _, err := det.DetectSubject(context.Background(), testBuffer(50, 50)); err == nil {
		t.Fatal("expected service error to propagate")
	}
}

func TestAIDetectorRejectsInvalidBuffer(t *testing.T) {
	fc := &fakeClient{responses: []string{`{"x":0,"y":0,"width":1,"height":1}`}}
	svc := NewService(fc, "test-model")
	det := NewAIDetector(svc)

	bad := &types.PixelBuffer{Width: 10, Height: 10, Pix: make([]uint8, 7)}
	if _, err := det.DetectSubject(context.Background(), bad); err == nil {
		t.Fatal("expected error for malformed buffer")
	}
}
