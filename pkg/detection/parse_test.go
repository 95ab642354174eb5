package detection

import (
	"errors"
	"testing"

	"github.com/menta2k/sticker-maker/pkg/types"
)

func TestParseStructuredJSON(t *testing.T) {
	raw := `{"x": 12, "y": 30, "width": 100, "height": 80, "confidence": 0.92}`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}

	want := types.BoundingBox{X: 12, Y: 30, Width: 100, Height: 80}
	if det.Box != want {
		t.Errorf("expected box %+v, got %+v", want, det.Box)
	}
	if det.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", det.Confidence)
	}
}

func TestParseShortFieldNames(t *testing.T) {
	raw := `{"x": 5, "y": 6, "w": 40, "h": 30}`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}

	want := types.BoundingBox{X: 5, Y: 6, Width: 40, Height: 30}
	if det.Box != want {
		t.Errorf("expected box %+v, got %+v", want, det.Box)
	}
	if det.Confidence != DefaultConfidence {
		t.Errorf("expected default confidence, got %f", det.Confidence)
	}
}

func TestParseCodeFencedJSON(t *testing.T) {
	raw := "```json\n{\"x\": 1, \"y\": 2, \"width\": 3, \"height\": 4,}\n```"

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}

	want := types.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}
	if det.Box != want {
		t.Errorf("expected box %+v, got %+v", want, det.Box)
	}
}

func TestParseJSONWithProse(t *testing.T) {
	raw := `Sure! The main subject is located here:
{"x": 50, "y": 60, "width": 120, "height": 90, "confidence": 0.8}
Let me know if you need anything else.`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}
	if det.Box.Width != 120 || det.Box.Height != 90 {
		t.Errorf("unexpected box %+v", det.Box)
	}
}

func TestParsePerFieldFallback(t *testing.T) {
	raw := `The subject sits at x: 40, y: 25 with width: 200 and height: 150 pixels.`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}

	want := types.BoundingBox{X: 40, Y: 25, Width: 200, Height: 150}
	if det.Box != want {
		t.Errorf("expected box %+v, got %+v", want, det.Box)
	}
}

func TestParseFloatCoordinatesRound(t *testing.T) {
	raw := `{"x": 10.6, "y": 9.4, "width": 100.5, "height": 99.5}`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}

	if det.Box.X != 11 || det.Box.Y != 9 {
		t.Errorf("expected rounded origin (11,9), got (%d,%d)", det.Box.X, det.Box.Y)
	}
}

func TestParseRejectsNonPositiveDimensions(t *testing.T) {
	cases := []string{
		`{"x": 0, "y": 0, "width": 0, "height": 100}`,
		`{"x": 0, "y": 0, "width": 100, "height": -5}`,
		`x: 1, y: 2, width: 0, height: 0`,
	}

	for _, raw := range cases {
		if _, err := ParseDetection(raw); !errors.Is(err, ErrBadResponse) {
			t.Errorf("expected ErrBadResponse for %q, got %v", raw, err)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"I cannot see any subject in this image.",
		`{"label": "cat", "confidence": 0.9}`,
		"```\nnot json at all\n```",
	}

	for _, raw := range cases {
		if _, err := ParseDetection(raw); !errors.Is(err, ErrBadResponse) {
			t.Errorf("expected ErrBadResponse for %q, got %v", raw, err)
		}
	}
}

func TestParseIgnoresOutOfRangeConfidence(t *testing.T) {
	raw := `{"x": 1, "y": 1, "width": 10, "height": 10, "confidence": 7.5}`

	det, err := ParseDetection(raw)
	if err != nil {
		t.Fatalf("ParseDetection failed: %v", err)
	}
	if det.Confidence != DefaultConfidence {
		t.Errorf("expected default confidence for out-of-range value, got %f", det.Confidence)
	}
}
