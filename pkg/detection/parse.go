package detection

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/menta2k/sticker-maker/pkg/types"
)

// DefaultConfidence is assumed when the model answers with a usable box
// but no confidence field.
const DefaultConfidence = 0.85

// ErrBadResponse is returned when the model answer contains no usable
// bounding box under either parsing strategy.
var ErrBadResponse = errors.New("detection: response does not contain a usable bounding box")

// rawDetection accepts the field spellings vision models actually produce.
type rawDetection struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	W          *float64 `json:"w"`
	H          *float64 `json:"h"`
	Confidence *float64 `json:"confidence"`
}

// Per-field patterns for the fallback strategy: `width: 120`, `"width"=120`,
// `Width - 120` and similar spellings in free-form prose.
var fieldPatterns = map[string]*regexp.Regexp{
	"x":      regexp.MustCompile(`(?i)\bx\b["'\s]*[:=\-]\s*(-?\d+(?:\.\d+)?)`),
	"y":      regexp.MustCompile(`(?i)\by\b["'\s]*[:=\-]\s*(-?\d+(?:\.\d+)?)`),
	"width":  regexp.MustCompile(`(?i)\bwidth\b["'\s]*[:=\-]\s*(-?\d+(?:\.\d+)?)`),
	"height": regexp.MustCompile(`(?i)\bheight\b["'\s]*[:=\-]\s*(-?\d+(?:\.\d+)?)`),
}

// ParseDetection extracts a bounding box from the model's free-form text
// answer. Two ordered strategies: strict JSON extraction first, then
// per-field label matching. If neither yields a valid box (numeric fields,
// width > 0, height > 0) it reports ErrBadResponse.
func ParseDetection(raw string) (Detection, error) {
	if det, ok := parseStructured(raw); ok {
		return det, nil
	}
	if det, ok := parseByField(raw); ok {
		return det, nil
	}
	return Detection{}, ErrBadResponse
}

func parseStructured(raw string) (Detection, bool) {
	cleaned := sanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return Detection{}, false
	}

	var rd rawDetection
	if err := json.Unmarshal([]byte(cleaned), &rd); err != nil {
		return Detection{}, false
	}

	width := pick(rd.Width, rd.W)
	height := pick(rd.Height, rd.H)
	if rd.X == nil || rd.Y == nil || width == nil || height == nil {
		return Detection{}, false
	}

	return buildDetection(*rd.X, *rd.Y, *width, *height, rd.Confidence)
}

func parseByField(raw string) (Detection, bool) {
	values := make(map[string]float64, 4)
	for name, re := range fieldPatterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			return Detection{}, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Detection{}, false
		}
		values[name] = v
	}
	return buildDetection(values["x"], values["y"], values["width"], values["height"], nil)
}

func buildDetection(x, y, w, h float64, confidence *float64) (Detection, bool) {
	for _, v := range []float64{x, y, w, h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Detection{}, false
		}
	}
	if w <= 0 || h <= 0 {
		return Detection{}, false
	}

	conf := DefaultConfidence
	if confidence != nil && *confidence > 0 && *confidence <= 1 {
		conf = *confidence
	}

	return Detection{
		Box: types.BoundingBox{
			X:      int(math.Round(x)),
			Y:      int(math.Round(y)),
			Width:  int(math.Round(w)),
			Height: int(math.Round(h)),
		},
		Confidence: conf,
	}, true
}

func pick(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// sanitizeModelJSON strips code fences, comments and trailing commas, and
// keeps only the outermost {...} of the answer.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)
