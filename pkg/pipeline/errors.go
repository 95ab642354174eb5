package pipeline

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable code surfaced to sticker-creation callers.
type ErrorCode string

const (
	// CodeEmptyCanvas: the input buffer is fully transparent.
	CodeEmptyCanvas ErrorCode = "EmptyCanvas"
	// CodeCanvasContext: no usable pixel buffer could be obtained from
	// the drawing surface.
	CodeCanvasContext ErrorCode = "CanvasContextError"
	// CodeDrawingTooSmall: the final crop is below the minimum usable
	// dimensions.
	CodeDrawingTooSmall ErrorCode = "DrawingTooSmall"
	// CodeProcessing wraps any unanticipated failure in any stage.
	CodeProcessing ErrorCode = "ProcessingError"
)

// StickerError tags a sticker-creation failure with a stable code. It is
// constructed at the orchestrator boundary and propagated unchanged to the
// caller.
type StickerError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *StickerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StickerError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, cause error) *StickerError {
	return &StickerError{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the error code from err, or "" if err is not a
// StickerError.
func CodeOf(err error) ErrorCode {
	var se *StickerError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
