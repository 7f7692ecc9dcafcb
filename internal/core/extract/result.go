package extract

import "errors"

// ErrNoReadableText signals that OCR ran over every page and found
// nothing, as opposed to never having run at all.
var ErrNoReadableText = errors.New("no readable text")

// Status tags an extraction outcome.
type Status int

const (
	// StatusOK: extraction produced usable text.
	StatusOK Status = iota
	// StatusFallback: extraction ran but the document yields no usable
	// text; the document remains usable in chat-only mode.
	StatusFallback
	// StatusError: the strategy crashed unexpectedly. Callers still
	// degrade to chat-only mode rather than surfacing the crash.
	StatusError
)

// Result is the tagged outcome of one extraction attempt. Failure modes
// are first-class values here, never exceptions bubbling to HTTP.
type Result struct {
	Status Status
	Text   string
	Reason string
	Err    error
}

func Success(text string) Result {
	return Result{Status: StatusOK, Text: text}
}

func Fallback(reason string) Result {
	return Result{Status: StatusFallback, Reason: reason}
}

func Failed(err error) Result {
	return Result{Status: StatusError, Err: err}
}
