package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned when a buffer or document is structurally
	// incomplete: empty input, a header shorter than its layout, or a document
	// with missing parts.
	ErrMalformedInput = errors.New("malformed input")

	// ErrRange is returned when a value does not fit the byte field it is
	// packed into.
	ErrRange = errors.New("value out of range")

	// ErrSentinelMismatch is returned in strict mode when the last byte is not
	// the 0x80 end marker.
	ErrSentinelMismatch = errors.New("sentinel mismatch")

	// ErrFrameAlignment is returned in strict mode when the tic region is not
	// a multiple of the tic size.
	ErrFrameAlignment = errors.New("frame alignment")
)

// WarningKind classifies a non-fatal decode problem.
type WarningKind int

const (
	WarningSentinelMismatch WarningKind = iota + 1
	WarningFrameAlignment
)

// String returns the metric/log label for the kind.
func (k WarningKind) String() string {
	switch k {
	case WarningSentinelMismatch:
		return "sentinel_mismatch"
	case WarningFrameAlignment:
		return "frame_alignment"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Err returns the strict-mode error for the kind.
func (k WarningKind) Err() error {
	switch k {
	case WarningSentinelMismatch:
		return ErrSentinelMismatch
	case WarningFrameAlignment:
		return ErrFrameAlignment
	default:
		return ErrMalformedInput
	}
}

// Warning is a problem found during decode that does not stop the conversion.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}
