package codec

import "fmt"

// Sentinel is the byte that terminates every recording.
const Sentinel byte = 0x80

// Document is the structured form of a whole recording.
type Document struct {
	Header Header
	Tics   []Frame
}

// Size returns the number of bytes the document encodes to.
func (d *Document) Size() int {
	return d.Header.Size() + len(d.Tics)*TicSize + 1
}

// Option configures a RecordCodec.
type Option func(*RecordCodec)

// WithWarningHandler routes non-fatal decode warnings to fn.
func WithWarningHandler(fn func(Warning)) Option {
	return func(c *RecordCodec) {
		c.onWarning = fn
	}
}

// WithStrict makes every decode warning a fatal error.
func WithStrict(strict bool) Option {
	return func(c *RecordCodec) {
		c.strict = strict
	}
}

// RecordCodec converts between raw recordings and Documents. It holds no
// mutable state and is safe for concurrent use.
type RecordCodec struct {
	onWarning func(Warning)
	strict    bool
}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec(opts ...Option) *RecordCodec {
	c := &RecordCodec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode strips the sentinel and splits data into header and tics.
// A wrong final byte or a partial trailing tic is reported as a warning and
// decoding continues, unless the codec is strict.
func (c *RecordCodec) Decode(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty recording", ErrMalformedInput)
	}

	last := data[len(data)-1]
	if last != Sentinel {
		msg := fmt.Sprintf("missing 0x%02x at end of recording, found 0x%02x", Sentinel, last)
		if err := c.warn(WarningSentinelMismatch, msg); err != nil {
			return nil, err
		}
	}

	header, rest, err := DecodeHeader(data[:len(data)-1])
	if err != nil {
		return nil, err
	}

	tics, dropped := DecodeFrames(rest)
	if dropped != 0 {
		msg := fmt.Sprintf("tic region of %d bytes is not a multiple of %d, dropping %d trailing bytes",
			len(rest), TicSize, dropped)
		if err := c.warn(WarningFrameAlignment, msg); err != nil {
			return nil, err
		}
	}

	return &Document{Header: header, Tics: tics}, nil
}

// Encode serializes doc as header bytes, tic records and the sentinel.
func (c *RecordCodec) Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedInput)
	}

	header, err := EncodeHeader(doc.Header)
	if err != nil {
		return nil, err
	}
	tics, err := EncodeFrames(doc.Tics)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(header)+len(tics)+1)
	buf = append(buf, header...)
	buf = append(buf, tics...)
	return append(buf, Sentinel), nil
}

func (c *RecordCodec) warn(kind WarningKind, msg string) error {
	if c.strict {
		return fmt.Errorf("%w: %s", kind.Err(), msg)
	}
	if c.onWarning != nil {
		c.onWarning(Warning{Kind: kind, Message: msg})
	}
	return nil
}
