package codec

import "fmt"

// Field is one labelled header byte.
type Field struct {
	Name  string
	Value int
}

// Header holds the labelled header bytes in wire order. Order is significant:
// encoding flattens the values positionally.
type Header []Field

// Get returns the value stored under name.
func (h Header) Get(name string) (int, bool) {
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Version returns the game_version field, or -1 if absent.
func (h Header) Version() int {
	v, ok := h.Get(FieldGameVersion)
	if !ok {
		return -1
	}
	return v
}

// Layout returns the known layout whose labels h carries.
func (h Header) Layout() (Layout, bool) {
	for _, l := range []Layout{LayoutOld, LayoutNew} {
		if l.Matches(h) {
			return l, true
		}
	}
	return 0, false
}

// Size returns the number of bytes the header encodes to.
func (h Header) Size() int {
	return len(h)
}

// DecodeHeader reads the header selected by buf's first byte and returns it
// with the unconsumed remainder. Values are stored as the raw unsigned bytes.
func DecodeHeader(buf []byte) (Header, []byte, error) {
	if len(buf) == 0 {
		return nil, nil, fmt.Errorf("%w: empty buffer, no version byte", ErrMalformedInput)
	}

	layout := LayoutForVersion(buf[0])
	size := layout.Size()
	if len(buf) < size {
		return nil, nil, fmt.Errorf("%w: %s header for version %d needs %d bytes, have %d",
			ErrMalformedInput, layout, buf[0], size, len(buf))
	}

	labels := layout.Labels()
	h := make(Header, size)
	for i, label := range labels {
		h[i] = Field{Name: label, Value: int(buf[i])}
	}

	return h, buf[size:], nil
}

// EncodeHeader flattens h into one byte per field in h's own order. The
// layout is not re-derived from game_version.
func EncodeHeader(h Header) ([]byte, error) {
	buf := make([]byte, len(h))
	for i, f := range h {
		if f.Value < 0 || f.Value > 0xFF {
			return nil, fmt.Errorf("%w: header field %q = %d does not fit uint8", ErrRange, f.Name, f.Value)
		}
		buf[i] = byte(f.Value)
	}
	return buf, nil
}
