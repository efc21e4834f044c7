// Package interchange reads and writes the structured form of a recording:
// an object with an ordered "header" map and a "tics" array of 4-element
// arrays. JSON, YAML and CBOR renderings are supported and all of them keep
// the header's field order, which encoding relies on.
package interchange

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ssargent/lmptool/pkg/codec"
)

// Format names a document serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// DefaultFormat is used when neither a flag nor a file extension names one.
const DefaultFormat = FormatJSON

// ErrUnknownFormat is returned for format names and extensions that are not
// recognised.
var ErrUnknownFormat = errors.New("unknown document format")

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCBOR}
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// Marshal renders doc in the given format.
func Marshal(doc *codec.Document, format Format) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", codec.ErrMalformedInput)
	}
	switch format {
	case FormatJSON:
		return marshalJSON(doc)
	case FormatYAML:
		return marshalYAML(doc)
	case FormatCBOR:
		return marshalCBOR(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Unmarshal parses a document in the given format. Structural problems wrap
// codec.ErrMalformedInput. Values are not range checked here; that happens
// when the document is encoded.
func Unmarshal(data []byte, format Format) (*codec.Document, error) {
	switch format {
	case FormatJSON:
		return unmarshalJSON(data)
	case FormatYAML:
		return unmarshalYAML(data)
	case FormatCBOR:
		return unmarshalCBOR(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", codec.ErrMalformedInput, fmt.Sprintf(format, args...))
}

// headerBuilder collects header fields in order and rejects duplicates.
type headerBuilder struct {
	header codec.Header
	seen   map[string]struct{}
}

func newHeaderBuilder() *headerBuilder {
	return &headerBuilder{header: codec.Header{}, seen: make(map[string]struct{})}
}

func (b *headerBuilder) add(name string, value int) error {
	if _, ok := b.seen[name]; ok {
		return malformed("duplicate header field %q", name)
	}
	b.seen[name] = struct{}{}
	b.header = append(b.header, codec.Field{Name: name, Value: value})
	return nil
}

func ticsFromValues(values [][]int) ([]codec.Frame, error) {
	tics := make([]codec.Frame, len(values))
	for i, v := range values {
		if len(v) != codec.TicSize {
			return nil, malformed("tic %d has %d values, want %d", i, len(v), codec.TicSize)
		}
		tics[i] = codec.FrameFromValues([codec.TicSize]int{v[0], v[1], v[2], v[3]})
	}
	return tics, nil
}
