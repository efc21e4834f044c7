package interchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/ssargent/lmptool/pkg/codec"
)

// marshalJSON writes the header one field per line and each tic on a single
// line, so edits to a recording produce small diffs.
func marshalJSON(doc *codec.Document) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("{\n  \"header\": {")
	for i, f := range doc.Header {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n    ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(f.Value))
	}
	if len(doc.Header) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("},\n  \"tics\": [")
	for i, tic := range doc.Tics {
		if i > 0 {
			buf.WriteByte(',')
		}
		v := tic.Values()
		buf.WriteString("\n    [")
		for j, x := range v {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Itoa(x))
		}
		buf.WriteByte(']')
	}
	if len(doc.Tics) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("]\n}\n")

	return buf.Bytes(), nil
}

type jsonDocument struct {
	Header json.RawMessage `json:"header"`
	Tics   *[][]int        `json:"tics"`
}

// unmarshalJSON accepts JSONC: comments and trailing commas are stripped first.
func unmarshalJSON(data []byte) (*codec.Document, error) {
	stripped := jsonc.ToJSON(data)

	var raw jsonDocument
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return nil, malformed("parsing JSON document: %v", err)
	}
	if len(raw.Header) == 0 || bytes.Equal(raw.Header, []byte("null")) {
		return nil, malformed("document has no header")
	}
	if raw.Tics == nil {
		return nil, malformed("document has no tics")
	}

	header, err := parseJSONHeader(raw.Header)
	if err != nil {
		return nil, err
	}
	tics, err := ticsFromValues(*raw.Tics)
	if err != nil {
		return nil, err
	}

	return &codec.Document{Header: header, Tics: tics}, nil
}

// parseJSONHeader walks the header object token by token to keep key order,
// which a Go map would lose.
func parseJSONHeader(data []byte) (codec.Header, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("reading header: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, malformed("header must be an object")
	}

	b := newHeaderBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("reading header: %v", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, malformed("header key %v is not a string", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, malformed("reading header field %q: %v", name, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, malformed("header field %q is not a number", name)
		}
		value, err := strconv.Atoi(num.String())
		if err != nil {
			return nil, malformed("header field %q = %s is not an integer", name, num)
		}
		if err := b.add(name, value); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, malformed("reading header: %v", err)
	}
	return b.header, nil
}
