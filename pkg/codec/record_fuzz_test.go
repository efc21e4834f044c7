//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"testing"
)

// FuzzRecordCodec_RoundTrip checks that well-formed recordings survive decode/encode
func FuzzRecordCodec_RoundTrip(f *testing.F) {
	codec := NewRecordCodec()

	f.Add(uint8(102), []byte{1, 0, 0, 0}, []byte{10, 0xFB, 0, 1})
	f.Add(uint8(109), []byte{4, 1, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0}, []byte{})
	f.Add(uint8(0), []byte{}, []byte{0x80, 0x7F, 0xFF, 0x00})

	f.Fuzz(func(t *testing.T, version uint8, headerTail, tics []byte) {
		if len(tics) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		size := LayoutForVersion(version).Size()
		header := make([]byte, size)
		header[0] = version
		copy(header[1:], headerTail)

		data := append(append(header, tics[:len(tics)-len(tics)%TicSize]...), Sentinel)

		doc, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("Decode failed for %x: %v", data, err)
		}

		encoded, err := codec.Encode(doc)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		if !bytes.Equal(encoded, data) {
			t.Errorf("Round trip mismatch: got %x, want %x", encoded, data)
		}
	})
}

// FuzzRecordCodec_MalformedData checks that arbitrary input never panics
func FuzzRecordCodec_MalformedData(f *testing.F) {
	codec := NewRecordCodec()

	f.Add([]byte{})
	f.Add([]byte{0x80})
	f.Add([]byte{103, 0x80})
	f.Add(make([]byte, 9))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		doc, err := codec.Decode(data)
		if err != nil {
			return
		}

		// Whatever decoded must encode again.
		if _, err := codec.Encode(doc); err != nil {
			t.Errorf("Encode of decoded document failed: %v", err)
		}
	})
}
