// Package inspect produces summaries of recordings for listings and the
// info command.
package inspect

import (
	"encoding/hex"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/ssargent/lmptool/pkg/codec"
)

// TicRate is the game's fixed simulation rate in tics per second.
const TicRate = 35

// hashDomainKey is the 32-byte BLAKE3 key for recording content hashes.
var hashDomainKey = [32]byte{
	'l', 'm', 'p', 't', 'o', 'o', 'l', '.', 'r', 'e', 'c', 'o', 'r', 'd', 'i', 'n',
	'g', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var playerFields = []string{
	codec.FieldPlayer1Present,
	codec.FieldPlayer2Present,
	codec.FieldPlayer3Present,
	codec.FieldPlayer4Present,
}

// HeaderField is a header entry with JSON tags for reporting.
type HeaderField struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Summary describes a recording without its tic stream.
type Summary struct {
	Version   int           `json:"version"`
	Layout    string        `json:"layout"`
	Header    []HeaderField `json:"header"`
	Players   int           `json:"players"`
	Tics      int           `json:"tics"`
	GameTics  int           `json:"game_tics"`
	Duration  time.Duration `json:"duration_ns"`
	Size      int           `json:"size"`
	SizeHuman string        `json:"size_human"`
	Hash      string        `json:"hash"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// Hash returns the hex BLAKE3 keyed digest of a recording's raw bytes.
func Hash(data []byte) string {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(hashDomainKey[:])
	if err != nil {
		panic("inspect: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Summarize decodes data and reports on it. Decode warnings are collected into
// the summary; any warning handler in opts is replaced.
func Summarize(data []byte, opts ...codec.Option) (*Summary, error) {
	var warnings []string
	opts = append(opts, codec.WithWarningHandler(func(w codec.Warning) {
		warnings = append(warnings, w.String())
	}))

	doc, err := codec.NewRecordCodec(opts...).Decode(data)
	if err != nil {
		return nil, err
	}

	s := FromDocument(doc)
	s.Size = len(data)
	s.SizeHuman = humanize.Bytes(uint64(len(data)))
	s.Hash = Hash(data)
	s.Warnings = warnings
	return s, nil
}

// FromDocument fills the fields that depend only on the decoded document.
func FromDocument(doc *codec.Document) *Summary {
	s := &Summary{
		Version: doc.Header.Version(),
		Layout:  "custom",
		Header:  make([]HeaderField, len(doc.Header)),
		Tics:    len(doc.Tics),
	}
	if l, ok := doc.Header.Layout(); ok {
		s.Layout = l.String()
	}
	for i, f := range doc.Header {
		s.Header[i] = HeaderField{Name: f.Name, Value: f.Value}
	}

	for _, name := range playerFields {
		if v, ok := doc.Header.Get(name); ok && v != 0 {
			s.Players++
		}
	}

	// One tic record is stored per present player per game tic.
	if s.Players > 0 {
		s.GameTics = s.Tics / s.Players
	}
	s.Duration = time.Duration(s.GameTics) * time.Second / TicRate
	return s
}
