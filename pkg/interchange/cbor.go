package interchange

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/ssargent/lmptool/pkg/codec"
)

// encMode uses Core Deterministic Encoding so a document always produces the
// same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("interchange: CBOR encoder initialization failed: " + err.Error())
	}
}

// cborField is encoded as a [name, value] pair. CBOR maps are sorted under
// deterministic encoding, so the header is carried as an array of pairs.
type cborField struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Value int
}

// Pointers tell a missing key apart from an empty array.
type cborDocument struct {
	Header *[]cborField `cbor:"header"`
	Tics   *[][]int     `cbor:"tics"`
}

func marshalCBOR(doc *codec.Document) ([]byte, error) {
	header := make([]cborField, len(doc.Header))
	for i, f := range doc.Header {
		header[i] = cborField{Name: f.Name, Value: f.Value}
	}
	tics := make([][]int, len(doc.Tics))
	for i, tic := range doc.Tics {
		v := tic.Values()
		tics[i] = v[:]
	}
	return encMode.Marshal(cborDocument{Header: &header, Tics: &tics})
}

func unmarshalCBOR(data []byte) (*codec.Document, error) {
	var in cborDocument
	if err := cbor.Unmarshal(data, &in); err != nil {
		return nil, malformed("parsing CBOR document: %v", err)
	}
	if in.Header == nil {
		return nil, malformed("document has no header")
	}
	if in.Tics == nil {
		return nil, malformed("document has no tics")
	}

	b := newHeaderBuilder()
	for _, f := range *in.Header {
		if err := b.add(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	tics, err := ticsFromValues(*in.Tics)
	if err != nil {
		return nil, err
	}
	return &codec.Document{Header: b.header, Tics: tics}, nil
}
