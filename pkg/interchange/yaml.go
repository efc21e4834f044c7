package interchange

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/lmptool/pkg/codec"
)

func marshalYAML(doc *codec.Document) ([]byte, error) {
	header := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range doc.Header {
		header.Content = append(header.Content, scalar("!!str", f.Name), scalar("!!int", strconv.Itoa(f.Value)))
	}

	tics := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, tic := range doc.Tics {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, v := range tic.Values() {
			seq.Content = append(seq.Content, scalar("!!int", strconv.Itoa(v)))
		}
		tics.Content = append(tics.Content, seq)
	}
	if len(doc.Header) == 0 {
		header.Style = yaml.FlowStyle
	}
	if len(doc.Tics) == 0 {
		tics.Style = yaml.FlowStyle
	}

	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			scalar("!!str", "header"), header,
			scalar("!!str", "tics"), tics,
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func unmarshalYAML(data []byte) (*codec.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, malformed("parsing YAML document: %v", err)
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, malformed("document must be a mapping")
	}

	var (
		header    codec.Header
		tics      []codec.Frame
		hasHeader bool
		hasTics   bool
	)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "header":
			h, err := parseYAMLHeader(value)
			if err != nil {
				return nil, err
			}
			header, hasHeader = h, true
		case "tics":
			values, err := parseYAMLTics(value)
			if err != nil {
				return nil, err
			}
			t, err := ticsFromValues(values)
			if err != nil {
				return nil, err
			}
			tics, hasTics = t, true
		}
	}

	if !hasHeader {
		return nil, malformed("document has no header")
	}
	if !hasTics {
		return nil, malformed("document has no tics")
	}
	return &codec.Document{Header: header, Tics: tics}, nil
}

func parseYAMLHeader(node *yaml.Node) (codec.Header, error) {
	if node.Kind != yaml.MappingNode {
		return nil, malformed("header must be a mapping")
	}

	b := newHeaderBuilder()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		v, err := yamlInt(value)
		if err != nil {
			return nil, malformed("header field %q: %v", key.Value, err)
		}
		if err := b.add(key.Value, v); err != nil {
			return nil, err
		}
	}
	return b.header, nil
}

func parseYAMLTics(node *yaml.Node) ([][]int, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, malformed("tics must be a sequence")
	}

	values := make([][]int, len(node.Content))
	for i, tic := range node.Content {
		if tic.Kind != yaml.SequenceNode {
			return nil, malformed("tic %d must be a sequence", i)
		}
		values[i] = make([]int, len(tic.Content))
		for j, elem := range tic.Content {
			v, err := yamlInt(elem)
			if err != nil {
				return nil, malformed("tic %d value %d: %v", i, j, err)
			}
			values[i][j] = v
		}
	}
	return values, nil
}

// yamlInt accepts only integer scalars. Decoding straight into an int would
// turn null and empty values into 0.
func yamlInt(node *yaml.Node) (int, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return 0, fmt.Errorf("%q is not an integer", node.Value)
	}
	var v int
	if err := node.Decode(&v); err != nil {
		return 0, err
	}
	return v, nil
}
