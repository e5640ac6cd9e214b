package resultmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(keyString(k))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, fmt.Errorf("resultmap: key %v: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the map as an ordered mapping node. Floats always
// carry a decimal point or exponent so they read back as floats.
func (m *Map) MarshalYAML() (any, error) {
	return m.node()
}

func (m *Map) node() (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range m.All() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: keyString(k), Tag: "!!str"}
		if _, ok := k.(int); ok {
			key.Tag = "!!int"
		}
		val, err := valueNode(v)
		if err != nil {
			return nil, fmt.Errorf("resultmap: key %v: %w", k, err)
		}
		n.Content = append(n.Content, key, val)
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Map:
		return val.node()
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(val)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(val)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val, Style: yaml.DoubleQuotedStyle}, nil
	}
	if items, ok := asSlice(v); ok {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, item := range items {
			n, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// UnmarshalYAML reads an ordered mapping. Keys made of digits become int
// keys; nested mappings become Maps and sequences become []any.
func (m *Map) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("resultmap: line %d: expected a mapping", n.Line)
	}
	if m.vals == nil {
		m.vals = make(map[any]any)
	}
	for i := 0; i < len(n.Content)-1; i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		// JSON object keys are always strings; digits still mean an index.
		var key any = kn.Value
		if iv, err := strconv.Atoi(kn.Value); err == nil {
			key = iv
		}
		val, err := decodeValue(vn)
		if err != nil {
			return err
		}
		m.Set(key, val)
	}
	return nil
}

func decodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		sub := New()
		if err := sub.UnmarshalYAML(n); err != nil {
			return nil, err
		}
		return sub, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			var iv int
			if err := n.Decode(&iv); err != nil {
				return nil, err
			}
			return iv, nil
		case "!!float":
			var fv float64
			if err := n.Decode(&fv); err != nil {
				return nil, err
			}
			return fv, nil
		default:
			return n.Value, nil
		}
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	default:
		return nil, fmt.Errorf("resultmap: line %d: unsupported YAML node", n.Line)
	}
}

// Decode reads a YAML or JSON document into a Map.
func Decode(data []byte) (*Map, error) {
	m := New()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("resultmap: %w", err)
	}
	return m, nil
}
