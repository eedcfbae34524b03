// Package yamlnode bridges YAML syntax trees to ir.Node trees. The YAML
// parser is the external collaborator here: it tokenizes the document
// and resolves scalar types, and this package maps its node kinds, tags,
// anchors, and alias links onto the IR the codec consumes.
package yamlnode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tog-format/go-tog/ir"
)

// Parse parses YAML text into an ir.Node tree.
func Parse(data []byte) (*ir.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if doc.Kind == 0 {
		// empty input leaves the document node unset
		return ir.Null(), nil
	}
	return FromYAML(&doc)
}

// FromYAML converts a yaml.Node tree to an ir.Node tree.
func FromYAML(y *yaml.Node) (*ir.Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return ir.Null(), nil
		}
		return FromYAML(y.Content[0])

	case yaml.AliasNode:
		return ir.NewAlias(y.Value), nil

	case yaml.ScalarNode:
		node, err := scalarFromYAML(y)
		if err != nil {
			return nil, err
		}
		node.Anchor = y.Anchor
		return node, nil

	case yaml.SequenceNode:
		values := make([]*ir.Node, len(y.Content))
		for i, c := range y.Content {
			v, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		node := ir.FromSlice(values)
		node.Tag = customTag(y.Tag)
		node.Anchor = y.Anchor
		return node, nil

	case yaml.MappingNode:
		if len(y.Content)%2 != 0 {
			return nil, fmt.Errorf("yaml mapping node has odd content length %d", len(y.Content))
		}
		kvs := make([]ir.KeyVal, 0, len(y.Content)/2)
		for i := 0; i < len(y.Content); i += 2 {
			k, err := FromYAML(y.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := FromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			kvs = append(kvs, ir.KeyVal{Key: k, Val: v})
		}
		node := ir.FromKeyVals(kvs)
		node.Tag = customTag(y.Tag)
		node.Anchor = y.Anchor
		return node, nil
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d", y.Kind)
}

// customTag strips YAML tag syntax: builtin "!!" tags select scalar
// types and are not application tags; "!name" becomes "name".
func customTag(tag string) string {
	if strings.HasPrefix(tag, "!!") {
		return ""
	}
	return strings.TrimPrefix(tag, "!")
}

func scalarFromYAML(y *yaml.Node) (*ir.Node, error) {
	switch y.Tag {
	case "!!null":
		return ir.Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(y.Value))
		if err != nil {
			return nil, fmt.Errorf("yaml bool %q: %w", y.Value, err)
		}
		return ir.FromBool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(y.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("yaml int %q: %w", y.Value, err)
		}
		return ir.FromInt(i), nil
	case "!!float":
		switch strings.ToLower(y.Value) {
		case ".inf", "+.inf":
			return ir.FromFloat(math.Inf(1)), nil
		case "-.inf":
			return ir.FromFloat(math.Inf(-1)), nil
		case ".nan":
			return ir.FromFloat(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(y.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("yaml float %q: %w", y.Value, err)
		}
		return ir.FromFloat(f), nil
	case "!!str", "":
		return ir.FromString(y.Value), nil
	}
	// custom scalar tag: the lexical form decides the payload type
	node := ir.FromString(y.Value)
	node.ReType()
	node.Tag = customTag(y.Tag)
	if node.Tag == "" {
		// timestamp, binary, and other builtin scalar tags pass
		// through as strings
		return ir.FromString(y.Value), nil
	}
	return node, nil
}

// ToYAML converts an ir.Node tree back to a yaml.Node tree, suitable for
// yaml.Marshal. Alias nodes are linked to their anchor's yaml node.
func ToYAML(n *ir.Node) (*yaml.Node, error) {
	c := &converter{anchors: map[string]*yaml.Node{}}
	return c.toYAML(n)
}

type converter struct {
	anchors map[string]*yaml.Node
}

func (c *converter) toYAML(n *ir.Node) (*yaml.Node, error) {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	if n.Type == ir.AliasType {
		target, ok := c.anchors[n.Alias]
		if !ok {
			return nil, fmt.Errorf("alias *%s has no anchor definition", n.Alias)
		}
		return &yaml.Node{Kind: yaml.AliasNode, Value: n.Alias, Alias: target}, nil
	}

	y := &yaml.Node{Anchor: n.Anchor}
	switch n.Type {
	case ir.NullType:
		y.Kind = yaml.ScalarNode
		y.Tag = "!!null"
		y.Value = "null"
	case ir.BoolType:
		y.Kind = yaml.ScalarNode
		y.Tag = "!!bool"
		y.Value = strconv.FormatBool(n.Bool)
	case ir.NumberType:
		y.Kind = yaml.ScalarNode
		switch {
		case n.Int64 != nil:
			y.Tag = "!!int"
			y.Value = strconv.FormatInt(*n.Int64, 10)
		case n.Float64 != nil:
			y.Tag = "!!float"
			switch {
			case math.IsInf(*n.Float64, 1):
				y.Value = ".inf"
			case math.IsInf(*n.Float64, -1):
				y.Value = "-.inf"
			case math.IsNaN(*n.Float64):
				y.Value = ".nan"
			default:
				y.Value = strconv.FormatFloat(*n.Float64, 'g', -1, 64)
			}
		default:
			y.Tag = "!!float"
			y.Value = n.Number
		}
	case ir.StringType:
		y.Kind = yaml.ScalarNode
		y.Tag = "!!str"
		y.Value = n.String
	case ir.ArrayType:
		y.Kind = yaml.SequenceNode
		y.Tag = "!!seq"
		y.Content = make([]*yaml.Node, len(n.Values))
		if n.Anchor != "" {
			c.anchors[n.Anchor] = y
		}
		for i, v := range n.Values {
			yv, err := c.toYAML(v)
			if err != nil {
				return nil, err
			}
			y.Content[i] = yv
		}
	case ir.ObjectType:
		y.Kind = yaml.MappingNode
		y.Tag = "!!map"
		y.Content = make([]*yaml.Node, 0, 2*len(n.Fields))
		if n.Anchor != "" {
			c.anchors[n.Anchor] = y
		}
		for i := range n.Fields {
			yk, err := c.toYAML(n.Fields[i])
			if err != nil {
				return nil, err
			}
			yv, err := c.toYAML(n.Values[i])
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, yk, yv)
		}
	default:
		return nil, fmt.Errorf("unsupported ir node type %s", n.Type)
	}

	if n.Tag != "" {
		y.Tag = "!" + n.Tag
	}
	if n.Anchor != "" && n.Type.IsScalar() {
		c.anchors[n.Anchor] = y
	}
	return y, nil
}
