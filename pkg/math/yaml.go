package math

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a three-element sequence or an {x, y, z} mapping.
func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var xs []float32
		if err := node.Decode(&xs); err != nil {
			return err
		}
		if len(xs) != 3 {
			return fmt.Errorf("line %d: vector needs 3 components, got %d", node.Line, len(xs))
		}
		*v = Vec3{xs[0], xs[1], xs[2]}
		return nil
	case yaml.MappingNode:
		var m struct {
			X, Y, Z float32
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		*v = Vec3{m.X, m.Y, m.Z}
		return nil
	default:
		return fmt.Errorf("line %d: cannot decode %q as a vector", node.Line, node.Value)
	}
}

// MarshalYAML writes the vector as a flow sequence.
func (v Vec3) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, c := range []float32{v.X, v.Y, v.Z} {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(float64(c), 'g', -1, 32),
		})
	}
	return node, nil
}
