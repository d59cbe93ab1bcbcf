package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// sequence returns the items of the sequence stored under key in a YAML
// document. A document whose root is itself a sequence is accepted too.
func sequence(data []byte, key string) ([]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return root.Content, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				v := root.Content[i+1]
				if v.Kind != yaml.SequenceNode {
					return nil, fmt.Errorf("line %d: %q must be a list", v.Line, key)
				}
				return v.Content, nil
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or a list", root.Line)
	}
}

// position is where an entry starts in its YAML file.
type position struct {
	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

func (p *position) set(n *yaml.Node) {
	p.Line, p.Column = n.Line, n.Column
}
