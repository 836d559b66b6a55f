package verify

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var errUnexpectedNode = errors.New("unexpected yaml node")

// composeFile is the subset of a docker compose document the checkers read.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image       string    `yaml:"image"`
	Environment keyValues `yaml:"environment"`
	Labels      keyValues `yaml:"labels"`
	Networks    nameSet   `yaml:"networks"`
}

// keyValues accepts both compose spellings: a list of KEY=VALUE strings or
// a mapping. Later list entries win.
type keyValues map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (kv *keyValues) UnmarshalYAML(node *yaml.Node) error {
	out := make(keyValues)
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: list entry at line %d", errUnexpectedNode, item.Line)
			}
			k, v, _ := strings.Cut(item.Value, "=")
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: value of %q at line %d", errUnexpectedNode, k.Value, v.Line)
			}
			out[k.Value] = v.Value
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("%w: scalar at line %d", errUnexpectedNode, node.Line)
		}
	default:
		return fmt.Errorf("%w: kind %d at line %d", errUnexpectedNode, node.Kind, node.Line)
	}
	*kv = out
	return nil
}

// nameSet accepts a list of names or a mapping keyed by name.
type nameSet map[string]struct{}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ns *nameSet) UnmarshalYAML(node *yaml.Node) error {
	out := make(nameSet)
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			out[item.Value] = struct{}{}
		}
	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			out[node.Content[i].Value] = struct{}{}
		}
	default:
		return fmt.Errorf("%w: kind %d at line %d", errUnexpectedNode, node.Kind, node.Line)
	}
	*ns = out
	return nil
}

func (ns nameSet) has(name string) bool {
	_, ok := ns[name]
	return ok
}

func readCompose(path string) (composeFile, error) {
	var doc composeFile
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
