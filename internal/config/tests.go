package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

// TestTemplate is one entry of the "tests" mapping before substitution.
type TestTemplate struct {
	Name     string
	Template string
}

// Tests is the ordered "tests" mapping. Phases run in document order, so it
// is decoded member by member instead of into a map.
type Tests []TestTemplate

func (t *Tests) UnmarshalJSON(data []byte) error {
	*t = nil
	return domain.WalkObject(data, func(key string, raw json.RawMessage) error {
		var cmd string
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return fmt.Errorf("tests.%s: command must be a string", key)
		}
		*t = append(*t, TestTemplate{Name: key, Template: cmd})
		return nil
	})
}

func (t *Tests) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tests must be a mapping", node.Line)
	}
	*t = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: tests.%s: command must be a string", val.Line, key.Value)
		}
		*t = append(*t, TestTemplate{Name: key.Value, Template: val.Value})
	}
	return nil
}
