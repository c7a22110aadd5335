package domain

import (
	"fmt"
	"strings"
)

const (
	PlaceholderScript       = "zinggScript"
	PlaceholderPropertyFile = "propertyFile"
)

// TemplateError reports a phase command template that cannot be built.
type TemplateError struct {
	Phase  string
	Key    string
	Reason string
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("phase %q: placeholder {%s}: %s", e.Phase, e.Key, e.Reason)
	}
	return fmt.Sprintf("phase %q: %s", e.Phase, e.Reason)
}

// CommandBuilder substitutes {key} placeholders in phase command templates.
// "{{" and "}}" produce literal braces. A known key with an empty value
// substitutes the empty string.
type CommandBuilder struct {
	values map[string]string
}

func NewCommandBuilder(script, propertyFile string) *CommandBuilder {
	return &CommandBuilder{values: map[string]string{
		PlaceholderScript:       script,
		PlaceholderPropertyFile: propertyFile,
	}}
}

// Build validates every placeholder in template before substituting any of
// them.
func (b *CommandBuilder) Build(phase, template string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Phase: phase, Reason: "unterminated '{'"}
			}
			key := template[i+1 : i+1+end]
			val, ok := b.values[key]
			if !ok {
				return "", &TemplateError{Phase: phase, Key: key, Reason: "unknown placeholder"}
			}
			out.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				out.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Phase: phase, Reason: "single '}' in command"}
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}
