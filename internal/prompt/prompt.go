// Package prompt renders a persona into a system prompt. Templates are plain
// text with {placeholder} tokens; each placeholder maps to a fixed projection
// of the persona, so the set of names a template may use is closed.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"francisco/internal/persona"
)

// RenderError reports a template that cannot be rendered.
type RenderError struct {
	Placeholder string
	Offset      int
	Reason      string
}

func (e *RenderError) Error() string {
	if e.Placeholder != "" {
		return "unresolved placeholder " + e.Placeholder
	}
	return fmt.Sprintf("invalid template at offset %d: %s", e.Offset, e.Reason)
}

type projection func(*persona.Config) string

var projections = map[string]projection{
	"name":                       func(c *persona.Config) string { return c.Name },
	"description":                func(c *persona.Config) string { return c.Description },
	"model":                      func(c *persona.Config) string { return c.Model },
	"max_iterations":             func(c *persona.Config) string { return strconv.Itoa(c.MaxIterations) },
	"personality":                personality,
	"traits":                     func(c *persona.Config) string { return block("personality_traits", c.Personality.Traits) },
	"communication_style":        func(c *persona.Config) string { return block("communication_style", c.Personality.CommunicationStyle) },
	"capabilities":               capabilities,
	"programming_languages":      func(c *persona.Config) string { return block("programming_languages", c.Capabilities.Languages) },
	"frameworks_and_tools":       func(c *persona.Config) string { return block("frameworks_and_tools", c.Capabilities.Frameworks) },
	"project_types":              func(c *persona.Config) string { return block("project_types", c.Capabilities.ProjectTypes) },
	"strategy":                   strategy,
	"self_replication_strategy":  selfReplicationStrategy,
	"core_objectives":            coreObjectives,
	"working_principles":         workingPrinciples,
	"interaction_guidelines":     interactionGuidelines,
	"success_metrics":            successMetrics,
	"limitations_and_boundaries": func(c *persona.Config) string { return block("limitations_and_boundaries", c.Limitations) },
}

// Placeholders returns the supported placeholder names in sorted order.
func Placeholders() []string {
	names := make([]string, 0, len(projections))
	for name := range projections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render substitutes every {placeholder} in tmpl. "{{" and "}}" produce
// literal braces. Rendering is deterministic for a given (tmpl, cfg) pair.
func Render(tmpl string, cfg *persona.Config) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch {
		case ch == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &RenderError{Offset: i, Reason: "unterminated placeholder"}
			}
			name := strings.TrimSpace(tmpl[i+1 : i+1+end])
			if name == "" {
				return "", &RenderError{Offset: i, Reason: "empty placeholder"}
			}
			proj, ok := projections[name]
			if !ok {
				return "", &RenderError{Placeholder: name, Offset: i}
			}
			b.WriteString(proj(cfg))
			i += end + 1
		default:
			b.WriteByte(ch)
		}
	}

	return b.String(), nil
}
