package persona

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Problem is one field-level violation.
type Problem struct {
	Path   string
	Reason string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Reason
}

// ValidationError lists every problem found in a persona document.
type ValidationError struct {
	Problems []Problem
}

func (v *ValidationError) Error() string {
	lines := make([]string, len(v.Problems))
	for i, p := range v.Problems {
		lines[i] = p.String()
	}
	return "persona validation failed:\n  - " + strings.Join(lines, "\n  - ")
}

// Has reports whether path was flagged.
func (v *ValidationError) Has(path string) bool {
	for _, p := range v.Problems {
		if p.Path == path {
			return true
		}
	}
	return false
}

const (
	reasonMissing  = "missing"
	reasonEmpty    = "must not be empty"
	reasonBlank    = "must not be blank"
	reasonPositive = "must be > 0"
)

// Parse decodes a YAML persona document and validates it.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing persona: %w", err)
	}
	return FromNode(&doc)
}

// FromNode validates an already parsed YAML tree. All problems are collected
// before returning, so a *ValidationError names every bad field at once.
func FromNode(root *yaml.Node) (*Config, error) {
	w := &walker{}
	cfg := w.config(root)
	if len(w.problems) > 0 {
		return nil, &ValidationError{Problems: w.problems}
	}
	return cfg, nil
}

type walker struct {
	problems []Problem
}

func (w *walker) add(path, reason string) {
	w.problems = append(w.problems, Problem{Path: path, Reason: reason})
}

func (w *walker) wrongType(path, want string, n *yaml.Node) {
	w.add(path, fmt.Sprintf("wrong type: expected %s, got %s", want, kindOf(n)))
}

func (w *walker) config(root *yaml.Node) *Config {
	n := resolve(root)
	if n != nil && n.Kind == 0 {
		n = nil
	}
	if n != nil && n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			n = nil
		} else {
			n = resolve(n.Content[0])
		}
	}

	cfg := &Config{
		PromptFile:    DefaultPromptFile,
		Model:         DefaultModel,
		MaxIterations: DefaultMaxIterations,
	}

	if isNull(n) {
		w.add("agent", reasonMissing)
		return cfg
	}
	if n.Kind != yaml.MappingNode {
		w.wrongType("(document)", "mapping", n)
		return cfg
	}
	agent, ok := w.section(n, "agent", "agent", true)
	if !ok {
		return cfg
	}

	cfg.Name = w.str(agent, "name", "agent.name", true)
	cfg.Description = w.str(agent, "description", "agent.description", true)
	if v := w.str(agent, "prompt_file", "agent.prompt_file", false); v != "" {
		cfg.PromptFile = v
	}
	if v := w.str(agent, "model", "agent.model", false); v != "" {
		cfg.Model = v
	}
	if v, ok := w.integer(agent, "max_iterations", "agent.max_iterations"); ok {
		if v <= 0 {
			w.add("agent.max_iterations", reasonPositive)
		} else {
			cfg.MaxIterations = v
		}
	}

	if s, ok := w.section(agent, "personality", "agent.personality", true); ok {
		cfg.Personality.Traits = w.list(s, "primary_traits", "agent.personality.primary_traits", true)
		cfg.Personality.CommunicationStyle = w.stringOrList(s, "communication_style", "agent.personality.communication_style")
	}

	if s, ok := w.section(agent, "capabilities", "agent.capabilities", true); ok {
		cfg.Capabilities.Languages = dedupe(w.list(s, "programming_languages", "agent.capabilities.programming_languages", true))
		cfg.Capabilities.Frameworks = dedupe(w.list(s, "frameworks_and_tools", "agent.capabilities.frameworks_and_tools", false))
		cfg.Capabilities.ProjectTypes = dedupe(w.list(s, "project_types", "agent.capabilities.project_types", false))
	}

	strategyKey := "strategy"
	if isNull(lookup(agent, strategyKey)) && !isNull(lookup(agent, "self_replication_strategy")) {
		strategyKey = "self_replication_strategy"
	}
	if s, ok := w.section(agent, strategyKey, "agent."+strategyKey, true); ok {
		path := "agent." + strategyKey
		cfg.Strategy.Approach = w.str(s, "approach", path+".approach", false)
		cfg.Strategy.Steps = w.steps(s, path)
		targetsKey := "targets"
		if isNull(lookup(s, targetsKey)) {
			targetsKey = "replication_targets"
		}
		cfg.Strategy.Targets = w.list(s, targetsKey, path+"."+targetsKey, false)
		cfg.Strategy.QualityStandards = w.list(s, "quality_standards", path+".quality_standards", false)
	}

	if s, ok := w.section(agent, "core_objectives", "agent.core_objectives", false); ok {
		cfg.CoreObjectives.PrimaryGoals = w.list(s, "primary_goals", "agent.core_objectives.primary_goals", false)
		cfg.CoreObjectives.SecondaryGoals = w.list(s, "secondary_goals", "agent.core_objectives.secondary_goals", false)
	}

	if s, ok := w.section(agent, "working_principles", "agent.working_principles", false); ok {
		cfg.WorkingPrinciples.CodeQuality = w.list(s, "code_quality", "agent.working_principles.code_quality", false)
		cfg.WorkingPrinciples.ProjectStructure = w.list(s, "project_structure", "agent.working_principles.project_structure", false)
		cfg.WorkingPrinciples.DevelopmentWorkflow = w.list(s, "development_workflow", "agent.working_principles.development_workflow", false)
	}

	if s, ok := w.section(agent, "interaction_guidelines", "agent.interaction_guidelines", false); ok {
		cfg.InteractionGuidelines.WhenInvoked = w.list(s, "when_invoked", "agent.interaction_guidelines.when_invoked", false)
		cfg.InteractionGuidelines.Communication = w.list(s, "communication", "agent.interaction_guidelines.communication", false)
	}

	cfg.SuccessMetrics = w.metrics(agent, "success_metrics", "agent.success_metrics")
	cfg.Limitations = w.list(agent, "limitations_and_boundaries", "agent.limitations_and_boundaries", true)

	return cfg
}

// section returns the mapping stored under key.
func (w *walker) section(parent *yaml.Node, key, path string, required bool) (*yaml.Node, bool) {
	n := lookup(parent, key)
	if isNull(n) {
		if required {
			w.add(path, reasonMissing)
		}
		return nil, false
	}
	if n.Kind != yaml.MappingNode {
		w.wrongType(path, "mapping", n)
		return nil, false
	}
	return n, true
}

func (w *walker) str(parent *yaml.Node, key, path string, required bool) string {
	n := lookup(parent, key)
	if isNull(n) {
		if required {
			w.add(path, reasonMissing)
		}
		return ""
	}
	if !isString(n) {
		w.wrongType(path, "string", n)
		return ""
	}
	if required && strings.TrimSpace(n.Value) == "" {
		w.add(path, reasonBlank)
		return ""
	}
	return n.Value
}

func (w *walker) integer(parent *yaml.Node, key, path string) (int, bool) {
	n := lookup(parent, key)
	if isNull(n) {
		return 0, false
	}
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		w.wrongType(path, "integer", n)
		return 0, false
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
	if err != nil {
		w.add(path, "not a valid integer")
		return 0, false
	}
	return int(v), true
}

// list reads a sequence of non-blank strings.
func (w *walker) list(parent *yaml.Node, key, path string, required bool) []string {
	n := lookup(parent, key)
	if isNull(n) {
		if required {
			w.add(path, reasonMissing)
		}
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		w.wrongType(path, "list of strings", n)
		return nil
	}
	if required && len(n.Content) == 0 {
		w.add(path, reasonEmpty)
		return nil
	}
	return w.items(n, path)
}

func (w *walker) items(seq *yaml.Node, path string) []string {
	out := make([]string, 0, len(seq.Content))
	for i, item := range seq.Content {
		item = resolve(item)
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if !isString(item) {
			w.wrongType(itemPath, "string", item)
			continue
		}
		if strings.TrimSpace(item.Value) == "" {
			w.add(itemPath, reasonBlank)
			continue
		}
		out = append(out, item.Value)
	}
	return out
}

// steps reads strategy.steps, or strategy.phases given as a mapping of
// phase number to description, ordered by number.
func (w *walker) steps(strategy *yaml.Node, path string) []string {
	n := lookup(strategy, "phases")
	if isNull(n) || !isNull(lookup(strategy, "steps")) {
		return w.list(strategy, "steps", path+".steps", true)
	}
	path += ".phases"
	if n.Kind != yaml.MappingNode {
		w.wrongType(path, "mapping of number to description", n)
		return nil
	}

	type phase struct {
		num  int64
		text string
	}
	var phases []phase
	for _, kv := range pairs(n) {
		itemPath := path + "." + kv.key.Value
		num, err := strconv.ParseInt(kv.key.Value, 10, 64)
		if err != nil {
			w.add(itemPath, "wrong type: expected integer key, got "+kindOf(kv.key))
			continue
		}
		if !isString(kv.value) {
			w.wrongType(itemPath, "string", kv.value)
			continue
		}
		if strings.TrimSpace(kv.value.Value) == "" {
			w.add(itemPath, reasonBlank)
			continue
		}
		phases = append(phases, phase{num: num, text: kv.value.Value})
	}
	if len(pairs(n)) == 0 {
		w.add(path, reasonEmpty)
		return nil
	}

	sort.SliceStable(phases, func(i, j int) bool { return phases[i].num < phases[j].num })
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = p.text
	}
	return out
}

func (w *walker) stringOrList(parent *yaml.Node, key, path string) []string {
	n := lookup(parent, key)
	switch {
	case isNull(n):
		return nil
	case isString(n):
		if strings.TrimSpace(n.Value) == "" {
			return nil
		}
		return []string{n.Value}
	case n.Kind == yaml.SequenceNode:
		return w.items(n, path)
	default:
		w.wrongType(path, "string or list of strings", n)
		return nil
	}
}

// metrics accepts either a name -> description mapping or a plain list.
func (w *walker) metrics(parent *yaml.Node, key, path string) []Metric {
	n := lookup(parent, key)
	if isNull(n) {
		w.add(path, reasonMissing)
		return nil
	}

	var out []Metric
	switch n.Kind {
	case yaml.MappingNode:
		for _, kv := range pairs(n) {
			name := kv.key.Value
			val := kv.value
			itemPath := path + "." + name
			if !isString(val) {
				w.wrongType(itemPath, "string", val)
				continue
			}
			if strings.TrimSpace(val.Value) == "" {
				w.add(itemPath, reasonBlank)
				continue
			}
			out = append(out, Metric{Name: name, Description: val.Value})
		}
	case yaml.SequenceNode:
		for _, d := range w.items(n, path) {
			out = append(out, Metric{Description: d})
		}
	default:
		w.wrongType(path, "mapping of name to description", n)
		return nil
	}

	if (n.Kind == yaml.MappingNode && len(pairs(n)) == 0) || len(n.Content) == 0 {
		w.add(path, reasonEmpty)
	}
	return out
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for _, kv := range pairs(m) {
		if kv.key.Value == key {
			return kv.value
		}
	}
	return nil
}

type pair struct {
	key, value *yaml.Node
}

// maxMergeDepth bounds nested "<<" merges.
const maxMergeDepth = 16

// pairs returns the entries of a mapping in document order with "<<" merge
// keys expanded. Keys written in the mapping itself win over merged ones,
// and earlier merge sources win over later ones.
func pairs(m *yaml.Node) []pair {
	return mergedPairs(resolve(m), 0)
}

func mergedPairs(m *yaml.Node, depth int) []pair {
	if m == nil || m.Kind != yaml.MappingNode || depth > maxMergeDepth {
		return nil
	}

	explicit := make(map[string]bool, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !isMergeKey(m.Content[i]) {
			explicit[m.Content[i].Value] = true
		}
	}

	seen := make(map[string]bool, len(explicit))
	var out []pair
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], resolve(m.Content[i+1])
		if !isMergeKey(k) {
			out = append(out, pair{key: k, value: v})
			seen[k.Value] = true
			continue
		}

		var sources []*yaml.Node
		switch {
		case v == nil:
		case v.Kind == yaml.SequenceNode:
			for _, src := range v.Content {
				sources = append(sources, resolve(src))
			}
		default:
			sources = append(sources, v)
		}
		for _, src := range sources {
			for _, kv := range mergedPairs(src, depth+1) {
				if explicit[kv.key.Value] || seen[kv.key.Value] {
					continue
				}
				out = append(out, kv)
				seen[kv.key.Value] = true
			}
		}
	}
	return out
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && (k.Tag == "!!merge" || (k.Value == "<<" && k.Style == 0))
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func isString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}

func kindOf(n *yaml.Node) string {
	switch {
	case n == nil:
		return "nothing"
	case n.Kind == yaml.MappingNode:
		return "mapping"
	case n.Kind == yaml.SequenceNode:
		return "list"
	}
	switch n.Tag {
	case "!!str":
		return "string"
	case "!!int":
		return "integer"
	case "!!float":
		return "float"
	case "!!bool":
		return "boolean"
	case "!!null":
		return "null"
	}
	return strings.TrimPrefix(n.Tag, "!!")
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
