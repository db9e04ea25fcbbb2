// Package persona models the agent persona document: who the agent is, what it
// can do and how it should work. Documents are YAML with a single root key,
// "agent", and are validated field by field before anything else starts.
package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultModel         = "gpt-5-mini"
	DefaultMaxIterations = 10
	DefaultPromptFile    = "prompt.txt"
)

// Config is a validated persona. Values are never mutated after Parse returns.
type Config struct {
	Name          string
	Description   string
	PromptFile    string
	Model         string
	MaxIterations int

	Personality           Personality
	Capabilities          Capabilities
	Strategy              Strategy
	CoreObjectives        CoreObjectives
	WorkingPrinciples     WorkingPrinciples
	InteractionGuidelines InteractionGuidelines
	SuccessMetrics        []Metric
	Limitations           []string

	// Source is the file the persona was loaded from, if any.
	Source string
}

type Personality struct {
	Traits             []string
	CommunicationStyle []string
}

// Capabilities entries are sets: duplicates are collapsed on load and the
// first occurrence fixes the order.
type Capabilities struct {
	Languages    []string `json:"programming_languages"`
	Frameworks   []string `json:"frameworks_and_tools"`
	ProjectTypes []string `json:"project_types"`
}

type Strategy struct {
	Approach         string
	Steps            []string
	Targets          []string
	QualityStandards []string
}

type CoreObjectives struct {
	PrimaryGoals   []string
	SecondaryGoals []string
}

type WorkingPrinciples struct {
	CodeQuality         []string
	ProjectStructure    []string
	DevelopmentWorkflow []string
}

type InteractionGuidelines struct {
	WhenInvoked   []string
	Communication []string
}

// Metric is a named success criterion. Name is empty when the document lists
// metrics as plain strings.
type Metric struct {
	Name        string
	Description string
}

// Load reads and validates the persona document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// PromptPath resolves PromptFile against the directory of the persona file.
// It returns "" for personas that were not loaded from disk and name a
// relative prompt file.
func (c *Config) PromptPath() string {
	if filepath.IsAbs(c.PromptFile) {
		return c.PromptFile
	}
	if c.Source == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.Source), c.PromptFile)
}

func (c *Config) String() string {
	return c.Name + ": " + c.Description
}

// Summary is a human readable overview used by the status tool and the CLI.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	fmt.Fprintf(&b, "Model: %s\n", c.Model)
	fmt.Fprintf(&b, "Max Iterations: %d\n", c.MaxIterations)

	b.WriteString("\nCapabilities:\n")
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(c.Capabilities.Languages, ", "))
	fmt.Fprintf(&b, "Frameworks & Tools: %d\n", len(c.Capabilities.Frameworks))
	fmt.Fprintf(&b, "Project Types: %d\n", len(c.Capabilities.ProjectTypes))

	b.WriteString("\nStrategy:\n")
	if c.Strategy.Approach != "" {
		fmt.Fprintf(&b, "Approach: %s\n", c.Strategy.Approach)
	}
	fmt.Fprintf(&b, "Steps: %d\n", len(c.Strategy.Steps))
	fmt.Fprintf(&b, "Success Metrics: %d\n", len(c.SuccessMetrics))
	fmt.Fprintf(&b, "Limitations: %d", len(c.Limitations))
	return b.String()
}
