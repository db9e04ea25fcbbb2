// Package bootstrap assembles the startup chain: settings, persona, prompt
// template, rendered prompt and engine configuration. Everything it returns
// is built once and is read-only afterwards.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"francisco/configs"
	"francisco/internal/agent"
	"francisco/internal/config"
	"francisco/internal/persona"
	"francisco/internal/prompt"
	"francisco/internal/tools"
)

type App struct {
	Settings *config.Config
	Persona  *persona.Config
	Template string
	Prompt   string
	Engine   agent.EngineConfig
	Tools    []agent.Tool
}

// Build runs every startup step that does not need credentials. Validation
// and render errors are returned unchanged so callers can match them.
func Build(s *config.Config) (*App, error) {
	p, err := LoadPersona(s.Persona)
	if err != nil {
		return nil, err
	}

	tmpl, err := LoadTemplate(p)
	if err != nil {
		return nil, err
	}

	rendered, err := prompt.Render(tmpl, p)
	if err != nil {
		return nil, err
	}

	toolset, err := Tools(s)
	if err != nil {
		return nil, err
	}

	slog.Debug("persona ready", "name", p.Name, "source", p.Source, "prompt_chars", len(rendered))

	return &App{
		Settings: s,
		Persona:  p,
		Template: tmpl,
		Prompt:   rendered,
		Engine:   EngineConfig(s, p),
		Tools:    toolset,
	}, nil
}

// NewAgent binds the rendered prompt to the engine. This is where missing
// credentials surface.
func (a *App) NewAgent(opts ...agent.Option) (*agent.Agent, error) {
	opts = append([]agent.Option{agent.WithTools(a.Tools...)}, opts...)
	return agent.Initialize(a.Prompt, a.Engine, opts...)
}

// LoadPersona reads the persona at path, or the built-in one when path is
// empty.
func LoadPersona(path string) (*persona.Config, error) {
	if path == "" {
		slog.Debug("using built-in persona")
		return persona.Parse(configs.Persona)
	}
	return persona.Load(path)
}

// LoadTemplate returns the prompt template the persona points at. Personas
// without a file on disk use the built-in template.
func LoadTemplate(p *persona.Config) (string, error) {
	path := p.PromptPath()
	if path == "" {
		return configs.Prompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return string(data), nil
}

// EngineConfig merges settings over persona defaults. Model and iteration
// overrides from settings win when set.
func EngineConfig(s *config.Config, p *persona.Config) agent.EngineConfig {
	cfg := agent.EngineConfig{
		APIKey:        s.LLM.APIKey,
		BaseURL:       s.LLM.BaseURL,
		Model:         p.Model,
		MaxIterations: p.MaxIterations,
		Timeout:       s.LLM.Timeout.Duration,
	}
	if s.LLM.Model != "" {
		cfg.Model = s.LLM.Model
	}
	if s.LLM.MaxIterations > 0 {
		cfg.MaxIterations = s.LLM.MaxIterations
	}
	return cfg
}

// Tools returns the tools enabled by the settings.
func Tools(s *config.Config) ([]agent.Tool, error) {
	var out []agent.Tool
	if key := s.Services.Brave.APIKey; key != "" {
		web, err := tools.NewWeb(key)
		if err != nil {
			return nil, err
		}
		out = append(out, web)
	}
	return out, nil
}
