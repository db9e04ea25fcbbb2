// Package cli holds what the francisco subcommands share: persistent flags,
// settings loading and terminal styles.
package cli

import (
	"fmt"

	"francisco/internal/bootstrap"
	"francisco/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// Version is set at build time with -ldflags "-X francisco/cmd/francisco/cli.Version=...".
var Version = "0.1.0"

// Flags are the persistent flags of the root command.
type Flags struct {
	PersonaPath  string
	SettingsPath string
	APIKey       string
	LogLevel     string
}

var Global Flags

// Settings loads the settings file and environment, then applies flags.
func (f Flags) Settings() (*config.Config, error) {
	s, err := config.Load(f.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if f.PersonaPath != "" {
		s.Persona = f.PersonaPath
	}
	if f.APIKey != "" {
		s.LLM.APIKey = f.APIKey
	}
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
	return s, nil
}

// App loads settings and runs the startup chain up to the rendered prompt.
func (f Flags) App() (*bootstrap.App, error) {
	s, err := f.Settings()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(s)
}

var (
	colorBlue  = lipgloss.Color("39")
	colorGreen = lipgloss.Color("82")
	colorRed   = lipgloss.Color("196")
	colorGray  = lipgloss.Color("250")

	DimStyle = lipgloss.NewStyle().Foreground(colorGray)
)

func panel(title, body string, color lipgloss.Color) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)
	return box.Render(head + "\n\n" + body)
}

func InfoPanel(title, body string) string    { return panel(title, body, colorBlue) }
func SuccessPanel(title, body string) string { return panel(title, body, colorGreen) }
func ErrorPanel(title, body string) string   { return panel(title, body, colorRed) }
