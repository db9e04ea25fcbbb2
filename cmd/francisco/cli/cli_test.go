package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("FRANCISCO_CONFIG_PATH", "/env/persona.yaml")

	settings := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(settings, []byte("log_level = \"warn\"\n[llm]\nmodel = \"gpt-4o\"\n"), 0o644))

	s, err := Flags{SettingsPath: settings}.Settings()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", s.LLM.APIKey)
	assert.Equal(t, "/env/persona.yaml", s.Persona)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "gpt-4o", s.LLM.Model)

	s, err = Flags{SettingsPath: settings, APIKey: "sk-flag", PersonaPath: "flag.yaml", LogLevel: "debug"}.Settings()
	require.NoError(t, err)
	assert.Equal(t, "sk-flag", s.LLM.APIKey)
	assert.Equal(t, "flag.yaml", s.Persona)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestAppWithBuiltinPersona(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FRANCISCO_CONFIG_PATH", "")

	app, err := Flags{}.App()
	require.NoError(t, err)
	assert.Equal(t, "francisco", app.Persona.Name)
}

func TestPanelsContainContent(t *testing.T) {
	out := InfoPanel("Title", "body text")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
}
