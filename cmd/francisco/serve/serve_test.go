package serve

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeRejectsUnknownTransport(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Cleanup(func() { transport, addr = "", "" })

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs([]string{"--transport", "carrier-pigeon"})

	err := Cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid transport "carrier-pigeon"`)
	assert.NotContains(t, err.Error(), "api key")
}

func TestCheckTransport(t *testing.T) {
	assert.NoError(t, checkTransport("stdio"))
	assert.NoError(t, checkTransport("http"))
	assert.ErrorContains(t, checkTransport(""), "want stdio or http")
	assert.ErrorContains(t, checkTransport("HTTP"), "invalid transport")
}
