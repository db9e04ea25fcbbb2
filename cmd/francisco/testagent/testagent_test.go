package testagent

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"francisco/internal/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	output string
	err    error
	input  string
}

func (f *fakeEngine) Execute(ctx context.Context, task agent.Task, emit func(agent.Event)) (*agent.Completion, error) {
	f.input = task.Input
	if f.err != nil {
		return nil, f.err
	}
	emit(agent.Event{Type: agent.EventToken, Data: f.output})
	return &agent.Completion{Output: f.output, Iterations: 1}, nil
}

func isolate(t *testing.T, eng agent.Engine) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	agentOptions = []agent.Option{agent.WithEngine(eng)}
	t.Cleanup(func() {
		agentOptions = nil
		contextJSON, stream = "", false
	})
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&errOut)
	Cmd.SetArgs(args)
	err := Cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTestAgentBadContext(t *testing.T) {
	eng := &fakeEngine{output: "unused"}
	isolate(t, eng)
	t.Setenv("OPENAI_API_KEY", "")

	_, _, err := execute(t, "--context", "{not json", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing --context")
	assert.Empty(t, eng.input)
}

func TestTestAgentEngineErrorPanel(t *testing.T) {
	isolate(t, &fakeEngine{err: errors.New("provider down")})

	_, stderr, err := execute(t, "hello")
	require.Error(t, err)
	assert.Equal(t, agent.KindEngineError, agent.Kind(err))
	assert.Contains(t, stderr, agent.KindEngineError)
	assert.Contains(t, stderr, "engine error: provider down")
}

func TestTestAgentSuccess(t *testing.T) {
	eng := &fakeEngine{output: "all done"}
	isolate(t, eng)

	stdout, _, err := execute(t, "--context", `{"repo":"francisco"}`, "ship", "it")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Input: ship it")
	assert.Contains(t, stdout, "francisco response")
	assert.Contains(t, stdout, "all done")
	assert.Contains(t, stdout, "invocation_id")
	assert.Equal(t, "Additional context: {\"repo\":\"francisco\"}\n\nship it", eng.input)
}
