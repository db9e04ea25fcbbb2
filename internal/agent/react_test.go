package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"francisco/internal/llm"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textResponse(t *testing.T, text string) *responses.Response {
	t.Helper()
	return decodeResponse(t, map[string]any{
		"id":     "resp_text",
		"object": "response",
		"model":  "gpt-5-mini",
		"status": "completed",
		"output": []any{map[string]any{
			"type":   "message",
			"id":     "msg_1",
			"role":   "assistant",
			"status": "completed",
			"content": []any{map[string]any{
				"type":        "output_text",
				"text":        text,
				"annotations": []any{},
			}},
		}},
		"usage": map[string]any{"input_tokens": 10, "output_tokens": 4, "total_tokens": 14},
	})
}

func callResponse(t *testing.T, name, args string) *responses.Response {
	t.Helper()
	return decodeResponse(t, map[string]any{
		"id":     "resp_call",
		"object": "response",
		"model":  "gpt-5-mini",
		"status": "completed",
		"output": []any{map[string]any{
			"type":      "function_call",
			"id":        "fc_1",
			"call_id":   "call_" + name,
			"name":      name,
			"arguments": args,
			"status":    "completed",
		}},
		"usage": map[string]any{"input_tokens": 7, "output_tokens": 3, "total_tokens": 10},
	})
}

func decodeResponse(t *testing.T, v map[string]any) *responses.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var resp responses.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	return &resp
}

// scriptedProvider replays responses in order and records each request.
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []*responses.Response
	err      error
	requests []llm.Request
}

func (p *scriptedProvider) Model() string { return "gpt-5-mini" }

func (p *scriptedProvider) ChatStream(ctx context.Context, req llm.Request, onToken func(string)) (*responses.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	resp := p.replies[0]
	p.replies = p.replies[1:]
	if onToken != nil {
		onToken("tok")
	}
	return resp, nil
}

type echoTool struct {
	calls int
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "echoes its input" }
func (e *echoTool) InputSchema() any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"text": map[string]any{"type": "string"}},
		"required":             []string{"text"},
		"additionalProperties": false,
	}
}
func (e *echoTool) Execute(ctx context.Context, input string) (string, error) {
	e.calls++
	return "echo: " + input, nil
}

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func TestReactEngineAnswersWithoutTools(t *testing.T) {
	p := &scriptedProvider{replies: []*responses.Response{textResponse(t, "done")}}
	e := NewReactEngine(p, nil)

	out, err := e.Execute(context.Background(), Task{Instructions: "sys", Input: "hi", MaxIterations: 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, "done", out.Output)
	assert.Equal(t, 1, out.Iterations)
	assert.EqualValues(t, 10, out.InputTokens)
	assert.EqualValues(t, 4, out.OutputTokens)
	require.Len(t, p.requests, 1)
	assert.Equal(t, "sys", p.requests[0].Instructions)
	assert.Empty(t, p.requests[0].Tools)
}

func TestReactEngineRunsToolCalls(t *testing.T) {
	tool := &echoTool{}
	p := &scriptedProvider{replies: []*responses.Response{
		callResponse(t, "echo", `{"text":"ping"}`),
		textResponse(t, "pong"),
	}}
	e := NewReactEngine(p, NewRegistry(tool))
	c := &collector{}

	out, err := e.Execute(context.Background(), Task{Input: "hi", MaxIterations: 5}, c.emit)
	require.NoError(t, err)

	assert.Equal(t, "pong", out.Output)
	assert.Equal(t, 2, out.Iterations)
	assert.EqualValues(t, 17, out.InputTokens)
	assert.Equal(t, 1, tool.calls)

	require.Len(t, p.requests, 2)
	require.Len(t, p.requests[0].Tools, 1)
	assert.Equal(t, "echo", p.requests[0].Tools[0].OfFunction.Name)
	// user message, function call, function call output
	assert.Len(t, p.requests[1].Input, 3)

	assert.Contains(t, c.types(), EventToolCall)
	assert.Contains(t, c.types(), EventToolResult)
	assert.Contains(t, c.types(), EventToken)
}

func TestReactEngineUnknownToolIsReportedToModel(t *testing.T) {
	p := &scriptedProvider{replies: []*responses.Response{
		callResponse(t, "missing", `{}`),
		textResponse(t, "recovered"),
	}}
	e := NewReactEngine(p, nil)

	out, err := e.Execute(context.Background(), Task{Input: "hi", MaxIterations: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Output)

	last := p.requests[1].Input[2]
	require.NotNil(t, last.OfFunctionCallOutput)
	assert.Equal(t, "call_missing", last.OfFunctionCallOutput.CallID)
}

func TestReactEngineIterationLimit(t *testing.T) {
	p := &scriptedProvider{replies: []*responses.Response{
		callResponse(t, "echo", `{"text":"a"}`),
		callResponse(t, "echo", `{"text":"b"}`),
		callResponse(t, "echo", `{"text":"c"}`),
	}}
	e := NewReactEngine(p, NewRegistry(&echoTool{}))

	_, err := e.Execute(context.Background(), Task{Input: "loop", MaxIterations: 2}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Len(t, p.requests, 2)
}

func TestReactEngineProviderError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("upstream unavailable")}
	e := NewReactEngine(p, nil)

	_, err := e.Execute(context.Background(), Task{Input: "hi", MaxIterations: 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestReactEngineHonorsCancellation(t *testing.T) {
	p := &scriptedProvider{replies: []*responses.Response{textResponse(t, "late")}}
	e := NewReactEngine(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, Task{Input: "hi", MaxIterations: 1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.requests)
}
