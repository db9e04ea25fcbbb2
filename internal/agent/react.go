package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"francisco/internal/llm"
	"francisco/internal/trace"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Task is one unit of work for an Engine.
type Task struct {
	Instructions  string
	Input         string
	MaxIterations int
}

// Completion is what an Engine produced for a Task.
type Completion struct {
	Output       string
	Model        string
	Iterations   int
	InputTokens  int64
	OutputTokens int64
}

const defaultMaxIterations = 10

// Engine is the external reasoning loop the Agent delegates to.
type Engine interface {
	Execute(ctx context.Context, task Task, emit func(Event)) (*Completion, error)
}

// ReactEngine implements a ReAct (Reason + Act) loop on top of an
// llm.Provider. Every iteration is one model call; tool calls are executed
// and fed back until the model answers without calling a tool or the
// iteration budget runs out.
type ReactEngine struct {
	provider llm.Provider
	registry *Registry
	tools    []responses.ToolUnionParam
}

func NewReactEngine(provider llm.Provider, registry *Registry) *ReactEngine {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &ReactEngine{
		provider: provider,
		registry: registry,
	}

	for _, t := range registry.All() {
		schema, _ := t.InputSchema().(map[string]any)
		r.tools = append(r.tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  schema,
				Strict:      openai.Bool(true),
			},
		})
	}

	return r
}

func (r *ReactEngine) Execute(ctx context.Context, task Task, emit func(Event)) (*Completion, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	limit := task.MaxIterations
	if limit <= 0 {
		limit = defaultMaxIterations
	}

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(task.Input, "user"),
	}
	out := &Completion{Model: r.provider.Model()}

	for out.Iterations < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		llmCtx, span := trace.Tracer().Start(ctx, "llm.react",
			oteltrace.WithAttributes(attribute.Int("llm.iteration", out.Iterations)),
		)

		resp, err := r.provider.ChatStream(llmCtx, llm.Request{
			Instructions: task.Instructions,
			Input:        input,
			Tools:        r.tools,
		}, func(token string) {
			emit(Event{Type: EventToken, Data: token})
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}

		span.SetAttributes(
			attribute.String("llm.model", string(resp.Model)),
			attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
			attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
		)
		span.End()

		out.Iterations++
		out.InputTokens += resp.Usage.InputTokens
		out.OutputTokens += resp.Usage.OutputTokens
		if resp.Model != "" {
			out.Model = string(resp.Model)
		}

		input = append(input, outputToInput(resp.Output)...)

		var calls []responses.ResponseOutputItemUnion
		for _, item := range resp.Output {
			if item.Type == "function_call" {
				calls = append(calls, item)
			}
		}

		if len(calls) == 0 {
			out.Output = outputText(resp.Output)
			return out, nil
		}

		input = append(input, r.act(ctx, calls, emit)...)
	}

	return nil, fmt.Errorf("%w after %d iterations", ErrIterationLimit, out.Iterations)
}

// act executes tool calls in parallel and returns their results as input
// items for the next turn. Tool failures are reported to the model, not to
// the caller.
func (r *ReactEngine) act(ctx context.Context, calls []responses.ResponseOutputItemUnion, emit func(Event)) []responses.ResponseInputItemUnionParam {
	for _, call := range calls {
		fc := call.AsFunctionCall()
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"name":      fc.Name,
			"arguments": fc.Arguments,
		}})
	}

	var wg sync.WaitGroup
	results := make([]responses.ResponseInputItemUnionParam, len(calls))

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call responses.ResponseOutputItemUnion) {
			defer wg.Done()
			fc := call.AsFunctionCall()

			content := r.invoke(ctx, fc.Name, fc.Arguments)
			results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, content)
			emit(Event{Type: EventToolResult, Data: map[string]string{
				"name":    fc.Name,
				"content": content,
			}})
		}(i, call)
	}

	wg.Wait()
	return results
}

func (r *ReactEngine) invoke(ctx context.Context, name, arguments string) string {
	tool, ok := r.registry.Get(name)
	if !ok {
		slog.Warn("unknown tool call", "name", name)
		return "error: unknown tool"
	}

	result, err := withTrace(tool).Execute(ctx, arguments)
	if err != nil {
		slog.Warn("tool execution failed", "name", name, "error", err)
		return "error: " + err.Error()
	}
	return result
}

func outputToInput(output []responses.ResponseOutputItemUnion) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, item := range output {
		switch item.Type {
		case "message":
			v := item.AsMessage().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfOutputMessage: &v})
		case "function_call":
			v := item.AsFunctionCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfFunctionCall: &v})
		case "reasoning":
			v := item.AsReasoning().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfReasoning: &v})
		default:
			slog.Debug("skipping output item", "type", item.Type)
		}
	}
	return items
}

func outputText(output []responses.ResponseOutputItemUnion) string {
	var b strings.Builder
	for _, item := range output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.AsMessage().Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}
