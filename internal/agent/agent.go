package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"francisco/internal/llm"
	"francisco/internal/trace"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type EventType string

const (
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Request is one invocation of the agent.
type Request struct {
	Input   string
	Context map[string]any
}

type Result struct {
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata"`
}

// EngineConfig holds what the reasoning engine needs to start.
type EngineConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxIterations int
	Timeout       time.Duration
}

type Option func(*Agent)

// WithEngine replaces the default ReAct engine.
func WithEngine(e Engine) Option {
	return func(a *Agent) { a.engine = e }
}

// WithTools registers tools for the default engine. Ignored when WithEngine
// is also given.
func WithTools(tools ...Tool) Option {
	return func(a *Agent) {
		for _, t := range tools {
			a.registry.Register(t)
		}
	}
}

// Agent binds a rendered system prompt to a reasoning engine. It holds no
// per-call state and is safe for concurrent use.
type Agent struct {
	prompt   string
	cfg      EngineConfig
	engine   Engine
	registry *Registry
}

// Initialize validates cfg and builds the agent. Nothing is sent to the
// model provider here.
func Initialize(prompt string, cfg EngineConfig, opts ...Option) (*Agent, error) {
	var missing []string
	if strings.TrimSpace(prompt) == "" {
		missing = append(missing, "prompt")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "api key")
	}
	if cfg.Model == "" {
		missing = append(missing, "model")
	}
	if cfg.MaxIterations <= 0 {
		missing = append(missing, "max_iterations")
	}
	if len(missing) > 0 {
		return nil, &EngineInitError{Missing: missing}
	}

	a := &Agent{
		prompt:   prompt,
		cfg:      cfg,
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.engine == nil {
		provider := llm.NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model)
		a.engine = NewReactEngine(provider, a.registry)
	}

	slog.Info("agent initialized",
		"model", cfg.Model,
		"max_iterations", cfg.MaxIterations,
		"timeout", cfg.Timeout.String(),
		"tools", a.registry.Len(),
	)
	return a, nil
}

func (a *Agent) Prompt() string { return a.prompt }

func (a *Agent) Config() EngineConfig { return a.cfg }

// Run executes the request and returns the final answer.
func (a *Agent) Run(ctx context.Context, req Request) (*Result, error) {
	return a.Stream(ctx, req, nil)
}

// Stream is Run with intermediate events delivered to emit. A nil emit is
// allowed.
func (a *Agent) Stream(ctx context.Context, req Request, emit func(Event)) (*Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	if strings.TrimSpace(req.Input) == "" {
		return nil, &InvalidRequestError{Reason: "input must not be empty"}
	}
	input, err := composeInput(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx = ContextWithInvocationID(ctx, id)

	ctx, span := trace.Tracer().Start(ctx, "agent.invoke",
		oteltrace.WithAttributes(
			attribute.String("invocation.id", id),
			attribute.String("llm.model", a.cfg.Model),
			attribute.Int("input.length", len(req.Input)),
		),
	)
	defer span.End()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("invocation started", "invocation_id", id)

	out, err := a.engine.Execute(ctx, Task{
		Instructions:  a.prompt,
		Input:         input,
		MaxIterations: a.cfg.MaxIterations,
	}, emit)
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(out.Output) == "" {
		err = errors.New("engine returned no output")
	}
	if err != nil {
		err = a.classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("invocation failed", "invocation_id", id, "kind", Kind(err), "error", err, "duration", elapsed)
		emit(Event{Type: EventError, Data: err.Error()})
		return nil, err
	}

	model := out.Model
	if model == "" {
		model = a.cfg.Model
	}
	span.SetAttributes(
		attribute.Int("llm.iterations", out.Iterations),
		attribute.Int64("llm.input_tokens", out.InputTokens),
		attribute.Int64("llm.output_tokens", out.OutputTokens),
	)
	slog.Info("invocation finished", "invocation_id", id, "iterations", out.Iterations, "duration", elapsed)

	res := &Result{
		Output: out.Output,
		Metadata: map[string]any{
			"invocation_id": id,
			"model":         model,
			"iterations":    out.Iterations,
			"duration_ms":   elapsed.Milliseconds(),
			"input_tokens":  out.InputTokens,
			"output_tokens": out.OutputTokens,
		},
	}
	emit(Event{Type: EventDone, Data: res.Output})
	return res, nil
}

func (a *Agent) classify(err error) error {
	switch {
	case errors.Is(err, ErrIterationLimit):
		return &EngineTimeoutError{Budget: fmt.Sprintf("%d iteration", a.cfg.MaxIterations), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		budget := "caller deadline"
		if a.cfg.Timeout > 0 {
			budget = a.cfg.Timeout.String() + " time"
		}
		return &EngineTimeoutError{Budget: budget, Err: err}
	default:
		return &EngineError{Err: err}
	}
}

// composeInput prefixes the user input with the JSON encoded context, if any.
func composeInput(req Request) (string, error) {
	if len(req.Context) == 0 {
		return req.Input, nil
	}
	data, err := json.Marshal(req.Context)
	if err != nil {
		return "", &InvalidRequestError{Reason: "context is not serializable: " + err.Error()}
	}
	return "Additional context: " + string(data) + "\n\n" + req.Input, nil
}
