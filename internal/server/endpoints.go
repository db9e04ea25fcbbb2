// Package server exposes the agent to MCP clients. Endpoints hold the
// transport independent behavior of the two tools; mcp.go and http.go bind
// them to the go-sdk server and its transports.
package server

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"francisco/internal/agent"
	"francisco/internal/persona"
)

// KindNotReady is reported when a call arrives before an agent is attached.
const KindNotReady = "not_ready"

// ErrorResponse is the structured error returned to callers instead of a
// transport failure.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type StatusReport struct {
	AgentName     string               `json:"agent_name"`
	Description   string               `json:"description"`
	Model         string               `json:"model"`
	MaxIterations int                  `json:"max_iterations"`
	Capabilities  persona.Capabilities `json:"capabilities"`
	Ready         bool                 `json:"ready"`
}

type Endpoints struct {
	persona *persona.Config
	agent   atomic.Pointer[agent.Agent]
}

func NewEndpoints(p *persona.Config) *Endpoints {
	return &Endpoints{persona: p}
}

// Attach makes a available to callers. Calls made before Attach get
// not_ready.
func (e *Endpoints) Attach(a *agent.Agent) {
	e.agent.Store(a)
}

// Invoke runs the agent. Every failure is returned as an ErrorResponse so a
// bad call never takes the server down.
func (e *Endpoints) Invoke(ctx context.Context, input string, extra map[string]any) (*agent.Result, *ErrorResponse) {
	a, errResp := e.ready(input)
	if errResp != nil {
		return nil, errResp
	}

	res, err := a.Run(ctx, agent.Request{Input: input, Context: extra})
	if err != nil {
		kind := agent.Kind(err)
		slog.Warn("invoke failed", "kind", kind, "error", err)
		return nil, &ErrorResponse{Kind: kind, Message: err.Error()}
	}
	return res, nil
}

// Stream is Invoke with intermediate agent events delivered to emit.
func (e *Endpoints) Stream(ctx context.Context, input string, extra map[string]any, emit func(agent.Event)) (*agent.Result, *ErrorResponse) {
	a, errResp := e.ready(input)
	if errResp != nil {
		return nil, errResp
	}

	res, err := a.Stream(ctx, agent.Request{Input: input, Context: extra}, emit)
	if err != nil {
		return nil, &ErrorResponse{Kind: agent.Kind(err), Message: err.Error()}
	}
	return res, nil
}

// ready checks the request before the agent: a blank input is a client
// mistake whatever the server state.
func (e *Endpoints) ready(input string) (*agent.Agent, *ErrorResponse) {
	if strings.TrimSpace(input) == "" {
		err := &agent.InvalidRequestError{Reason: "input must not be empty"}
		return nil, &ErrorResponse{Kind: agent.KindInvalidRequest, Message: err.Error()}
	}
	a := e.agent.Load()
	if a == nil {
		return nil, &ErrorResponse{Kind: KindNotReady, Message: "agent is not initialized"}
	}
	return a, nil
}

// Status reports the persona and whether an agent is attached. The model is
// the one the engine actually uses once attached.
func (e *Endpoints) Status() StatusReport {
	r := StatusReport{
		AgentName:     e.persona.Name,
		Description:   e.persona.Description,
		Model:         e.persona.Model,
		MaxIterations: e.persona.MaxIterations,
		Capabilities:  e.persona.Capabilities,
	}
	if a := e.agent.Load(); a != nil {
		r.Ready = true
		r.Model = a.Config().Model
		r.MaxIterations = a.Config().MaxIterations
	}
	return r
}

// StatusMarkdown renders the status for clients that only read text content.
func (e *Endpoints) StatusMarkdown() string {
	state := "not ready"
	if e.agent.Load() != nil {
		state = "ready"
	}
	return "# " + e.persona.Name + " status (" + state + ")\n\n" + e.persona.Summary()
}
