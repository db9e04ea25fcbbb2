package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type InvokeInput struct {
	Input   string         `json:"input" jsonschema:"the request or task description for the agent"`
	Context map[string]any `json:"context,omitempty" jsonschema:"optional context passed along with the request"`
}

type statusInput struct{}

// NewMCPServer registers the invoke and status tools on a new MCP server.
func NewMCPServer(e *Endpoints, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    e.persona.Name,
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "invoke",
		Description: "Invoke the " + e.persona.Name + " agent: " + e.persona.Description,
	}, e.invokeTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Get the " + e.persona.Name + " agent status and capabilities",
	}, e.statusTool)

	return server
}

func (e *Endpoints) invokeTool(ctx context.Context, req *mcp.CallToolRequest, in InvokeInput) (*mcp.CallToolResult, any, error) {
	slog.Info("invoke tool called", "input_length", len(in.Input), "context_keys", len(in.Context))

	res, errResp := e.Invoke(ctx, in.Input, in.Context)
	if errResp != nil {
		return structured(errResp, true), nil, nil
	}
	return structured(res, false), nil, nil
}

func (e *Endpoints) statusTool(ctx context.Context, req *mcp.CallToolRequest, _ statusInput) (*mcp.CallToolResult, any, error) {
	report := e.Status()
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: e.StatusMarkdown()},
		},
		StructuredContent: report,
	}, nil, nil
}

// structured returns v both as structured content and as JSON text, so
// clients that ignore structured content still see the same payload.
func structured(v any, isError bool) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{"kind":"engine_error","message":"unencodable result"}`)
		isError = true
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: v,
		IsError:           isError,
	}
}
