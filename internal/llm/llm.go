package llm

import (
	"context"

	"github.com/openai/openai-go/v3/responses"
)

// Request is one turn of the reasoning loop.
type Request struct {
	Instructions string
	Input        []responses.ResponseInputItemUnionParam
	Tools        []responses.ToolUnionParam
}

type Provider interface {
	ChatStream(ctx context.Context, req Request, onToken func(string)) (*responses.Response, error)
	Model() string
}
