package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoResponse = errors.New("stream ended without a completed response")

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAIProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// Retries are left to the caller; a failed turn surfaces as an error.
	opts = append(opts,
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, model: model}
}

func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) ChatStream(ctx context.Context, req Request, onToken func(string)) (*responses.Response, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(o.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: req.Input,
		},
		Tools: req.Tools,
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}

	stream := o.client.Responses.NewStreaming(ctx, params)
	defer stream.Close()

	var completed *responses.Response

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "response.output_text.delta":
			if event.Delta != "" && onToken != nil {
				onToken(event.Delta)
			}
		case "response.completed", "response.incomplete":
			resp := event.Response
			completed = &resp
		case "response.failed":
			return nil, fmt.Errorf("response failed: %s", event.Response.Error.Message)
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, ErrNoResponse
	}

	return completed, nil
}
