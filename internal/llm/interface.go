package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Stream is the subset of openai.ChatCompletionStream the proxy consumes.
// Recv returns io.EOF when the provider signals completion.
type Stream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Client is the minimal subset of the provider client used by the proxy; it
// is easy to mock in tests.
type Client interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (Stream, error)
}
