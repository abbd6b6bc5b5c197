package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/nexusagent/nexus/internal/config"
)

type client struct {
	api *openai.Client
}

// NewClient creates a provider client for an OpenAI-compatible endpoint.
func NewClient(cfg config.LLMConfig) Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &client{api: openai.NewClientWithConfig(apiCfg)}
}

func (c *client) CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (Stream, error) {
	s, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}
