package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Completer requests an assistant reply for a conversation and returns the
// raw response stream. The returned reader is finite and not restartable;
// the caller owns closing it.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (io.ReadCloser, error)
}

// HTTPCompleter posts conversations to the chat proxy endpoint. Session
// roles are translated to wire roles on the way out.
type HTTPCompleter struct {
	// URL is the full chat endpoint, e.g. "http://localhost:8080/chat".
	URL string

	// Client defaults to http.DefaultClient when nil.
	Client *http.Client
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []wireMessage `json:"messages"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Complete sends the conversation and returns the streaming response body.
// A non-200 status is reported as an error carrying the server's message.
func (c *HTTPCompleter) Complete(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	wire := make([]wireMessage, len(messages))
	for i, m := range messages {
		wire[i] = wireMessage{Role: WireRole(m.Role), Content: m.Content}
	}

	body, err := json.Marshal(chatRequest{Messages: wire})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var eb errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil && eb.Error != "" {
			return nil, fmt.Errorf("completion failed: %s", eb.Error)
		}
		return nil, fmt.Errorf("completion failed with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
