// Package proxy implements the server side of the streaming-chat pipeline:
// it accepts a conversation, forwards it to the LLM provider with streaming
// enabled, and re-emits the token stream as plain chunked text.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/nexusagent/nexus/internal/config"
	"github.com/nexusagent/nexus/internal/llm"
	"github.com/nexusagent/nexus/internal/logger"
)

// DefaultSystemPrompt is prepended to every provider request. Caller-supplied
// system messages never replace it.
const DefaultSystemPrompt = "You are a professional data analysis assistant. Be accurate, helpful, and keep a professional tone."

// Handler serves POST /chat. Each request is independent; no state is shared
// across invocations.
type Handler struct {
	llm          llm.Client
	model        string
	systemPrompt string
}

// New creates a chat proxy handler backed by client.
func New(client llm.Client, cfg config.LLMConfig) *Handler {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Handler{llm: client, model: cfg.Model, systemPrompt: prompt}
}

type chatRequest struct {
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func validRole(role string) bool {
	switch role {
	case openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleSystem:
		return true
	}
	return false
}

// buildMessages converts the caller's conversation into the provider request,
// prepending the system preamble. Caller-supplied system messages are dropped
// so they cannot override it.
func (h *Handler) buildMessages(in []wireMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: h.systemPrompt,
	})
	for _, m := range in {
		if m.Role == openai.ChatMessageRoleSystem {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// ServeHTTP handles POST /chat. On success the response is 200 with
// text/plain chunked body carrying raw incremental assistant text. Failures
// before the first byte are reported as 500 with a JSON error body; failures
// mid-stream abort the connection so the client observes an interrupted
// stream.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusInternalServerError, "malformed request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusInternalServerError, "messages must not be empty")
		return
	}
	for _, m := range req.Messages {
		if !validRole(m.Role) {
			writeError(w, http.StatusInternalServerError, "invalid message role: "+m.Role)
			return
		}
	}

	stream, err := h.llm.CreateChatCompletionStream(r.Context(), openai.ChatCompletionRequest{
		Model:    h.model,
		Stream:   true,
		Messages: h.buildMessages(req.Messages),
	})
	if err != nil {
		logger.L.Error("provider request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "upstream request failed")
		return
	}
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.L.Error("response writer does not support streaming")
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			// Provider signalled completion; the chunked body closes cleanly.
			return
		}
		if err != nil {
			logger.L.Error("provider stream aborted", "error", err)
			// Tear down the connection so the client sees an interrupted
			// stream rather than a clean end.
			panic(http.ErrAbortHandler)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if _, err := io.WriteString(w, choice.Delta.Content); err != nil {
				logger.L.Info("client disconnected mid-stream", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeError sends a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.L.Warn("failed to encode error response", "error", err)
	}
}
