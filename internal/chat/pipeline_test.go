package chat_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/nexusagent/nexus/internal/chat"
	"github.com/nexusagent/nexus/internal/config"
	"github.com/nexusagent/nexus/internal/history"
	"github.com/nexusagent/nexus/internal/llm"
	"github.com/nexusagent/nexus/internal/proxy"
)

// providerStub implements llm.Client, yielding deltas of raw bytes so chunk
// boundaries can fall inside a multi-byte character.
type providerStub struct {
	deltas []string
}

func (p *providerStub) CreateChatCompletionStream(context.Context, openai.ChatCompletionRequest) (llm.Stream, error) {
	return &stubStream{deltas: p.deltas}, nil
}

type stubStream struct {
	deltas []string
}

func (s *stubStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if len(s.deltas) == 0 {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	delta := s.deltas[0]
	s.deltas = s.deltas[1:]
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: delta}},
		},
	}, nil
}

func (s *stubStream) Close() error { return nil }

// Full pipeline: manager → HTTP completer → proxy → provider stub and back,
// with the session committed to a real SQLite store. The provider emits "é"
// split across two flushes; the committed message must contain the intact
// character.
func TestPipeline_EndToEnd(t *testing.T) {
	eAcute := []byte("é")
	provider := &providerStub{deltas: []string{
		"Voil", string(eAcute[:1]), string(eAcute[1:]), "!",
	}}
	srv := httptest.NewServer(proxy.New(provider, config.LLMConfig{Model: "deepseek-chat"}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "nexus.db")
	store := history.Open(dbPath)
	defer store.Close()

	ctx := context.Background()
	m := chat.NewManager(ctx, store, &chat.HTTPCompleter{URL: srv.URL}, nil)

	require.NoError(t, m.Submit(ctx, "Say voilà"))

	active, ok := m.Active()
	require.True(t, ok)
	last := active.Messages[len(active.Messages)-1]
	require.Equal(t, chat.RoleAI, last.Role)
	require.Equal(t, "Voilà!", last.Content)

	// A second manager over the same database sees the committed session.
	reopened := history.Open(dbPath)
	defer reopened.Close()
	m2 := chat.NewManager(ctx, reopened, &chat.HTTPCompleter{URL: srv.URL}, nil)
	restored, ok := m2.Active()
	require.True(t, ok)
	require.Equal(t, active.ID, restored.ID)
	require.Equal(t, "Say voilà", restored.Title)
	require.Equal(t, active.Messages, restored.Messages)
}
