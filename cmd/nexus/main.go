// Command nexus runs the streaming chat proxy: it accepts conversations over
// HTTP and relays the provider's token stream back as plain chunked text.
package main

import (
	"net"
	"net/http"
	"os"

	"github.com/nexusagent/nexus/internal/config"
	"github.com/nexusagent/nexus/internal/llm"
	"github.com/nexusagent/nexus/internal/logger"
	"github.com/nexusagent/nexus/internal/proxy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	llmClient := llm.NewClient(cfg.LLM)
	chatHandler := proxy.New(llmClient, cfg.LLM)

	mux := http.NewServeMux()
	mux.Handle("POST /chat", chatHandler)
	mux.HandleFunc("GET /healthz", proxy.Health)

	handler := proxy.RateLimit(cfg.Server.RateRPS, cfg.Server.RateBurst)(mux)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", addr, "model", cfg.LLM.Model)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.L.Error("server failed", "error", err)
		os.Exit(1)
	}
}
