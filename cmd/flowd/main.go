package main

import (
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/agentflow/agentflow/internal/config"
	"github.com/agentflow/agentflow/internal/engine"
	"github.com/agentflow/agentflow/internal/llm"
	"github.com/agentflow/agentflow/internal/store"
	"github.com/agentflow/agentflow/internal/web"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		logger.Error("resolve api key", "err", err)
		os.Exit(1)
	}

	model, err := openai.New(
		openai.WithModel(cfg.Model.Name),
		openai.WithToken(apiKey),
	)
	if err != nil {
		logger.Error("create model", "err", err)
		os.Exit(1)
	}

	graph := store.NewStore()
	eng := engine.New(graph, llm.NewClient(model),
		engine.WithLogger(logger),
		engine.WithMaxLevels(cfg.Engine.MaxLevels),
	)

	srv := web.New(graph, eng, logger)
	if err := srv.Listen(cfg.Web.Addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
