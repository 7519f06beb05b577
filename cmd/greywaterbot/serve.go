package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greywaterbot/internal/agent"
	"greywaterbot/internal/catalog"
	"greywaterbot/internal/channel"
	"greywaterbot/internal/chatwoot"
	"greywaterbot/internal/config"
	"greywaterbot/internal/domain"
	"greywaterbot/internal/handoff"
	"greywaterbot/internal/knowledge"
	"greywaterbot/internal/provider"
	"greywaterbot/internal/responder"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Chatwoot webhook server",
		Long:  "Serves the Chatwoot webhook, its liveness probe, and metrics. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

// newResponder wires the knowledge base, catalog, and LLM provider.
func newResponder(cfg *config.Config) (*responder.Responder, *provider.OpenAI, error) {
	kb, err := knowledge.LoadEmbedded()
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge base: %w", err)
	}
	cat, err := catalog.LoadEmbedded(cfg.Site.BaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	llm := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		APIBase: cfg.LLM.APIBase,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})
	var p domain.Provider = llm
	if cfg.LLM.RequestsPerMinute > 0 {
		p = provider.NewThrottled(llm, provider.NewRateLimiter(cfg.LLM.Burst, float64(cfg.LLM.RequestsPerMinute)))
	}
	return responder.New(responder.Config{
		Provider:    p,
		Knowledge:   kb,
		Catalog:     cat,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	}), llm, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	l, logCloser, err := newLogger(cfg.General)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logger = l

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, llm, err := newResponder(cfg)
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM API key configured, replies will use the fallback message")
	} else if err := llm.Healthy(ctx); err != nil {
		logger.Warn("LLM provider unhealthy at startup", "provider", llm.Name(), "err", err)
	}

	client := chatwoot.New(chatwoot.Config{
		URL:      cfg.Chatwoot.URL,
		BotToken: cfg.Chatwoot.BotToken,
		Logger:   logger,
	})
	if !client.Configured() {
		logger.Error("chatwoot url or bot token missing, outbound messages will be skipped")
	}

	state, err := handoff.New(ctx, cfg.Handoff, logger)
	if err != nil {
		return fmt.Errorf("handoff state: %w", err)
	}
	defer state.Close()

	scheduler := agent.NewTimerScheduler(logger)
	router := agent.New(agent.Config{
		Outbound:                client,
		Composer:                resp,
		State:                   state,
		Scheduler:               scheduler,
		Logger:                  logger,
		CheckRemoteStatus:       cfg.Chatwoot.CheckRemoteStatus,
		CardDelay:               time.Duration(cfg.Dispatch.CardDelayMs) * time.Millisecond,
		FollowupDelay:           time.Duration(cfg.Dispatch.FollowupDelayMs) * time.Millisecond,
		FollowupAfterCardsDelay: time.Duration(cfg.Dispatch.FollowupAfterCardsDelayMs) * time.Millisecond,
	})

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Endpoint
	}
	server := channel.NewChatwoot(channel.ChatwootConfig{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Path:        cfg.Server.WebhookPath,
		Secret:      cfg.Chatwoot.WebhookSecret,
		MetricsPath: metricsPath,
		Handler:     router,
		Logger:      logger,
	})

	logger.Info("greywaterbot started", "version", version, "handoff", cfg.Handoff.Backend)
	serveErr := server.Start(ctx)
	if serveErr != nil {
		logger.Error("webhook server stopped", "err", serveErr)
	}

	// Give already scheduled cards and follow-ups a chance to go out.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Wait(shutdownCtx); err != nil {
		logger.Warn("shutdown timed out", "err", err)
	}
	logger.Info("shutdown complete")
	return serveErr
}
