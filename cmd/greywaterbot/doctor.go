package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"greywaterbot/internal/catalog"
	"greywaterbot/internal/config"
	"greywaterbot/internal/handoff"
	"greywaterbot/internal/knowledge"
	"greywaterbot/internal/provider"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	var skipNetwork bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your greywaterbot installation",
		Long: `Verifies that greywaterbot's configuration, embedded content, LLM
provider, Chatwoot credentials, and handoff store are correctly set up.
Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("greywaterbot doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file
			if _, err := os.Stat(cfgPath); err != nil {
				printWarn("Config file", fmt.Sprintf("not found at %s, using defaults and environment", cfgPath))
				warned++
			} else {
				printPass("Config file", cfgPath)
				passed++
			}

			cfg, err := loadConfig()
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// 2. Embedded content
			if kb, err := knowledge.LoadEmbedded(); err != nil {
				printFail("Knowledge base", err.Error())
				failed++
			} else {
				printPass("Knowledge base", fmt.Sprintf("%d sections", len(kb.Sections())))
				passed++
			}
			if cat, err := catalog.LoadEmbedded(cfg.Site.BaseURL); err != nil {
				printFail("Catalog", err.Error())
				failed++
			} else {
				printPass("Catalog", fmt.Sprintf("%d products, %d solutions, %d articles",
					len(cat.Products), len(cat.Solutions), len(cat.Articles)))
				passed++
			}

			// 3. LLM provider
			if cfg.LLM.APIKey == "" {
				printWarn("LLM provider", "no API key, every reply will be the fallback message")
				warned++
			} else if skipNetwork {
				printPass("LLM provider", "configured")
				passed++
			} else {
				llm := provider.NewOpenAI(provider.OpenAIConfig{
					APIKey:  cfg.LLM.APIKey,
					APIBase: cfg.LLM.APIBase,
					Model:   cfg.LLM.Model,
					Timeout: 10 * time.Second,
					Logger:  logger,
				})
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				err := llm.Healthy(ctx)
				cancel()
				if err != nil {
					printFail("LLM provider", err.Error())
					failed++
				} else {
					printPass("LLM provider", cfg.LLM.APIBase)
					passed++
				}
			}

			// 4. Chatwoot credentials
			if cfg.Chatwoot.URL == "" || cfg.Chatwoot.BotToken == "" {
				printWarn("Chatwoot", "url or bot token missing, outbound messages will be skipped")
				warned++
			} else {
				printPass("Chatwoot", cfg.Chatwoot.URL)
				passed++
			}
			if cfg.Chatwoot.WebhookSecret == "" {
				printWarn("Webhook secret", "not set, signatures will not be verified")
				warned++
			} else {
				printPass("Webhook secret", "configured")
				passed++
			}

			// 5. Handoff store
			if err := checkHandoff(cfg.Handoff); err != nil {
				printFail("Handoff store", err.Error())
				failed++
			} else {
				printPass("Handoff store", cfg.Handoff.Backend)
				passed++
			}

			// 6. Listen port
			if err := checkPort(cfg.Server.Port); err != nil {
				printWarn("Webhook port", fmt.Sprintf("port %d may be in use: %v", cfg.Server.Port, err))
				warned++
			} else {
				printPass("Webhook port", fmt.Sprintf(":%d available", cfg.Server.Port))
				passed++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running greywaterbot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ngreywaterbot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! greywaterbot is ready to run.\n")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipNetwork, "offline", false, "skip checks that call the LLM provider")
	return cmd
}

// checkHandoff opens the configured store and reads a probe id.
func checkHandoff(cfg config.HandoffConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := handoff.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer state.Close()

	if _, err := state.HandedOff.Has(ctx, 0); err != nil {
		return fmt.Errorf("not readable: %w", err)
	}
	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
