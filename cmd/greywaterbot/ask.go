package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"greywaterbot/internal/knowledge"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var retrieveOnly bool
	var maxSections int
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question the way the bot would in Chatwoot",
		Long: `Runs a customer question through retrieval, the LLM, and card selection
without touching Chatwoot. Use --retrieve-only to see which knowledge base
sections a question pulls in.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			if retrieveOnly {
				kb, err := knowledge.LoadEmbedded()
				if err != nil {
					return err
				}
				for i, s := range kb.FindRelevantSections(question, maxSections) {
					fmt.Printf("%d. %s\n", i+1, s.Title)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			resp, _, err := newResponder(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			reply := resp.Compose(ctx, question)

			fmt.Println(reply.Text)
			if len(reply.Cards) > 0 {
				fmt.Println()
				for _, c := range reply.Cards {
					fmt.Printf("  [card] %s\n", c.Title)
					for _, a := range c.Actions {
						fmt.Printf("         %s: %s\n", a.Text, a.URI)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&retrieveOnly, "retrieve-only", false, "print the ranked knowledge sections and skip the LLM")
	cmd.Flags().IntVar(&maxSections, "max-sections", knowledge.DefaultMaxSections, "sections to retrieve")
	return cmd
}
