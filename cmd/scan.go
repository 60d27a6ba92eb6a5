package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultgraph/vaultgraph/internal/config"
	"github.com/vaultgraph/vaultgraph/internal/graph"
	"github.com/vaultgraph/vaultgraph/internal/progress"
	"github.com/vaultgraph/vaultgraph/internal/vault"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the vault once and print graph statistics",
	Long: `Reads the vault, derives the graph with the configured view settings,
and prints what the frontend would render. Useful for checking filters
and link resolution without starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := newLogger()
		defer logger.Sync()

		reporter := progress.New()
		v := vault.New(cfg.VaultDir, logger,
			vault.WithPatterns(cfg.Include, cfg.Exclude),
			vault.WithProgress(reporter.Step))

		corpus, err := v.Load(context.Background())
		if err != nil {
			return fmt.Errorf("loading vault: %w", err)
		}
		reporter.Done()

		g, err := graph.NewEngine(logger).Derive(corpus, cfg.ViewSettings())
		if err != nil {
			return fmt.Errorf("deriving graph: %w", err)
		}

		var documents, attachments int
		for _, f := range corpus.Files {
			if f.IsDocument() {
				documents++
			} else {
				attachments++
			}
		}
		var tags int
		for _, n := range g.Nodes {
			if n.Type == graph.NodeTag {
				tags++
			}
		}

		fmt.Printf("Vault: %s\n", v.Root())
		fmt.Printf("  Files:       %d (%d documents, %d attachments)\n", len(corpus.Files), documents, attachments)
		fmt.Printf("  Graph nodes: %d (%d tags)\n", len(g.Nodes), tags)
		fmt.Printf("  Graph edges: %d\n", len(g.Edges))
		if s := cfg.View; s.SearchText != "" || len(s.Filters) > 0 {
			var active []string
			if s.SearchText != "" {
				active = append(active, fmt.Sprintf("search %q", s.SearchText))
			}
			for _, f := range s.Filters {
				active = append(active, string(f.Kind)+":"+f.Value)
			}
			fmt.Printf("  Active view: %s\n", strings.Join(active, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
