package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaultgraph/vaultgraph/internal/config"
	"github.com/vaultgraph/vaultgraph/internal/db"
	"github.com/vaultgraph/vaultgraph/internal/graph"
	"github.com/vaultgraph/vaultgraph/internal/layout"
	"github.com/vaultgraph/vaultgraph/internal/server"
	"github.com/vaultgraph/vaultgraph/internal/vault"
	"github.com/vaultgraph/vaultgraph/internal/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graph server over a vault",
	Long: `Loads the vault, restores cached node positions, and serves graph
snapshots over HTTP and WebSocket. File changes in the vault trigger a
debounced re-derivation pushed to every connected client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := newLogger()
		defer logger.Sync()

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "vaultgraph.db"))
		if err != nil {
			return fmt.Errorf("opening position cache: %w", err)
		}
		defer database.Close()

		v := vault.New(cfg.VaultDir, logger, vault.WithPatterns(cfg.Include, cfg.Exclude))
		controller := view.NewController(v, cfg.ViewSettings(), cfg.Palette, layout.NewStore(database), logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := controller.RestorePositions(ctx); err != nil {
			logger.Warn("position cache unavailable, starting fresh", zap.Error(err))
		}
		if _, err := controller.UpdateData(ctx, view.UpdateOptions{FirstLoad: true}); err != nil {
			return fmt.Errorf("initial vault load: %w", err)
		}

		watcher, err := vault.NewWatcher(v,
			time.Duration(cfg.DebounceMS)*time.Millisecond,
			func(graph.Corpus) {
				// The watcher already re-read the vault, reuse its snapshot.
				if _, err := controller.UpdateData(ctx, view.UpdateOptions{UseCache: true}); err != nil {
					logger.Warn("vault change not applied", zap.Error(err))
				}
			},
			logger)
		if err != nil {
			return fmt.Errorf("watching vault: %w", err)
		}
		defer watcher.Close()
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("vault watcher stopped", zap.Error(err))
			}
		}()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, controller, logger)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := controller.PersistPositions(shutdownCtx); err != nil {
				logger.Warn("positions not persisted", zap.Error(err))
			}
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "vaultgraph %s serving %s on port %d\n", Version, v.Root(), cfg.Server.Port)
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
