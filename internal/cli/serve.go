package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"edurag/internal/adapter/api"
)

var (
	serveAddr      string
	serveNoRebuild bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Rebuild the in-memory index from the document store, start the background
ingestion workers and serve the HTTP API until interrupted.

Examples:
  edurag serve
  edurag serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoRebuild, "no-rebuild", false, "start with an empty index")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, GetRootDir(), true, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if !serveNoRebuild {
		if _, err := app.Docs.RebuildIndex(ctx, "", nil); err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
	}

	// workers outlive ctx so queued documents finish during shutdown
	app.Queue.Start(context.WithoutCancel(ctx))

	server := api.NewServer(cfg.Server.Addr, app.Docs, app.Answer, logger.With("component", "http"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("received shutdown signal, shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
