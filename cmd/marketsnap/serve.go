package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/marketsnap/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the artifacts over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dev, _ := cmd.Flags().GetBool("dev")
			srv := server.New(server.Config{
				Log:     app.Log,
				Store:   app.Container.Store,
				CacheDB: app.Container.CacheDB,
				Port:    app.Config.Port,
				DevMode: dev,
			})
			return runServer(cmd.Context(), srv, app)
		},
	}
	cmd.Flags().Bool("dev", false, "development mode (no response compression)")
	return cmd
}

// runServer blocks until ctx is cancelled or the server fails, then shuts
// the server down gracefully
func runServer(ctx context.Context, srv *server.Server, app *App) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.Log.Info().Msg("Shutting down server...")

	// In-flight requests get up to 10 seconds
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	app.Log.Info().Msg("Server stopped")
	return nil
}
