package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbertrand/alluvial/internal/server"
	"github.com/mbertrand/alluvial/pkg/cache"
	"github.com/mbertrand/alluvial/pkg/pipeline"
	"github.com/mbertrand/alluvial/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the serve command, running the render pipeline as an
// HTTP service.
func newServeCmd() *cobra.Command {
	var (
		addr      string
		redisURL  string
		mongoURI  string
		mongoDB   string
		mongoColl string
		cacheDir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render pipeline over HTTP",
		Long: `Serve runs an HTTP API around the render pipeline.

Endpoints:
  GET  /healthz                        liveness check
  POST /render                         render an inline dataset, return artifacts
  POST /charts                         render and persist a chart
  GET  /charts/{id}                    fetch a persisted chart
  GET  /charts/{id}/artifacts/{fmt}    fetch one rendered artifact

Charts persist to MongoDB when --mongo is set, otherwise to process memory.
Layout and artifact caching uses Redis when --redis is set, a directory when
--cache-dir is set, and is disabled otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, redisURL, mongoURI, mongoDB, mongoColl, cacheDir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for caching (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for chart persistence")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "alluvial", "MongoDB database name")
	cmd.Flags().StringVar(&mongoColl, "mongo-collection", "charts", "MongoDB collection name")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory cache (ignored when --redis is set)")

	return cmd
}

func runServe(ctx context.Context, addr, redisURL, mongoURI, mongoDB, mongoColl, cacheDir string) error {
	logger := loggerFromContext(ctx)

	c, err := serveCache(ctx, redisURL, cacheDir)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(c, logger)
	defer runner.Close()

	st, err := serveStore(ctx, mongoURI, mongoDB, mongoColl)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(runner, st, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks the cache backend: Redis, directory, or none.
func serveCache(ctx context.Context, redisURL, cacheDir string) (cache.Cache, error) {
	if redisURL != "" {
		return cache.NewRedisCache(ctx, redisURL)
	}
	if cacheDir != "" {
		return cache.NewFileCache(cacheDir)
	}
	return cache.NewNullCache(), nil
}

// serveStore picks the chart store: MongoDB or process memory.
func serveStore(ctx context.Context, mongoURI, mongoDB, mongoColl string) (store.Store, error) {
	if mongoURI != "" {
		return store.NewMongoStore(ctx, mongoURI, mongoDB, mongoColl)
	}
	return store.NewMemoryStore(), nil
}
