// Package app wires configuration, stores and services into the vidfriends commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vidfriends/appcore/internal/config"
	"github.com/vidfriends/appcore/internal/db"
	"github.com/vidfriends/appcore/internal/handlers"
	"github.com/vidfriends/appcore/internal/httpserver"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/middleware"
)

// cli carries state shared by every command after configuration loads.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
	logOut io.Writer
}

// Run bootstraps the vidfriends application with the provided arguments.
func Run(ctx context.Context, args []string) error {
	root := newRootCmd(&cli{logOut: os.Stdout})
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "vidfriends",
		Short:         "VidFriends app core",
		Long:          "Serves the VidFriends session, content and media API and manages its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.logger))
			return nil
		},
	}

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newSeedCmd(c))
	root.AddCommand(newDeleteAccountCmd(c))
	return root
}

func (c *cli) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = newLogger(c.logOut, cfg.LogLevel)
	slog.SetDefault(c.logger)
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: lvl}))
}

// connect opens the database pool when a postgres-backed store is configured.
func (c *cli) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if c.cfg.Backend != config.BackendPostgres && c.cfg.DocumentStore != config.DocumentStorePostgres {
		return nil, nil
	}
	return db.Connect(ctx, c.cfg.DatabaseURL, c.cfg.DatabaseMaxConns)
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	pool, err := c.connect(ctx)
	if err != nil {
		return err
	}

	checks := map[string]handlers.HealthCheck{}
	var storePool db.Pool
	if pool != nil {
		defer pool.Close()
		storePool = pool
		checks["database"] = pool.Ping
	}

	svc, err := buildServices(ctx, c.cfg, storePool, nil)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, svc.handlerDependencies(c.cfg, checks))
	handler := middleware.RequestLogger(c.logger)(mux)

	srv := httpserver.New(c.cfg.AppPort, handler, httpserver.Options{
		ReadTimeout:  c.cfg.HTTPReadTimeout,
		WriteTimeout: c.cfg.HTTPWriteTimeout,
	})

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", c.cfg.AppPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	c.logger.Info("starting http server",
		"port", c.cfg.AppPort,
		"backend", c.cfg.Backend,
		"documentStore", c.cfg.DocumentStore,
		"objectStore", c.cfg.ObjectStore,
		"database", c.cfg.Collections.Database,
	)
	return srv.Run(ctx, l, c.logger)
}
