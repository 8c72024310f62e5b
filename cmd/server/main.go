// Command server runs the development monitoring backend: the paginated
// reading endpoints, aggregates, the live push feed and the reading simulator.
package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fridge_monitor/internal/config"
	"fridge_monitor/internal/handlers"
	"fridge_monitor/internal/logger"
	"fridge_monitor/internal/repository"
	"fridge_monitor/internal/repository/db"
	"fridge_monitor/internal/server"
	"fridge_monitor/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Run the fridge monitoring backend",
	SilenceUsage: true,
	RunE:         runServer,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	// load config.yml
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// init logger
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg.DBPath, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	hub := service.NewHub()
	services := service.NewService(repos, hub)
	apiHandler := handlers.NewHandler(services, log, handlers.WithAllowedOrigins(cfg.AllowedOrigins...))
	srv := server.New(cfg.Port, apiHandler.InitRoutes())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// start simulator
	if cfg.Simulator.Enabled {
		g.Go(func() error {
			log.Infow("simulator started", "tick", cfg.Simulator.Tick)
			services.Simulator.Run(gctx, cfg.Simulator.Tick)
			return nil
		})
	}

	// start HTTP server
	g.Go(func() error {
		log.Infow("listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")
		return shutdown(srv)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("server stopped with error", "err", err)
		return err
	}
	return nil
}

// openDB initializes the SQLite database, falling back to app.db.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// shutdown allows in-flight requests to complete within shutdownTimeout.
func shutdown(srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
