// Command dashboard is a console front end for the fridge telemetry view. It
// mounts the view reconciler against a monitoring backend and drives it from
// line commands on stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fridge_monitor/internal/config"
	"fridge_monitor/internal/dashboard/fetcher"
	"fridge_monitor/internal/dashboard/live"
	"fridge_monitor/internal/dashboard/reconciler"
	"fridge_monitor/internal/logger"

	"github.com/spf13/cobra"
)

// Views selectable with --view.
const (
	ViewFridges  = "fridges"
	ViewSettings = "settings"
)

var (
	configPath string
	viewName   string
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse fridge readings from the monitoring backend",
	Long: `Mounts the reading view and accepts commands on stdin.

` + helpText,
	SilenceUsage: true,
	RunE:         runDashboard,
}

var analyticsCmd = &cobra.Command{
	Use:          "analytics",
	Short:        "Print the aggregate statistics once",
	SilenceUsage: true,
	RunE:         runAnalytics,
}

func main() {
	rootCmd.AddCommand(analyticsCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
	rootCmd.Flags().StringVar(&viewName, "view", ViewFridges, "view to browse (fridges|settings)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// viewPath maps a view name to its paginated endpoint.
func viewPath(name string) (string, error) {
	switch name {
	case ViewFridges:
		return fetcher.PathFridges, nil
	case ViewSettings:
		return fetcher.PathSettings, nil
	default:
		return "", fmt.Errorf("unknown view %q (want %s or %s)", name, ViewFridges, ViewSettings)
	}
}

func newClient(cfg *config.Config, log *logger.Logger, path string) (*fetcher.Client, error) {
	return fetcher.New(cfg.Dashboard.BaseURL,
		fetcher.WithPath(path),
		fetcher.WithTimeout(cfg.Dashboard.FetchTimeout),
		fetcher.WithLogger(log),
	)
}

func newSubscriber(cfg *config.Config, log *logger.Logger) *live.Subscriber {
	opts := []live.Option{live.WithLogger(log)}
	if rc := cfg.Dashboard.Reconnect; rc.Enabled {
		opts = append(opts, live.WithReconnect(rc.Base, rc.Max))
	}
	return live.New(cfg.Dashboard.WSURL, opts...)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	path, err := viewPath(viewName)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	client, err := newClient(cfg, log, path)
	if err != nil {
		return err
	}
	dash := reconciler.New(client, reconciler.FromSubscriber(newSubscriber(cfg, log)), log,
		reconciler.WithRetention(cfg.Dashboard.Retention),
		reconciler.WithFetchTimeout(cfg.Dashboard.FetchTimeout),
		reconciler.WithReseedOnLive(cfg.Dashboard.ReseedOnLive),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dash.Mount(ctx)
	defer dash.Unmount()

	return loop(ctx, dash, readLines(cmd.InOrStdin()), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loop serializes command handling and rendering so output never interleaves.
// Every change notification re-renders and moves the sentinel to the last
// rendered row.
func loop(ctx context.Context, r *reconciler.Reconciler, lines <-chan string, out, errOut io.Writer) error {
	con := &console{view: r, out: out}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.Changes():
			con.refresh()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := con.exec(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(errOut, "error:", err)
			}
		}
	}
}

// readLines streams lines from in until EOF.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	client, err := newClient(cfg, log, fetcher.PathFridges)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Dashboard.FetchTimeout)
	defer cancel()

	a, err := client.FetchAnalytics(ctx)
	if err != nil {
		return err
	}
	renderAnalytics(cmd.OutOrStdout(), a)
	return nil
}
