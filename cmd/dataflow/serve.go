package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/internal/cli"
	"github.com/aretw0/dataflow/internal/presentation/tui"
	apihttp "github.com/aretw0/dataflow/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts a shared engine and exposes it as a JSON API over HTTP, with a
Server-Sent Events stream of graph changes and Prometheus metrics on /metrics.
With --watch, the given graph file is loaded and reloaded whenever it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.HTTP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		watch, _ := cmd.Flags().GetString("watch")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		engine, closeStore, err := cli.CreateEngine(cfg, logger, reg)
		if err != nil {
			return err
		}
		defer closeStore()

		guard := dataflow.NewGuard(engine)
		streams := apihttp.NewStreamManager()
		handler := apihttp.NewHandler(guard,
			apihttp.WithLogger(logger),
			apihttp.WithMetrics(reg),
			apihttp.WithStreams(streams),
		)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if watch != "" {
			go func() {
				err := cli.WatchGraphFile(sc, watch, guard, logger, func(r dataflow.Report, err error) {
					if err == nil {
						streams.Broadcast(apihttp.Event{Type: "graph.reloaded", Name: watch})
					}
				})
				if err != nil {
					logger.Error("Watcher stopped", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			if cli.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout, cli.ColorProfile(os.Stdout))
			}
			logger.Info("Starting Dataflow Server", "address", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sc.Done():
			logger.Info("Start shutdown", "signal", sc.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			logger.Info("Dataflow Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides http.port)")
	serveCmd.Flags().String("watch", "", "Graph file to load and reload on change")
}
