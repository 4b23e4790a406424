package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mbeckers/freightsim-go/internal/adapters/metrics"
	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/adapters/ws"
	"github.com/mbeckers/freightsim-go/internal/application/controller"
	"github.com/mbeckers/freightsim-go/internal/application/mapgen"
	"github.com/mbeckers/freightsim-go/internal/infrastructure/config"
)

const shutdownTimeout = 5 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "freightsim-server",
		Short: "Tick-driven logistics simulation server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
			}
			return run(cfg)
		},
	}
	root.Flags().String("host", "0.0.0.0", "bind host for the transport listener")
	root.Flags().Int("port", 8765, "bind port for the transport listener")
	root.Flags().String("log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Logging.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	g, err := mapgen.Generate(mapgen.DefaultConfig(cfg.Simulation.MapSeed, cfg.Simulation.MapNodes))
	if err != nil {
		return fmt.Errorf("generating initial map: %w", err)
	}
	w := controller.BuildWorld(g, cfg.Simulation.DTSeconds, cfg.Simulation.Seed)
	log.Printf("world ready: %d nodes, %d edges, %d agents",
		g.NodeCount(), g.EdgeCount(), len(w.Agents()))

	opts := controller.Options{
		TickRate:  cfg.Simulation.TickRate,
		QueueSize: cfg.Server.QueueSize,
		Seed:      cfg.Simulation.Seed,
		Metrics:   metrics.NewCollector(),
	}
	if cfg.Archive.Enabled {
		archive, err := persistence.OpenEventArchive(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("opening event archive: %w", err)
		}
		defer archive.Close()
		opts.Archive = archive
		log.Printf("event archive enabled at %s", cfg.Archive.Path)
	}

	ctrl := controller.New(w, opts)
	transport := ws.NewServer(ctrl)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: transport.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return ctrl.Run(ctx)
	})
	group.Go(func() error {
		return transport.Run(ctx)
	})
	group.Go(func() error {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	log.Println("shutdown complete")
	return nil
}
