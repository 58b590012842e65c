package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cpgview/internal/handler"
	"cpgview/internal/hub"
	"cpgview/internal/service"
	"cpgview/internal/watcher"
)

var (
	serveAddr  string
	serveDB    string
	serveWatch []string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API and live view events over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite snapshot database path (overrides config)")
	serveCmd.Flags().StringSliceVar(&serveWatch, "watch", nil, "source files to re-analyze on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = serveDB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting cpgview server...")

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	eventBus := service.NewEventBus()
	sseHub := hub.New()

	// Connect event bus to SSE hub
	events := make(chan service.Event, 100)
	eventBus.Subscribe(events)
	defer eventBus.Unsubscribe(events)

	graphSvc := newService(ctx, cfg, repo, eventBus)

	mux := http.NewServeMux()
	handler.NewGraphHandler(graphSvc).Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     handler.Chain(mux, handler.Recover, handler.CORS, handler.Logger),
		ReadTimeout: 10 * time.Second,
		// Conversions can take as long as the backend timeout
		WriteTimeout: cfg.Backend.Timeout.Duration() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Forward(gctx, sseHub, events)
		return nil
	})
	g.Go(func() error {
		if err := graphSvc.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if len(serveWatch) > 0 {
		w := watcher.New(serveWatch, analyzeOnChange(graphSvc)).WithDebounce(cfg.Watch.Debounce.Duration())
		g.Go(func() error {
			if err := w.Watch(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server stopped")
	return err
}
