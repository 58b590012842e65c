package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cpgview/internal/backend"
	"cpgview/internal/config"
	"cpgview/internal/domain"
	"cpgview/internal/repository"
	"cpgview/internal/repository/sqlite"
	"cpgview/internal/service"
)

var (
	configPath string
	backendURL string

	rootCmd = &cobra.Command{
		Use:   "cpgview",
		Short: "Explore code property graphs produced by the analysis backend",
		Long: `cpgview submits source code to the analysis backend, runs Cypher
queries against the resulting code property graph and serves an
interactive view of it that can be filtered, expanded and pruned.`,
		SilenceUsage: true,
	}
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "analysis backend URL (overrides config)")

	rootCmd.AddCommand(serveCmd, convertCmd, queryCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, or searches for one
func loadConfig() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if backendURL != "" {
		cfg.Backend.URL = strings.TrimRight(backendURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if path != "" {
		log.Printf("Config loaded: %s", path)
	}
	log.Print(cfg.Summary())
	return cfg, nil
}

// newClient builds the backend client, asking the backend for its advertised
// address first when discovery is enabled
func newClient(ctx context.Context, cfg *config.Config) *backend.Client {
	client := backend.New(cfg.Backend.URL, cfg.Backend.Timeout.Duration())
	if !cfg.Backend.Discover {
		return client
	}

	discoverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	remote, err := client.RemoteConfig(discoverCtx)
	if err != nil {
		log.Printf("Backend discovery failed, using %s: %v", client.BaseURL(), err)
		return client
	}
	if remote.BackendURL == "" || remote.BackendURL == client.BaseURL() {
		return client
	}
	log.Printf("Backend advertises %s", remote.BackendURL)
	return backend.New(remote.BackendURL, cfg.Backend.Timeout.Duration())
}

// openRepository opens the snapshot database. An empty path disables
// snapshots and returns a nil repository.
func openRepository(cfg *config.Config) (repository.SnapshotRepository, func(), error) {
	if cfg.Database.Path == "" {
		log.Println("Snapshots disabled: no database path configured")
		return nil, func() {}, nil
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Database opened: %s", cfg.Database.Path)
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}, nil
}

// newService wires a graph service for cfg
func newService(ctx context.Context, cfg *config.Config, repo repository.SnapshotRepository, bus *service.EventBus) *service.GraphService {
	return service.NewGraphService(newClient(ctx, cfg), repo, bus, service.Options{
		InitialQuery: cfg.Session.InitialQuery,
		Tagger:       domain.NewTagger(cfg.Filters.UnsafeMarkers),
	})
}

// withService runs the service's session engine while fn executes
func withService(ctx context.Context, svc *service.GraphService, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := svc.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})

	return g.Wait()
}

// readSource reads a source file for analysis
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}
