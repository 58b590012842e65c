package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cpgview/internal/service"
	"cpgview/internal/watcher"
)

var (
	convertCmd = &cobra.Command{
		Use:   "convert [source file]",
		Short: "Analyze a source file and show the initial view of its graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}

	queryCmd = &cobra.Command{
		Use:   "query [cypher]",
		Short: "Run a Cypher query against the analyzed graph",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}

	watchCmd = &cobra.Command{
		Use:   "watch [source file...]",
		Short: "Re-analyze source files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWatch,
	}
)

func runConvert(cmd *cobra.Command, args []string) error {
	code, err := readSource(args[0])
	if err != nil {
		return err
	}
	return withCLIService(func(ctx context.Context, svc *service.GraphService) error {
		result, err := svc.Analyze(ctx, code)
		if err != nil {
			return err
		}
		printAnalysis(cmd.OutOrStdout(), result)
		return nil
	})
}

func runQuery(cmd *cobra.Command, args []string) error {
	cypher := strings.Join(args, " ")
	return withCLIService(func(ctx context.Context, svc *service.GraphService) error {
		result, err := svc.RunQuery(ctx, cypher)
		if errors.Is(err, service.ErrNoData) {
			printNoData(cmd.OutOrStdout())
			return nil
		}
		if err != nil {
			return err
		}
		printView(cmd.OutOrStdout(), result)
		return nil
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newService(ctx, cfg, nil, service.NewEventBus())
	onChange := analyzeOnChange(svc)

	return withService(ctx, svc, func(ctx context.Context) error {
		// Analyze once up front so the first view does not wait for an edit
		for _, path := range args {
			if err := onChange(ctx, path); err != nil {
				log.Printf("Initial analysis of %s failed: %v", path, err)
			}
		}

		err := watcher.New(args, onChange).WithDebounce(cfg.Watch.Debounce.Duration()).Watch(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// analyzeOnChange re-runs the analysis of a changed file and prints the outcome
func analyzeOnChange(svc *service.GraphService) watcher.ChangeFunc {
	return func(ctx context.Context, path string) error {
		code, err := readSource(path)
		if err != nil {
			return err
		}
		result, err := svc.Analyze(ctx, code)
		if err != nil {
			return err
		}
		brand.Fprintf(os.Stdout, "%s\n", path)
		printAnalysis(os.Stdout, result)
		return nil
	}
}

// withCLIService runs fn against a service without snapshot storage
func withCLIService(fn func(context.Context, *service.GraphService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newService(ctx, cfg, nil, service.NewEventBus())
	return withService(ctx, svc, func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}
