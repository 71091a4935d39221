package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zettelforge/zettelforge/config"
	"github.com/zettelforge/zettelforge/extract"
	"github.com/zettelforge/zettelforge/pipeline"
	"github.com/zettelforge/zettelforge/store"
)

// lockFile is the advisory lock guarding concurrent builds against one
// output. Dry runs skip it: previews are safe to run alongside a build.
const lockFile = ".zettelforge.lock"

func buildCmd() *cobra.Command {
	var (
		configPath  string
		outputDir   string
		pattern     string
		granularity string
		dryRun      bool
		watch       bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "build <source-path>",
		Short: "Build the knowledge graph from source documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				configureLogging("debug")
			}
			logger := slog.Default()

			sourcePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			info, err := os.Stat(sourcePath)
			if err != nil {
				return fmt.Errorf("stat source path: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", sourcePath)
			}

			cfg, err := config.NewLoader(logger).Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Source.Roots = []string{sourcePath}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}

			opts := pipeline.Options{
				DryRun:  dryRun,
				Pattern: pattern,
			}
			if granularity != "" {
				g, err := extract.ParseGranularity(granularity)
				if err != nil {
					return err
				}
				opts.Granularity = g
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}

			if !dryRun {
				unlock, err := acquireLock(cfg.Output.Dir)
				if err != nil {
					return err
				}
				defer unlock()
			}

			p := pipeline.New(cfg, st, logger, nil)

			if watch {
				if _, err := p.Run(ctx, opts); err != nil {
					return err
				}
				w, err := pipeline.NewWatcher(p, []string{sourcePath}, pipeline.DefaultDebounce, logger)
				if err != nil {
					return err
				}
				if err := w.Run(ctx, opts); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}

			result, err := p.Run(ctx, opts)
			if err != nil {
				return err
			}

			printSummary(result)
			if !result.Report.Valid {
				return fmt.Errorf("graph has %d structural error(s)", result.Report.Count(pipeline.SeverityStructural))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Knowledge base output directory")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only process the document with this pattern name")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "Extraction granularity (fine, medium, coarse)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute everything, persist nothing")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild on source changes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// openStore selects the persistence backend from config.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Output.Backend {
	case config.BackendNATS:
		return store.NewKVStore(ctx, cfg.NATS.URL)
	default:
		return store.NewFileStore(cfg.Output.Dir)
	}
}

// acquireLock takes the advisory build lock: O_CREATE|O_EXCL so a second
// concurrent build fails fast instead of corrupting the registry.
func acquireLock(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, lockFile)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another build is running (lock file %s exists)", path)
		}
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Close()

	return func() { _ = os.Remove(path) }, nil
}

func printSummary(result *pipeline.Result) {
	r := result.Report
	m := result.Metrics

	fmt.Printf("Run %s\n", r.RunID)
	fmt.Printf("  documents: %d  new atoms: %d\n", r.Documents, r.NewAtoms)
	fmt.Printf("  nodes: %d  edges: %d  clusters: %d\n", m.TotalNodes, m.TotalEdges, len(result.Clusters))
	fmt.Printf("  health: %s  orphans: %d  broken links: %d\n",
		m.Health, len(m.OrphanedNodes), len(result.Graph.Resolution.Broken))
	if len(r.Failures) > 0 {
		fmt.Printf("  failed documents: %d\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Printf("    %s: %s\n", f.Path, f.Error)
		}
	}
	if r.DryRun {
		fmt.Println("  dry run: nothing persisted")
	}
}
