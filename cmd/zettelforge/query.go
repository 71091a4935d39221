package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zettelforge/zettelforge/atom"
	"github.com/zettelforge/zettelforge/config"
	"github.com/zettelforge/zettelforge/graph"
	"github.com/zettelforge/zettelforge/store"
)

func queryCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		tag        string
		category   string
		text       string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the knowledge base index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tag == "" && category == "" && text == "" {
				return fmt.Errorf("one of --tag, --category, or --text is required")
			}
			logger := slog.Default()

			cfg, err := config.NewLoader(logger).Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}

			idx, err := loadFreshIndex(ctx, st, cfg, logger)
			if err != nil {
				return err
			}

			var ids []string
			switch {
			case tag != "":
				ids = idx.ByTag[tag]
			case category != "":
				ids = idx.ByCategory[category]
			default:
				ids = idx.Search(text)
			}

			if len(ids) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Knowledge base output directory")
	cmd.Flags().StringVar(&tag, "tag", "", "List atoms carrying this tag")
	cmd.Flags().StringVar(&category, "category", "", "List atoms in this category")
	cmd.Flags().StringVar(&text, "text", "", "Full-text search over titles, excerpts and tags")

	return cmd
}

// loadFreshIndex returns the persisted index, rebuilding it first when the
// registry has changed since the index was built.
func loadFreshIndex(ctx context.Context, st store.Store, cfg *config.Config, logger *slog.Logger) (*graph.Index, error) {
	registry, err := atom.LoadRegistry(ctx, st)
	if err != nil {
		return nil, err
	}

	doc, err := graph.LoadIndex(ctx, st)
	if err == nil && doc.Index != nil && !doc.Index.Stale(registry.Meta.LastUpdated) {
		return doc.Index, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Stale or missing: rebuild from the registry before answering.
	logger.Info("Index stale, rebuilding", "atoms", len(registry.Atoms))
	atoms := registry.AllAtoms()
	res := graph.NewAssembler(cfg.Links.SimilarityThreshold, logger).Assemble(atoms, nil)
	clusters := graph.DetectClusters(res.Nodes, res.Edges)
	metrics := graph.ComputeMetrics(res.Nodes, res.Edges, clusters)
	builtAt := time.Now().UTC()
	idx := graph.BuildIndex(res.Nodes, atoms, builtAt)

	snap := graph.NewSnapshot(res, clusters, idx, metrics, builtAt)
	if err := snap.Save(ctx, st); err != nil {
		return nil, err
	}
	return idx, nil
}
