package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zettelforge/zettelforge/atom"
	"github.com/zettelforge/zettelforge/config"
	"github.com/zettelforge/zettelforge/extract"
	"github.com/zettelforge/zettelforge/folgezettel"
	"github.com/zettelforge/zettelforge/graph"
	"github.com/zettelforge/zettelforge/source"
	"github.com/zettelforge/zettelforge/source/scanner"
	"github.com/zettelforge/zettelforge/store"
)

// defaultWorkers bounds parallel document extraction.
const defaultWorkers = 4

// lowDensityThreshold flags sparse clusters as a quality finding.
const lowDensityThreshold = 0.1

// Options are the per-run knobs on top of the loaded configuration.
type Options struct {
	// DryRun computes everything but persists nothing.
	DryRun bool

	// Pattern filters documents by parsed pattern name.
	Pattern string

	// Granularity overrides the configured extraction granularity when set.
	Granularity extract.Granularity

	// Workers bounds parallel extraction. Zero means the default.
	Workers int
}

// Result is everything one run produced.
type Result struct {
	Report   *Report
	Registry *atom.Registry
	NewAtoms []*atom.Atom
	Graph    *graph.Result
	Clusters []graph.Cluster
	Metrics  *graph.Metrics
	Index    *graph.Index
}

// Pipeline runs the build: a strictly linear pass from source documents to
// persisted artifacts. Extraction runs in parallel across documents; id
// allocation and registry mutation are serialized.
type Pipeline struct {
	cfg    *config.Config
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline. A nil clock uses time.Now.
func New(cfg *config.Config, st store.Store, logger *slog.Logger, clock func() time.Time) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{cfg: cfg, store: st, logger: logger, now: clock}
}

// document pairs a parsed pattern with its extracted concepts, in scan
// order.
type document struct {
	file     scanner.File
	pattern  *source.Pattern
	concepts []source.Concept
}

// Run executes one build. Fatal conditions (missing root, id overflow,
// collision) return an error; structural and quality findings land in the
// report and the run completes.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := p.now().UTC()
	report := NewReport(opts.DryRun, start)
	result := &Result{Report: report}

	granularity := opts.Granularity
	if granularity == "" {
		g, err := extract.ParseGranularity(p.cfg.Extract.Granularity)
		if err != nil {
			return nil, err
		}
		granularity = g
	}

	// Scan. A missing or unreadable root is fatal.
	sc := scanner.New(scanner.Config{
		Roots:      p.cfg.Source.Roots,
		Exclude:    p.cfg.Source.Exclude,
		Extensions: p.cfg.Source.Extensions,
	}, p.logger)
	files, err := sc.Scan()
	if err != nil {
		report.Add(SeverityFatal, "scan", "", err.Error())
		report.Finish(p.now().UTC())
		return result, fmt.Errorf("scan sources: %w", err)
	}
	p.logger.Info("Scanned sources", "documents", len(files))

	// Extract in parallel; per-document failures are recorded, never fatal.
	docs := p.extractAll(ctx, sc, files, granularity, opts, report)
	report.Documents = len(docs)

	// Everything from here mutates the year counter and registry: serial.
	registry, err := atom.LoadRegistry(ctx, p.store)
	if err != nil {
		return nil, err
	}
	result.Registry = registry

	year := start.Year()
	allocator := folgezettel.NewAllocator(p.cfg.IDs.Prefix, year, registry.Counter(), registry.Exists, nil, p.logger)
	materializer := atom.NewMaterializer(p.now)

	var newAtoms []*atom.Atom
	for _, doc := range docs {
		assigned, err := allocator.Allocate(doc.concepts)
		if err != nil {
			report.Add(SeverityFatal, "allocate", doc.file.RelPath, err.Error())
			report.Finish(p.now().UTC())
			return result, fmt.Errorf("allocate ids for %s: %w", doc.file.RelPath, err)
		}
		newAtoms = append(newAtoms, materializer.Materialize(doc.pattern, doc.concepts, assigned)...)
	}

	// Auto-link this run's atoms on shared-tag overlap, then register.
	atom.AutoLink(newAtoms, p.cfg.Links.AutoLinkThreshold)
	for _, a := range newAtoms {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	result.NewAtoms = newAtoms
	report.NewAtoms = len(newAtoms)
	p.logger.Info("Materialized atoms", "count", len(newAtoms))

	// Graph is derived state over every known atom, recomputed in full.
	allAtoms := registry.AllAtoms()
	res := graph.NewAssembler(p.cfg.Links.SimilarityThreshold, p.logger).Assemble(allAtoms, nil)
	clusters := graph.DetectClusters(res.Nodes, res.Edges)
	metrics := graph.ComputeMetrics(res.Nodes, res.Edges, clusters)
	builtAt := p.now().UTC()
	index := graph.BuildIndex(res.Nodes, allAtoms, builtAt)

	result.Graph = res
	result.Clusters = clusters
	result.Metrics = metrics
	result.Index = index
	report.Health = metrics.Health
	p.collectFindings(report, res, clusters, metrics)

	if !opts.DryRun {
		if err := p.persist(ctx, result, clusters, index, metrics, builtAt); err != nil {
			return nil, err
		}
	}

	report.Finish(p.now().UTC())
	if !opts.DryRun {
		if err := report.Save(ctx, p.store); err != nil {
			return nil, err
		}
	}
	p.logger.Info("Build complete",
		"run_id", report.RunID,
		"atoms", report.NewAtoms,
		"valid", report.Valid,
		"health", string(metrics.Health))
	return result, nil
}

// extractAll parses and extracts all files with a bounded worker group.
// Results keep scan order so downstream id assignment is deterministic.
func (p *Pipeline) extractAll(ctx context.Context, sc *scanner.Scanner, files []scanner.File, granularity extract.Granularity, opts Options, report *Report) []document {
	extractor := extract.New(p.logger)

	type slot struct {
		doc document
		err error
	}
	// Slots are index-disjoint per worker; no extra locking needed.
	slots := make([]slot, len(files))

	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := sc.Read(f)
			if err != nil {
				slots[i] = slot{err: err}
				return nil
			}
			pattern, err := source.ParsePattern(f.RelPath, content)
			if err != nil {
				slots[i] = slot{err: err}
				return nil
			}
			if opts.Pattern != "" && pattern.Name != opts.Pattern {
				return nil
			}
			concepts, err := extractor.Extract(pattern, granularity)
			if err != nil {
				slots[i] = slot{err: err}
				return nil
			}
			slots[i] = slot{doc: document{file: f, pattern: pattern, concepts: concepts}}
			return nil
		})
	}
	// Workers only return context errors; everything else lands in slots.
	if err := g.Wait(); err != nil {
		p.logger.Warn("Extraction interrupted", "error", err)
	}

	var docs []document
	for i, s := range slots {
		switch {
		case s.err != nil:
			p.logger.Warn("Document failed", "path", files[i].RelPath, "error", s.err)
			report.AddFailure(files[i].RelPath, s.err)
		case s.doc.pattern != nil:
			docs = append(docs, s.doc)
		}
	}
	return docs
}

// collectFindings transfers assembly and metrics outcomes into the report.
func (p *Pipeline) collectFindings(report *Report, res *graph.Result, clusters []graph.Cluster, metrics *graph.Metrics) {
	for _, b := range res.Resolution.Broken {
		report.Add(SeverityStructural, "broken-link", b.From, fmt.Sprintf("unresolved reference %q", b.Text))
	}
	for _, d := range res.Duplicates {
		report.Add(SeverityStructural, "duplicate-edge", d.From, fmt.Sprintf("repeated edge to %s", d.To))
	}
	for _, a := range res.Resolution.Ambiguous {
		report.Add(SeverityQuality, "ambiguous-link", a.From, fmt.Sprintf("reference %q matches %d candidates", a.Text, len(a.Candidates)))
	}
	for _, id := range res.SelfLoops {
		report.Add(SeverityQuality, "self-loop", id, "node references itself")
	}
	for _, id := range metrics.OrphanedNodes {
		report.Add(SeverityQuality, "orphan", id, "node has no edges")
	}
	for _, c := range clusters {
		if c.Density < lowDensityThreshold {
			report.Add(SeverityQuality, "low-density", c.ID, fmt.Sprintf("cluster density %.3f", c.Density))
		}
	}
}

// persist writes every artifact: atom markdown, registry, and the four
// graph snapshot documents. Registry and snapshot share one timestamp so a
// fresh snapshot is never stale against the registry it was built from.
func (p *Pipeline) persist(ctx context.Context, result *Result, clusters []graph.Cluster, index *graph.Index, metrics *graph.Metrics, at time.Time) error {
	materializer := atom.NewMaterializer(p.now)
	for _, a := range result.NewAtoms {
		if err := materializer.Write(ctx, p.store, a); err != nil {
			return err
		}
	}
	if err := result.Registry.Save(ctx, p.store, at); err != nil {
		return err
	}
	snap := graph.NewSnapshot(result.Graph, clusters, index, metrics, at)
	return snap.Save(ctx, p.store)
}
