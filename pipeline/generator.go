// Package pipeline drives the generation of each configured table:
// fetch, extract, normalize, fold, render and write.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"doctables/config"
	"doctables/fetcher"
	"doctables/filter"
	"doctables/lookup"
	"doctables/models"
	"doctables/parser"
	"doctables/render"

	"go.uber.org/zap"
)

// Sink receives every table once its file has been written
type Sink interface {
	SaveTable(ctx context.Context, target string, table *lookup.Table) error
}

// Generator builds tables from their sources and writes them out
type Generator struct {
	cfg       *config.Config
	fetcher   fetcher.Fetcher
	parse     parser.ParseFunc
	extractor *parser.Extractor
	logger    *zap.Logger
	root      string
	sinks     []Sink
}

// NewGenerator creates a Generator. Output paths are relative to root.
func NewGenerator(cfg *config.Config, f fetcher.Fetcher, parse parser.ParseFunc, logger *zap.Logger, root string, sinks ...Sink) *Generator {
	return &Generator{
		cfg:       cfg,
		fetcher:   f,
		parse:     parse,
		extractor: parser.NewExtractor(f, parse, logger),
		logger:    logger,
		root:      root,
		sinks:     sinks,
	}
}

// Run generates the named targets, or every target when names is empty.
// The first failure stops the run.
func (g *Generator) Run(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = g.cfg.Names()
	}
	for _, name := range names {
		target, ok := g.cfg.Target(name)
		if !ok {
			return fmt.Errorf("unknown target %q", name)
		}
		if err := g.Generate(ctx, *target); err != nil {
			return fmt.Errorf("target %s: %w", name, err)
		}
	}
	return nil
}

// Generate builds one target and overwrites its output file. Nothing is
// written unless every source was read successfully.
func (g *Generator) Generate(ctx context.Context, target config.Target) error {
	meta, err := target.Meta(g.cfg.Generator)
	if err != nil {
		return err
	}

	table, err := g.Build(target)
	if err != nil {
		return err
	}
	g.logger.Info("table built", zap.String("target", target.Name), zap.Int("entries", table.Len()))

	src, err := render.Render(table, meta)
	if err != nil {
		return err
	}

	path := filepath.Join(g.root, target.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, src, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	g.logger.Info("generated", zap.String("target", target.Name), zap.String("path", path))

	for _, sink := range g.sinks {
		if err := sink.SaveTable(ctx, target.Name, table); err != nil {
			g.logger.Warn("failed to export table", zap.String("target", target.Name), zap.Error(err))
		}
	}
	return nil
}

// Build reads every source of target, in order, into a single table
func (g *Generator) Build(target config.Target) (*lookup.Table, error) {
	sources, err := target.ExpandSources(g.cfg.Language)
	if err != nil {
		return nil, err
	}
	merge, err := target.MergePolicy()
	if err != nil {
		return nil, err
	}
	valid, err := validator(target, merge)
	if err != nil {
		return nil, err
	}

	table := lookup.NewTable()
	for _, src := range sources {
		rows, err := g.read(src)
		if err != nil {
			return nil, err
		}
		kept := filter.NewNormalizer(src, valid).Apply(rows)
		fields := []zap.Field{
			zap.String("url", src.URL),
			zap.Int("rows", len(rows)),
			zap.Int("kept", len(kept)),
		}
		if src.Label != "" {
			fields = append(fields, zap.String("range", src.Label))
		}
		g.logger.Info("rows extracted", fields...)
		table.Add(kept, merge)
	}
	return table, nil
}

func (g *Generator) read(src models.Source) ([]models.Row, error) {
	body, err := g.fetcher.Fetch(src.URL)
	if err != nil {
		return nil, err
	}
	doc, err := g.parse.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.URL, err)
	}
	rows, err := g.extractor.Extract(doc, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.URL, err)
	}
	return rows, nil
}

// validator returns the row check matching what the renderer accepts for
// the target
func validator(target config.Target, merge lookup.Merge) (func(models.Row) bool, error) {
	kind, err := render.ParseKind(target.Kind)
	if err != nil {
		return nil, err
	}

	if kind == render.KindColors {
		if merge != lookup.FirstWins {
			return nil, fmt.Errorf("color tables are keyed by name and need the first merge policy")
		}
		return func(r models.Row) bool {
			if _, ok := render.ColorName(r.Name); !ok {
				return false
			}
			_, err := render.ParseColor(r.Value)
			return err == nil
		}, nil
	}

	return func(r models.Row) bool {
		if merge == lookup.LastWins {
			return render.IsCaseKey(r.Value)
		}
		return render.IsCaseKey(r.Name)
	}, nil
}
