package planner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/enumerate"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

// checker is implemented by stores that can detect a broken root up front.
type checker interface {
	Check() error
}

// Planner compares the source tree with the derivatives held by a store.
type Planner struct {
	store  store.Store
	logger logger.Logger
}

func New(st store.Store, log logger.Logger) *Planner {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Planner{store: st, logger: log}
}

func (p *Planner) Plan(ctx context.Context, cfg derive.Config, variants []derive.SizeVariant, opts Options) (*Plan, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := derive.ValidateVariants(variants); err != nil {
		return nil, err
	}
	if err := derive.ValidateSizes(variants); err != nil {
		return nil, err
	}
	if root := filepath.Clean(p.store.Root()); root != filepath.Clean(cfg.DerivativeRoot) {
		return nil, derive.NewConfigError("store root %s does not match derivative root %s", root, cfg.DerivativeRoot)
	}

	if c, ok := p.store.(checker); ok {
		if err := c.Check(); err != nil {
			return nil, err
		}
	}

	log := opts.Logger
	if log == nil {
		log = p.logger
	}

	walkOpts := enumerate.Options{
		Extensions: opts.Extensions,
		Excludes:   opts.Excludes,
	}
	if dir, ok := nestedDir(cfg.SourceRoot, cfg.DerivativeRoot); ok {
		walkOpts.SkipDirs = append(walkOpts.SkipDirs, dir)
	}

	sources, err := enumerate.NewWalker(cfg.SourceRoot, walkOpts).EnumerateParallel(ctx, opts.EnumerateWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sources: %w", err)
	}
	log.Debug(fmt.Sprintf("found %d sources under %s", len(sources), cfg.SourceRoot))

	derivatives, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list derivatives: %w", err)
	}
	// a source tree nested in the derivative tree shows up in the listing
	if dir, ok := nestedDir(cfg.DerivativeRoot, cfg.SourceRoot); ok {
		derivatives = withoutSubtree(derivatives, dir)
	}
	log.Debug(fmt.Sprintf("found %d derivatives under %s", len(derivatives), cfg.DerivativeRoot))

	ws, err := derive.DeriveJobs(cfg, sources, derivatives, variants)
	if err != nil {
		return nil, err
	}

	orphans := []string{}
	if opts.DeleteEnabled {
		orphans, err = derive.Orphans(cfg, sources, derivatives, variants)
		if err != nil {
			return nil, err
		}
	}

	return &Plan{
		WorkSet: ws,
		Orphans: orphans,
		Items:   GenerateItems(ws, orphans),
	}, nil
}
