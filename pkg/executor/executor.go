package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/planner"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

// ErrDuplicateDestination is reported for an item whose target is already
// claimed by an earlier item of the same batch, e.g. x.jpg with variant "a-b"
// and x-a.jpg with variant "b".
var ErrDuplicateDestination = errors.New("destination already claimed by another item")

// Processor renders a resize job into a store.
type Processor interface {
	Process(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error)
}

type Executor struct {
	processor   Processor
	store       store.Store
	logger      logger.Logger
	concurrency int
}

func NewExecutor(processor Processor, st store.Store, log logger.Logger, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = 8
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Executor{
		processor:   processor,
		store:       st,
		logger:      log,
		concurrency: concurrency,
	}
}

type Result struct {
	Item  planner.Item
	Bytes int64
	Error error
}

// Execute runs every item and returns one result per item, in item order.
// A failing item does not stop the others.
func (e *Executor) Execute(ctx context.Context, items []planner.Item) []Result {
	results := make([]Result, len(items))
	claimed := claimTargets(items)

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if !claimed[i] {
			results[i] = Result{
				Item:  item,
				Error: fmt.Errorf("%s: %w", item.Target, ErrDuplicateDestination),
			}
			e.logger.Error(string(item.Action), item.Target, results[i].Error)
			continue
		}

		wg.Add(1)
		go func(idx int, itm planner.Item) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = Result{Item: itm, Error: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			switch itm.Action {
			case planner.ActionResize:
				e.logger.Resize(itm.Source, itm.Target)
			case planner.ActionDelete:
				e.logger.Delete(itm.Target)
			}

			n, err := e.executeItem(ctx, itm)
			if err != nil {
				e.logger.Error(string(itm.Action), itm.Target, err)
			}

			results[idx] = Result{
				Item:  itm,
				Bytes: n,
				Error: err,
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (e *Executor) executeItem(ctx context.Context, item planner.Item) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch item.Action {
	case planner.ActionResize:
		n, err := e.processor.Process(ctx, derive.ResizeJob{
			Source:      item.Source,
			Destination: item.Target,
			Variant:     item.Variant,
		}, e.store)
		if err != nil {
			return 0, fmt.Errorf("failed to resize: %w", err)
		}
		return n, nil
	case planner.ActionDelete:
		if err := e.store.Delete(ctx, item.Target); err != nil {
			return 0, fmt.Errorf("failed to delete: %w", err)
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown action %q", item.Action)
	}
}

// claimTargets marks the first item per target as runnable.
func claimTargets(items []planner.Item) []bool {
	claimed := make([]bool, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if _, dup := seen[item.Target]; dup {
			continue
		}
		seen[item.Target] = struct{}{}
		claimed[i] = true
	}
	return claimed
}

// Summary counts results by outcome.
type Summary struct {
	Resized      int
	Deleted      int
	Failed       int
	BytesWritten int64
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Item.Action == planner.ActionResize:
			s.Resized++
			s.BytesWritten += r.Bytes
		case r.Item.Action == planner.ActionDelete:
			s.Deleted++
		}
	}
	return s
}
