package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/planner"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

var thumb = derive.SizeVariant{Name: "thumb", Width: 300, Height: 300}

func TestExecute(t *testing.T) {
	resizeErr := errors.New("corrupt jpeg")

	proc := &mockProcessor{processFunc: func(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
		if job.Source == "/orig/bad.jpg" {
			return 0, resizeErr
		}
		return 100, nil
	}}
	var deleted []string
	st := &mockStore{deleteFunc: func(ctx context.Context, path string) error {
		deleted = append(deleted, path)
		return nil
	}}
	log := &mockLogger{}

	items := []planner.Item{
		{Action: planner.ActionResize, Source: "/orig/a.jpg", Target: "/resized/a-thumb.jpg", Variant: thumb},
		{Action: planner.ActionResize, Source: "/orig/bad.jpg", Target: "/resized/bad-thumb.jpg", Variant: thumb},
		{Action: planner.ActionDelete, Target: "/resized/old-thumb.jpg"},
	}

	results := NewExecutor(proc, st, log, 1).Execute(context.Background(), items)
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Item.Target != items[i].Target {
			t.Errorf("result %d is for %s, want %s", i, r.Item.Target, items[i].Target)
		}
	}
	if results[0].Error != nil || results[0].Bytes != 100 {
		t.Errorf("result 0 = %+v", results[0])
	}
	if !errors.Is(results[1].Error, resizeErr) {
		t.Errorf("result 1 error = %v, want %v", results[1].Error, resizeErr)
	}
	if results[2].Error != nil {
		t.Errorf("result 2 error = %v", results[2].Error)
	}
	if len(deleted) != 1 || deleted[0] != "/resized/old-thumb.jpg" {
		t.Errorf("deleted = %v", deleted)
	}
	if len(log.resizes) != 2 || len(log.deletes) != 1 || len(log.errors) != 1 {
		t.Errorf("logged %d resizes, %d deletes, %d errors", len(log.resizes), len(log.deletes), len(log.errors))
	}

	s := Summarize(results)
	want := Summary{Resized: 1, Deleted: 1, Failed: 1, BytesWritten: 100}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
}

func TestExecuteDuplicateDestination(t *testing.T) {
	var calls int32
	proc := &mockProcessor{processFunc: func(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}}

	// x.jpg with "a-b" and x-a.jpg with "b" both resolve to x-a-b.jpg
	items := []planner.Item{
		{Action: planner.ActionResize, Source: "/orig/x.jpg", Target: "/resized/x-a-b.jpg", Variant: derive.SizeVariant{Name: "a-b", Width: 10}},
		{Action: planner.ActionResize, Source: "/orig/x-a.jpg", Target: "/resized/x-a-b.jpg", Variant: derive.SizeVariant{Name: "b", Width: 10}},
	}

	results := NewExecutor(proc, &mockStore{}, nil, 4).Execute(context.Background(), items)
	if results[0].Error != nil {
		t.Errorf("first item failed: %v", results[0].Error)
	}
	if !errors.Is(results[1].Error, ErrDuplicateDestination) {
		t.Errorf("second item error = %v, want ErrDuplicateDestination", results[1].Error)
	}
	if calls != 1 {
		t.Errorf("processor called %d times, want 1", calls)
	}
}

func TestExecuteConcurrencyLimit(t *testing.T) {
	var running, peak int32
	proc := &mockProcessor{processFunc: func(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return 1, nil
	}}

	var items []planner.Item
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		items = append(items, planner.Item{
			Action: planner.ActionResize,
			Source: "/orig/" + name + ".jpg",
			Target: "/resized/" + name + "-thumb.jpg",
		})
	}

	results := NewExecutor(proc, &mockStore{}, nil, 2).Execute(context.Background(), items)
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("%s: %v", r.Item.Target, r.Error)
		}
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestExecuteCancelled(t *testing.T) {
	proc := &mockProcessor{processFunc: func(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
		t.Errorf("Process called for %s after cancel", job.Source)
		return 0, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []planner.Item{
		{Action: planner.ActionResize, Source: "/orig/a.jpg", Target: "/resized/a-thumb.jpg"},
		{Action: planner.ActionResize, Source: "/orig/b.jpg", Target: "/resized/b-thumb.jpg"},
	}
	results := NewExecutor(proc, &mockStore{}, nil, 1).Execute(ctx, items)

	for _, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", r.Item.Target, r.Error)
		}
	}
}
