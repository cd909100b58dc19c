package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
)

const maxWorkers = 32

// EnumerateParallel reads directories on a pool of workers and returns the
// same sorted result as Enumerate. The first read error aborts the pass.
func (w *Walker) EnumerateParallel(ctx context.Context, workers int) ([]string, error) {
	if workers <= 1 {
		return w.Enumerate(ctx)
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	ok, err := w.rootIsDir()
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	dirQueue := make(chan string, 1000)

	files := []string{}
	failed := make(chan struct{})
	var filesMu sync.Mutex
	var resultErr error
	var errOnce sync.Once
	var dirWg, workerWg sync.WaitGroup

	fail := func(err error) {
		errOnce.Do(func() {
			resultErr = err
			close(failed)
		})
	}

	workerWg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer workerWg.Done()

			for dir := range dirQueue {
				w.readDirInto(ctx, dir, failed, fail, &dirWg, dirQueue, &files, &filesMu)
				dirWg.Done()
			}
		}()
	}

	dirWg.Add(1)
	dirQueue <- w.root

	go func() {
		dirWg.Wait()
		close(dirQueue)
	}()

	workerWg.Wait()

	if resultErr != nil {
		return nil, resultErr
	}

	sort.Strings(files)
	return files, nil
}

func (w *Walker) readDirInto(
	ctx context.Context,
	dir string,
	failed <-chan struct{},
	fail func(error),
	dirWg *sync.WaitGroup,
	dirQueue chan<- string,
	files *[]string,
	filesMu *sync.Mutex,
) {
	select {
	case <-failed:
		return
	case <-ctx.Done():
		fail(ctx.Err())
		return
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fail(&derive.FsError{Op: "read directory", Path: dir, Err: err})
		return
	}

	var found []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if w.skipDir(path) {
				continue
			}
			dirWg.Add(1)
			select {
			case dirQueue <- path:
			default:
				// Queue full: hand off without blocking this worker.
				go func(p string) {
					dirQueue <- p
				}(path)
			}
			continue
		}

		if !w.accept(path) || isLinkedDir(path, entry) {
			continue
		}
		found = append(found, path)
	}

	if len(found) > 0 {
		filesMu.Lock()
		*files = append(*files, found...)
		filesMu.Unlock()
	}
}
