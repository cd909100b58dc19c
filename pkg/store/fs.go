package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/enumerate"
)

// FSStore keeps derivatives in a local directory tree.
type FSStore struct {
	root    string
	walker  *enumerate.Walker
	workers int
}

// NewFSStore lists root with opts. workers > 1 lists in parallel.
func NewFSStore(root string, opts enumerate.Options, workers int) *FSStore {
	return &FSStore{
		root:    root,
		walker:  enumerate.NewWalker(root, opts),
		workers: workers,
	}
}

func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Prepare(ctx context.Context) error {
	return EnsureDir(s.root)
}

// Check fails with a ConfigError when the root exists but is not a
// directory. It creates nothing, so dry runs can call it.
func (s *FSStore) Check() error {
	info, err := os.Stat(s.root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return &derive.FsError{Op: "stat", Path: s.root, Err: err}
	case !info.IsDir():
		return derive.NewConfigError("%s exists and is not a directory", s.root)
	}
	return nil
}

func (s *FSStore) List(ctx context.Context) ([]string, error) {
	return s.walker.EnumerateParallel(ctx, s.workers)
}

// Put writes through a temp file in the destination directory so a reader
// never sees a partial derivative.
func (s *FSStore) Put(ctx context.Context, req *PutRequest) error {
	if !within(s.root, req.Path) {
		return fmt.Errorf("refusing to write %s outside %s", req.Path, s.root)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(req.Path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".resize-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(req.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", req.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", req.Path, err)
	}
	if !req.ModTime.IsZero() {
		if err := os.Chtimes(tmpName, req.ModTime, req.ModTime); err != nil {
			return fmt.Errorf("failed to set times on %s: %w", req.Path, err)
		}
	}

	if err := os.Rename(tmpName, req.Path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", req.Path, err)
	}
	return nil
}

// Delete removes a derivative. Deleting a missing file is not an error.
func (s *FSStore) Delete(ctx context.Context, path string) error {
	if !within(s.root, path) {
		return fmt.Errorf("refusing to delete %s outside %s", path, s.root)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// EnsureDir creates path and its parents. An existing non-directory at path
// is a configuration error.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return derive.NewConfigError("%s exists and is not a directory", path)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return &derive.FsError{Op: "stat", Path: path, Err: err}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return &derive.FsError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
