package enumerate

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
)

// DefaultExtensions are the image extensions accepted when none are configured.
var DefaultExtensions = []string{"jpg", "jpeg"}

type Options struct {
	// Extensions accepted, compared lower-cased and without the dot.
	Extensions []string
	// Excludes are doublestar patterns matched against the slash-separated
	// path relative to the root. A pattern ending in "/" excludes a directory.
	Excludes []string
	// SkipDirs are directories never descended into, e.g. a derivative tree
	// nested inside the source tree.
	SkipDirs []string
}

// Walker walks an image tree
type Walker struct {
	root       string
	excludes   []string
	skipDirs   map[string]struct{}
	extensions map[string]struct{}
}

// NewWalker creates a walker. The root does not need to exist.
func NewWalker(root string, opts Options) *Walker {
	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[filepath.Clean(d)] = struct{}{}
	}

	return &Walker{
		root:       root,
		excludes:   opts.Excludes,
		skipDirs:   skip,
		extensions: extensionSet(opts.Extensions),
	}
}

// Enumerate returns every accepted image under root, sorted. A missing root
// yields an empty result.
func Enumerate(root string) ([]string, error) {
	return NewWalker(root, Options{}).Enumerate(context.Background())
}

// Enumerate walks the whole tree and sorts the result.
func (w *Walker) Enumerate(ctx context.Context) ([]string, error) {
	files := []string{}
	err := w.Walk(ctx, func(path string) error {
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Walk calls fn for each accepted file, depth first, in directory order.
// Nothing is buffered beyond the directory being read. An error from fn stops
// the walk and is returned as is.
func (w *Walker) Walk(ctx context.Context, fn func(path string) error) error {
	ok, err := w.rootIsDir()
	if err != nil || !ok {
		return err
	}
	return w.walkDir(ctx, w.root, fn)
}

func (w *Walker) walkDir(ctx context.Context, dir string, fn func(path string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &derive.FsError{Op: "read directory", Path: dir, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if w.skipDir(path) {
				continue
			}
			if err := w.walkDir(ctx, path, fn); err != nil {
				return err
			}
			continue
		}

		if !w.accept(path) || isLinkedDir(path, entry) {
			continue
		}
		if err := fn(path); err != nil {
			return err
		}
	}

	return nil
}

// rootIsDir reports whether the root exists as a directory. Not existing, or
// being something else, is not an error.
func (w *Walker) rootIsDir() (bool, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &derive.FsError{Op: "stat", Path: w.root, Err: err}
	}
	return info.IsDir(), nil
}

// accept checks the extension and the exclude patterns of a file.
func (w *Walker) accept(path string) bool {
	if !hasExtension(filepath.Base(path), w.extensions) {
		return false
	}
	return !w.isExcluded(w.relSlash(path), false)
}

// HasImageExtension reports whether name carries one of extensions
// (DefaultExtensions when empty), ignoring case.
func HasImageExtension(name string, extensions []string) bool {
	return hasExtension(name, extensionSet(extensions))
}

func hasExtension(name string, set map[string]struct{}) bool {
	_, ext := derive.SplitName(name)
	if ext == "" {
		return false
	}
	_, ok := set[strings.ToLower(ext)]
	return ok
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return set
}

func (w *Walker) skipDir(path string) bool {
	if _, ok := w.skipDirs[filepath.Clean(path)]; ok {
		return true
	}
	return w.isExcluded(w.relSlash(path), true)
}

func (w *Walker) relSlash(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string, isDir bool) bool {
	for _, pattern := range w.excludes {
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			if isDir {
				if matched, _ := doublestar.Match(dirPattern, path); matched {
					return true
				}
				continue
			}
			// Also check if any parent directory matches
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
			continue
		}

		if isDir {
			continue
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// isLinkedDir reports a symlink pointing at a directory. Linked directories
// are neither descended nor reported, so link cycles cannot loop the walk.
func isLinkedDir(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
