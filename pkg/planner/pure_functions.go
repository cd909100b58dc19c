package planner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
)

// GenerateItems flattens a work set and its orphans into executable items:
// resizes in derivation order, then deletes sorted by target.
func GenerateItems(ws *derive.WorkSet, orphans []string) []Item {
	items := make([]Item, 0, ws.Len()+len(orphans))

	for _, job := range ws.All() {
		items = append(items, Item{
			Action:  ActionResize,
			Source:  job.Source,
			Target:  job.Destination,
			Variant: job.Variant,
			Reason:  "missing derivative",
		})
	}

	deletes := make([]string, len(orphans))
	copy(deletes, orphans)
	sort.Strings(deletes)
	for _, path := range deletes {
		items = append(items, Item{
			Action: ActionDelete,
			Target: path,
			Reason: "no matching source",
		})
	}

	return items
}

// ValidateConfig rejects roots the engine cannot work with.
func ValidateConfig(cfg derive.Config) error {
	if cfg.SourceRoot == "" {
		return derive.NewConfigError("source root is not set")
	}
	if cfg.DerivativeRoot == "" {
		return derive.NewConfigError("derivative root is not set")
	}
	if !filepath.IsAbs(cfg.SourceRoot) || !filepath.IsAbs(cfg.DerivativeRoot) {
		return derive.NewConfigError("roots must be absolute: %s, %s", cfg.SourceRoot, cfg.DerivativeRoot)
	}
	if filepath.Clean(cfg.SourceRoot) == filepath.Clean(cfg.DerivativeRoot) {
		return derive.NewConfigError("source and derivative roots are the same directory: %s", cfg.SourceRoot)
	}
	return nil
}

// nestedDir returns inner when it lies strictly inside outer.
func nestedDir(outer, inner string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(outer), filepath.Clean(inner))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Clean(inner), true
}

// withoutSubtree drops the paths under dir.
func withoutSubtree(paths []string, dir string) []string {
	out := make([]string, 0, len(paths))
	prefix := dir + string(filepath.Separator)
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			continue
		}
		out = append(out, p)
	}
	return out
}
