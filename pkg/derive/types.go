package derive

import (
	"path/filepath"
	"strings"
)

// Config holds the two tree roots every engine call works against.
type Config struct {
	SourceRoot     string
	DerivativeRoot string
}

type ResizeMode string

const (
	ModeFit  ResizeMode = "fit"
	ModeFill ResizeMode = "fill"
)

// SizeVariant is a named resize configuration. Name ends up verbatim in the
// derivative file name.
type SizeVariant struct {
	Name    string
	Width   int
	Height  int
	Mode    ResizeMode
	Quality int
}

// ResizeJob is one (source, variant) pair whose derivative is missing.
type ResizeJob struct {
	Source      string
	Destination string
	Variant     SizeVariant
}

// WorkSet maps each source file to the jobs it still needs, keeping sources in
// the order they were derived.
type WorkSet struct {
	order []string
	jobs  map[string][]ResizeJob
}

func newWorkSet(capacity int) *WorkSet {
	return &WorkSet{
		order: make([]string, 0, capacity),
		jobs:  make(map[string][]ResizeJob, capacity),
	}
}

// add registers source as a key. It reports false if it was already present.
func (w *WorkSet) add(source string) bool {
	if _, ok := w.jobs[source]; ok {
		return false
	}
	w.order = append(w.order, source)
	w.jobs[source] = []ResizeJob{}
	return true
}

func (w *WorkSet) push(job ResizeJob) {
	w.jobs[job.Source] = append(w.jobs[job.Source], job)
}

// Sources returns every source key in derivation order.
func (w *WorkSet) Sources() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Jobs returns the jobs for source. ok is false when source is not a key.
func (w *WorkSet) Jobs(source string) (jobs []ResizeJob, ok bool) {
	jobs, ok = w.jobs[source]
	if !ok {
		return nil, false
	}
	out := make([]ResizeJob, len(jobs))
	copy(out, jobs)
	return out, true
}

// All flattens the work set into sources × variants order.
func (w *WorkSet) All() []ResizeJob {
	var out []ResizeJob
	for _, src := range w.order {
		out = append(out, w.jobs[src]...)
	}
	return out
}

// Len is the total number of jobs.
func (w *WorkSet) Len() int {
	n := 0
	for _, jobs := range w.jobs {
		n += len(jobs)
	}
	return n
}

// SourceCount is the number of source keys, including up to date ones.
func (w *WorkSet) SourceCount() int {
	return len(w.order)
}

// UpToDate returns the sources that need no work.
func (w *WorkSet) UpToDate() []string {
	var out []string
	for _, src := range w.order {
		if len(w.jobs[src]) == 0 {
			out = append(out, src)
		}
	}
	return out
}

// IsEmpty reports whether no job is pending.
func (w *WorkSet) IsEmpty() bool {
	return w.Len() == 0
}

// ValidateVariants checks names are usable in file names and unique.
func ValidateVariants(variants []SizeVariant) error {
	seen := make(map[string]struct{}, len(variants))
	for i, v := range variants {
		if v.Name == "" {
			return configErrorf("size variant #%d has an empty name", i+1)
		}
		if strings.ContainsRune(v.Name, filepath.Separator) || strings.ContainsRune(v.Name, '/') {
			return configErrorf("size variant %q contains a path separator", v.Name)
		}
		if _, dup := seen[v.Name]; dup {
			return configErrorf("size variant %q is defined more than once", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// ValidateSizes checks what the resize step needs from each variant:
// dimensions, mode and quality. Derivation itself only needs names.
func ValidateSizes(variants []SizeVariant) error {
	for _, v := range variants {
		if v.Width < 0 || v.Height < 0 {
			return configErrorf("size variant %q has negative dimensions", v.Name)
		}
		if v.Width == 0 && v.Height == 0 {
			return configErrorf("size variant %q needs a width or a height", v.Name)
		}
		if v.Mode == ModeFill && (v.Width == 0 || v.Height == 0) {
			return configErrorf("size variant %q: fill needs both width and height", v.Name)
		}
		if v.Mode != "" && v.Mode != ModeFit && v.Mode != ModeFill {
			return configErrorf("size variant %q has unknown mode %q", v.Name, v.Mode)
		}
		if v.Quality < 0 || v.Quality > 100 {
			return configErrorf("size variant %q: quality must be between 1 and 100", v.Name)
		}
	}
	return nil
}
