package derive

import (
	"path/filepath"
	"strings"
)

// Resolve returns where the derivative of source for variant lives:
//
//	<DerivativeRoot>/<dir of source relative to SourceRoot>/<stem>-<variant>.<ext>
//
// Stem and extension keep their casing. Resolve does no I/O.
func Resolve(cfg Config, source string, variant SizeVariant) (string, error) {
	p := filepath.Clean(source)

	// A path that already points into the derivative tree is read as the
	// source it mirrors.
	if cfg.DerivativeRoot != "" && isUnder(cfg.DerivativeRoot, p) && !isUnder(cfg.SourceRoot, p) {
		rel, err := filepath.Rel(cfg.DerivativeRoot, p)
		if err != nil {
			return "", pathError(ErrPrefixMismatch, source)
		}
		p = filepath.Join(cfg.SourceRoot, rel)
	}

	name := filepath.Base(p)
	if source == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", pathError(ErrMissingFileName, source)
	}
	stem, ext := SplitName(name)

	if !strings.ContainsRune(p, filepath.Separator) {
		return "", pathError(ErrMissingParent, source)
	}
	relDir, ok := relativeTo(cfg.SourceRoot, filepath.Dir(p))
	if !ok {
		return "", pathError(ErrPrefixMismatch, source)
	}

	if ext == "" {
		return "", pathError(ErrMissingExtension, source)
	}

	return filepath.Join(cfg.DerivativeRoot, relDir, DerivativeName(stem, variant.Name, ext)), nil
}

// DerivativeName is the on-disk naming contract for derivatives.
func DerivativeName(stem, variant, ext string) string {
	return stem + "-" + variant + "." + ext
}

// SplitName splits a file name at its last dot. A leading dot does not start
// an extension, so ".hidden" has no extension and "beach." has an empty one.
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// relativeTo returns path relative to root, or false if path escapes root.
func relativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func isUnder(root, path string) bool {
	if root == "" {
		return false
	}
	_, ok := relativeTo(root, path)
	return ok
}
