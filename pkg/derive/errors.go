package derive

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFileName  = errors.New("path missing file name")
	ErrMissingParent    = errors.New("path missing parent")
	ErrPrefixMismatch   = errors.New("path not under source root")
	ErrMissingExtension = errors.New("path missing extension")
)

// PathError reports a malformed path. Kind is one of the Err* sentinels above.
type PathError struct {
	Kind error
	Path string
}

func (e *PathError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Path)
}

func (e *PathError) Unwrap() error { return e.Kind }

// FsError is an I/O failure while enumerating a tree.
type FsError struct {
	Op   string
	Path string
	Err  error
}

func (e *FsError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FsError) Unwrap() error { return e.Err }

// ConfigError is a fatal setup problem detected before any enumeration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return "invalid configuration: " + e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// NewConfigError builds a ConfigError for callers outside this package.
func NewConfigError(format string, args ...any) error {
	return configErrorf(format, args...)
}

func pathError(kind error, path string) error {
	return &PathError{Kind: kind, Path: path}
}
