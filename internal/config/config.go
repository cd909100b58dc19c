package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/s3client"
)

type Config struct {
	SourceRoot       string       `yaml:"source_root"`
	DerivativeRoot   string       `yaml:"derivative_root"`
	Sizes            []SizeConfig `yaml:"sizes"`
	Excludes         []string     `yaml:"excludes"`
	Extensions       []string     `yaml:"extensions"`
	Concurrency      int          `yaml:"concurrency"`
	EnumerateWorkers int          `yaml:"enumerate_workers"`
	Delete           bool         `yaml:"delete"`
	S3               S3Config     `yaml:"s3"`
}

type SizeConfig struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Mode    string `yaml:"mode"`
	Quality int    `yaml:"quality"`
}

// S3Config moves the derivative tree to a bucket. DerivativeRoot then only
// names the local view of it.
type S3Config struct {
	URI     string `yaml:"uri"`
	Profile string `yaml:"profile"`
	Region  string `yaml:"region"`
}

// Load reads a YAML config file. Relative roots are taken relative to the
// file's directory. The result is not validated, flags may still fill it in.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	dir := filepath.Dir(path)
	cfg.SourceRoot = absFrom(dir, cfg.SourceRoot)
	cfg.DerivativeRoot = absFrom(dir, cfg.DerivativeRoot)

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SourceRoot == "" {
		return derive.NewConfigError("source_root is required")
	}
	if c.DerivativeRoot == "" {
		return derive.NewConfigError("derivative_root is required")
	}
	if len(c.Sizes) == 0 {
		return derive.NewConfigError("at least one size is required")
	}
	if c.Concurrency < 0 || c.EnumerateWorkers < 0 {
		return derive.NewConfigError("concurrency must not be negative")
	}
	if c.S3.URI != "" {
		if _, _, err := s3client.ParseS3URI(c.S3.URI); err != nil {
			return derive.NewConfigError("s3.uri: %v", err)
		}
	}
	if err := derive.ValidateVariants(c.Variants()); err != nil {
		return err
	}
	return derive.ValidateSizes(c.Variants())
}

// Variants converts the configured sizes, keeping their order.
func (c *Config) Variants() []derive.SizeVariant {
	out := make([]derive.SizeVariant, 0, len(c.Sizes))
	for _, s := range c.Sizes {
		out = append(out, derive.SizeVariant{
			Name:    s.Name,
			Width:   s.Width,
			Height:  s.Height,
			Mode:    derive.ResizeMode(s.Mode),
			Quality: s.Quality,
		})
	}
	return out
}

// Engine returns the roots the engine works against.
func (c *Config) Engine() derive.Config {
	return derive.Config{
		SourceRoot:     c.SourceRoot,
		DerivativeRoot: c.DerivativeRoot,
	}
}

// ParseSize parses the --size flag syntax:
//
//	name=WxH[:fit|fill][@quality]
//
// Either dimension may be left out ("w800=800x") to bound one side only.
func ParseSize(s string) (SizeConfig, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return SizeConfig{}, fmt.Errorf("invalid size %q: want name=WxH[:mode][@quality]", s)
	}
	size := SizeConfig{Name: name}

	if before, q, found := strings.Cut(rest, "@"); found {
		quality, err := strconv.Atoi(q)
		if err != nil {
			return SizeConfig{}, fmt.Errorf("invalid size %q: bad quality %q", s, q)
		}
		size.Quality = quality
		rest = before
	}

	if before, mode, found := strings.Cut(rest, ":"); found {
		size.Mode = mode
		rest = before
	}

	w, h, found := strings.Cut(rest, "x")
	if !found {
		return SizeConfig{}, fmt.Errorf("invalid size %q: want WxH", s)
	}
	var err error
	if size.Width, err = parseDim(w); err != nil {
		return SizeConfig{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if size.Height, err = parseDim(h); err != nil {
		return SizeConfig{}, fmt.Errorf("invalid size %q: %w", s, err)
	}

	return size, nil
}

func parseDim(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad dimension %q", s)
	}
	return n, nil
}

func absFrom(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
