package planner

import (
	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/logger"
)

type Options struct {
	// DeleteEnabled adds a delete item for every orphaned derivative.
	DeleteEnabled bool
	// Excludes are doublestar patterns relative to the source root.
	Excludes   []string
	Extensions []string
	// EnumerateWorkers > 1 walks the source tree in parallel.
	EnumerateWorkers int
	Logger           logger.Logger
}

type Action string

const (
	ActionResize Action = "resize"
	ActionDelete Action = "delete"
)

type Item struct {
	Action Action
	// Source is empty for deletes.
	Source  string
	Target  string
	Variant derive.SizeVariant
	Reason  string
}

// Plan is the outcome of one planning pass.
type Plan struct {
	WorkSet *derive.WorkSet
	Orphans []string
	Items   []Item
}

// Fingerprint identifies the pending resize work and the orphans.
func (p *Plan) Fingerprint() string {
	if len(p.Orphans) == 0 {
		return p.WorkSet.Fingerprint()
	}
	return p.WorkSet.Fingerprint() + "+" + derive.FingerprintPaths(p.Orphans)
}

func (p *Plan) Resizes() int { return p.WorkSet.Len() }

func (p *Plan) Deletes() int { return len(p.Orphans) }

// UpToDate is the number of sources with every derivative present.
func (p *Plan) UpToDate() int { return len(p.WorkSet.UpToDate()) }

func (p *Plan) IsEmpty() bool { return len(p.Items) == 0 }
