package derive

import (
	"sort"
)

// DeriveJobs computes, for every source, the variants whose derivative is not
// in derivatives. Sources keep their given order (Enumerate sorts them);
// jobs follow variant order. The first resolve failure aborts the whole diff.
func DeriveJobs(cfg Config, sources, derivatives []string, variants []SizeVariant) (*WorkSet, error) {
	if err := ValidateVariants(variants); err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(derivatives))
	for _, d := range derivatives {
		existing[d] = struct{}{}
	}

	ws := newWorkSet(len(sources))
	for _, src := range sources {
		if !ws.add(src) {
			continue
		}

		for _, v := range variants {
			dest, err := Resolve(cfg, src, v)
			if err != nil {
				return nil, err
			}

			if _, ok := existing[dest]; ok {
				continue
			}

			ws.push(ResizeJob{
				Source:      src,
				Destination: dest,
				Variant:     v,
			})
		}
	}

	return ws, nil
}

// Orphans returns the derivatives no (source, variant) pair resolves to,
// sorted. These are left behind when a source is removed or a variant is
// dropped from the configuration.
func Orphans(cfg Config, sources, derivatives []string, variants []SizeVariant) ([]string, error) {
	expected := make(map[string]struct{}, len(sources)*len(variants))
	for _, src := range sources {
		for _, v := range variants {
			dest, err := Resolve(cfg, src, v)
			if err != nil {
				return nil, err
			}
			expected[dest] = struct{}{}
		}
	}

	orphans := []string{}
	seen := make(map[string]struct{}, len(derivatives))
	for _, d := range derivatives {
		if _, ok := expected[d]; ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		orphans = append(orphans, d)
	}

	sort.Strings(orphans)
	return orphans, nil
}
