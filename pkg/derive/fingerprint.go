package derive

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is an xxHash64 over every job in order. Two derivations against
// unchanged trees produce the same fingerprint.
func (w *WorkSet) Fingerprint() string {
	h := xxhash.New()
	for _, src := range w.order {
		_, _ = h.WriteString(src)
		_, _ = h.WriteString("\x00")
		for _, job := range w.jobs[src] {
			_, _ = h.WriteString(job.Destination)
			_, _ = h.WriteString("\x00")
			_, _ = h.WriteString(job.Variant.Name)
			_, _ = h.WriteString("\n")
		}
	}
	return hexSum(h)
}

// FingerprintPaths hashes a path list the same way, e.g. a set of orphans.
func FingerprintPaths(paths []string) string {
	h := xxhash.New()
	for _, p := range paths {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\n")
	}
	return hexSum(h)
}

func hexSum(h *xxhash.Digest) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return hex.EncodeToString(buf[:])
}
