package store

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint computes a deterministic hash over every fact in the Store.
// Two stores with equal content have equal fingerprints regardless of the
// order in which facts were added.
func (s *Store) Fingerprint() string {
	h := sha256.New()
	s.Walk(func(category, key, value string) {
		// Length-prefixed so that separators inside keys cannot collide.
		fmt.Fprintf(h, "%d:%s%d:%s%d:%s\n", len(category), category, len(key), key, len(value), value)
	})
	return fmt.Sprintf("%x", h.Sum(nil))
}
