// Package digest computes stable 64-bit content digests for arbitrary
// comparable values and keeps the injective digest-to-value registries
// the engine interns states and transition labels into.
package digest

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Digest is a 64-bit content hash. It is deterministic and collision-
// equivalent to equality within one process run, but is not guaranteed
// to be stable across runs or across Go versions.
type Digest uint64

// Hash computes the Digest of v by gob-encoding it and running xxhash
// over the resulting bytes. gob encoding is deterministic for a given
// concrete type's field order, which is all the determinism-within-one-
// run contract requires.
//
// Hash panics if v cannot be gob-encoded (e.g. it contains unexported
// fields with no exported path, channels, or funcs). Callers are
// expected to supply plain data types for S and T, as spec'd.
func Hash[V any](v V) Digest {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		panic(fmt.Sprintf("digest: value of type %T is not hashable: %v", v, err))
	}
	return Digest(xxhash.Sum64(buf.Bytes()))
}

// Registry is an injective digest -> value map. Last-writer-wins on a
// digest collision, treated as a 2⁻⁶⁴-probability event not worth
// guarding against. Safe for concurrent use; writes are expected to be rare
// relative to reads (interning happens once per newly discovered
// state/label, reads happen on every query).
type Registry[V any] struct {
	mu     sync.RWMutex
	values map[Digest]V
}

// NewRegistry creates an empty Registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{values: make(map[Digest]V)}
}

// Intern stores v under digest d, replacing any value already stored
// there (last writer wins). Intern is idempotent: re-interning an equal
// value is a no-op other than the redundant write.
func (r *Registry[V]) Intern(d Digest, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[d] = v
}

// Get returns the value stored under d, if any.
func (r *Registry[V]) Get(d Digest) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[d]
	return v, ok
}

// Has reports whether d is present in the registry.
func (r *Registry[V]) Has(d Digest) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[d]
	return ok
}

// Len returns the number of distinct digests interned.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Values returns all interned values, in unspecified order.
func (r *Registry[V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]V, 0, len(r.values))
	for _, v := range r.values {
		out = append(out, v)
	}
	return out
}

// Digests returns all interned digests, in unspecified order.
func (r *Registry[V]) Digests() []Digest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Digest, 0, len(r.values))
	for d := range r.values {
		out = append(out, d)
	}
	return out
}
