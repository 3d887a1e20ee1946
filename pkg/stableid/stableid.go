// Package stableid provides the 128-bit identifiers that name every feature
// and every sub-element of a solid across recomputes and sessions.
//
// An [ID] is a random (version 4) UUID. The zero value is [Nil], a
// distinguished non-identifying value: a shape store entry holding Nil has
// not been assigned an identity yet. Ids are compared by value, ordered by
// their bytes, and serialize as their canonical text form.
//
// Ids are never reused once freed. Collisions are treated as a precondition
// that does not occur and are not detected.
package stableid

import (
	"bytes"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cadseer/cadseer/pkg/errors"
)

// ID is a stable identifier. The zero value is [Nil].
type ID uuid.UUID

// Nil is the non-identifying id.
var Nil ID

// New returns a fresh random id.
func New() ID { return ID(uuid.New()) }

// Parse decodes the canonical 36 character form (or any form accepted by
// uuid.Parse).
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse stable id %q", s)
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsNil reports whether id is the nil id.
func (id ID) IsNil() bool { return id == Nil }

// Valid reports whether id identifies something.
func (id ID) Valid() bool { return id != Nil }

// String returns the canonical form, e.g. "f47ac10b-58cc-4372-a567-0e02b2c3d479".
func (id ID) String() string { return uuid.UUID(id).String() }

// Short returns the first eight hex digits. Used for log lines and graph labels.
func (id ID) Short() string { return id.String()[:8] }

// Compare orders ids by their bytes. Nil sorts first.
func (id ID) Compare(other ID) int { return bytes.Compare(id[:], other[:]) }

// Less reports whether id sorts before other.
func (id ID) Less(other ID) bool { return id.Compare(other) < 0 }

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. An empty text decodes to Nil.
func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = Nil
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Set is a sorted, duplicate free collection of ids. It is used as a map key
// source for ids derived from several parents, see [Set.Key].
type Set []ID

// NewSet builds a Set from ids, dropping duplicates and Nil.
func NewSet(ids ...ID) Set {
	s := make(Set, 0, len(ids))
	for _, id := range ids {
		if id.Valid() {
			s = append(s, id)
		}
	}
	slices.SortFunc(s, ID.Compare)
	return slices.Compact(s)
}

// Has reports whether id is a member.
func (s Set) Has(id ID) bool {
	_, ok := slices.BinarySearchFunc(s, id, ID.Compare)
	return ok
}

// Key returns a string uniquely identifying the set contents.
func (s Set) Key() string {
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// Generator produces ids. Correlators and features take a Generator so that
// tests and dry runs can use reproducible ids.
type Generator interface {
	New() ID
}

// Random is the default Generator, backed by crypto randomness.
type Random struct{}

// New returns a fresh random id.
func (Random) New() ID { return New() }

// Seeded is a deterministic Generator. It is safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a Generator whose sequence is fully determined by seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// New returns the next id in the sequence. The result is a valid version 4 id.
func (g *Seeded) New() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand readers never fail
		panic(err)
	}
	return ID(u)
}
