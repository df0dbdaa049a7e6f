package vclock

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ReplicaID identifies one participant's entry within a vector clock.
type ReplicaID int32

// Snapshot is the exchanged form of a vector clock: replica id to counter.
// It is a plain value; mutating a Snapshot never affects the VectorClock
// it was taken from. It encodes to JSON as an object keyed by the decimal
// replica id.
type Snapshot map[ReplicaID]int64

// Clone returns an independent copy of s. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	maps.Copy(c, s)
	return c
}

// Equal reports whether s and other hold exactly the same ids and counters.
func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s, other)
}

// IDs returns the replica ids of s in ascending order.
func (s Snapshot) IDs() []ReplicaID {
	return slices.Sorted(maps.Keys(s))
}

// String renders s as {id:counter, ...} with ids sorted.
func (s Snapshot) String() string {
	if len(s) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(s))
	for _, id := range s.IDs() {
		parts = append(parts, fmt.Sprintf("%d:%d", id, s[id]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
