// Package vclock implements a vector clock: one Lamport clock per known
// replica, owned exclusively by the vector.
//
// Receive classifies the local vector against a remote snapshot and then
// merges the remote snapshot in. The classification is always computed from
// the pre-merge state. Entries are only ever added, never removed.
//
// A VectorClock is not goroutine-safe. Callers that share one across
// goroutines must serialize Event, Send, Receive and AddElement.
package vclock

import (
	"fmt"

	"github.com/daviddao/versionmail/pkg/clock"
)

// VectorClock tracks the latest known logical time of every replica.
type VectorClock struct {
	localID ReplicaID
	entries map[ReplicaID]*clock.Clock
}

// New returns a vector clock for localID with a single entry at 0.
func New(localID ReplicaID) *VectorClock {
	return NewFromSnapshot(localID, nil)
}

// NewFromSnapshot returns a vector clock for localID seeded with init. If
// init has no entry for localID, one is added at 0.
func NewFromSnapshot(localID ReplicaID, init Snapshot) *VectorClock {
	v := &VectorClock{
		localID: localID,
		entries: make(map[ReplicaID]*clock.Clock, len(init)+1),
	}
	for id, counter := range init {
		v.AddElement(id, counter)
	}
	if _, ok := v.entries[localID]; !ok {
		v.AddElement(localID, 0)
	}
	return v
}

// AddElement inserts a new entry. Adding an id that is already present is a
// programming error and panics.
func (v *VectorClock) AddElement(id ReplicaID, counter int64) {
	if _, ok := v.entries[id]; ok {
		panic(fmt.Sprintf("vclock: replica %d already present", id))
	}
	v.entries[id] = clock.New(counter)
}

// LocalID returns the id of the owning replica.
func (v *VectorClock) LocalID() ReplicaID { return v.localID }

// IDs returns every known replica id in ascending order.
func (v *VectorClock) IDs() []ReplicaID { return v.Count().IDs() }

// Event advances the local entry for a local step and returns the full snapshot.
func (v *VectorClock) Event() Snapshot {
	v.entries[v.localID].Event()
	return v.Count()
}

// Send advances the local entry before a transmission and returns the
// snapshot to transmit alongside the message.
func (v *VectorClock) Send() Snapshot {
	v.entries[v.localID].Send()
	return v.Count()
}

// Count returns a snapshot of every entry without side effects.
func (v *VectorClock) Count() Snapshot {
	s := make(Snapshot, len(v.entries))
	for id, c := range v.entries {
		s[id] = c.Count()
	}
	return s
}

// Receive classifies the local vector against remote, then merges remote in:
// common ids go through clock.Receive (the local id with the forced step,
// every other id as a pure max), and ids only remote knows are added at the
// remote counter. It returns the pre-merge classification.
func (v *VectorClock) Receive(remote Snapshot) Occurrence {
	occurred := Compare(v.Count(), remote)

	for id, counter := range remote {
		if c, ok := v.entries[id]; ok {
			c.Receive(counter, id != v.localID)
		}
	}
	for id, counter := range remote {
		if _, ok := v.entries[id]; !ok {
			v.AddElement(id, counter)
		}
	}
	return occurred
}
