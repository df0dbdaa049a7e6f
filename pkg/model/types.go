// Package model defines the host-side records for versionmail.
//
// Each replica holds one payload versioned by a vector clock. Replicas
// exchange messages carrying (snapshot, payload); on receipt the vector
// clock classifies the remote snapshot as before, after or concurrent
// with local state, and the payload is kept, replaced or merged
// accordingly.
package model

import (
	"time"

	"github.com/daviddao/versionmail/pkg/vclock"
)

// Replica is the stored state of one participant.
type Replica struct {
	ID         vclock.ReplicaID `json:"id"`
	Name       string           `json:"name,omitempty"`
	Payload    string           `json:"payload"`
	Vector     vclock.Snapshot  `json:"vector"`
	Registered time.Time        `json:"registered_at"`
	LastSeen   time.Time        `json:"last_seen_at"`
}

// Message carries a snapshot and the payload it versions from one replica
// to another. Seq is assigned by the store and orders delivery.
type Message struct {
	ID        string           `json:"id"`
	Seq       int64            `json:"seq"`
	From      vclock.ReplicaID `json:"from"`
	To        vclock.ReplicaID `json:"to"`
	Vector    vclock.Snapshot  `json:"vector"`
	Payload   string           `json:"payload"`
	CreatedAt time.Time        `json:"created_at"`
}

// Verdict records how one received message was applied.
type Verdict struct {
	MessageID  string           `json:"message_id"`
	From       vclock.ReplicaID `json:"from"`
	Occurrence string           `json:"occurrence"`
	Before     string           `json:"payload_before"`
	After      string           `json:"payload_after"`
}

// Changed reports whether applying the message replaced the payload.
func (v Verdict) Changed() bool { return v.Before != v.After }
