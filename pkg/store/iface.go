// iface.go defines StoreInterface so the replica host and the CLI can be
// tested against a fake mailbox.
package store

import (
	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/vclock"
)

// StoreInterface defines the full set of store operations.
type StoreInterface interface {
	Close() error

	// --- Replicas ---

	// RegisterReplica creates a replica or refreshes last_seen. Idempotent.
	RegisterReplica(id vclock.ReplicaID, name, payload string) (*model.Replica, error)

	// GetReplica returns ErrNotFound for an unknown id.
	GetReplica(id vclock.ReplicaID) (*model.Replica, error)

	// SaveReplica persists payload and vector.
	SaveReplica(r *model.Replica) error

	// SaveReceived persists payload, vector and recv cursor atomically.
	SaveReceived(r *model.Replica, sinceSeq int64) error

	ListReplicas() ([]model.Replica, error)

	// --- Cursors ---

	GetCursor(id vclock.ReplicaID) int64

	// --- Messages ---

	// InsertMessage appends a message and returns its seq.
	InsertMessage(m *model.Message) (int64, error)

	// ListMessagesFor returns messages addressed to id after sinceSeq.
	ListMessagesFor(id vclock.ReplicaID, sinceSeq int64, limit int) ([]model.Message, error)

	// CountPending counts messages addressed to id after sinceSeq.
	CountPending(id vclock.ReplicaID, sinceSeq int64) (int64, error)

	// ListMessages returns all messages after sinceSeq.
	ListMessages(sinceSeq int64, limit int) ([]model.Message, error)

	CountMessages() int64
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
