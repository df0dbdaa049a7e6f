// Package replica hosts one versioned payload on top of the SQLite mailbox.
//
// A Replica rebuilds its versioned.Data from the store, applies local
// edits, publishes (snapshot, payload) messages to peers, and drains its
// inbox through OnDataReceived. Every mutation is persisted before the
// method returns. Methods are safe for concurrent use.
package replica

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/daviddao/versionmail/pkg/logging"
	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/store"
	"github.com/daviddao/versionmail/pkg/vclock"
	"github.com/daviddao/versionmail/pkg/versioned"
)

// DefaultLimit is the drain batch size used when limit <= 0.
const DefaultLimit = 100

// ErrUnresolved marks a Drain that stopped because the resolver failed.
var ErrUnresolved = errors.New("unresolved conflict")

// Replica is a live handle on one stored replica.
type Replica struct {
	id      vclock.ReplicaID
	mu      sync.Mutex
	st      store.StoreInterface
	rec     model.Replica
	data    *versioned.Data[string]
	resolve versioned.Resolver[string]
	log     *zap.Logger
}

// Open loads replica id from st, registering it first if it is unknown.
// Every replica registered in st that the stored vector does not mention
// yet is added to the vector at zero, so peers that joined the group before
// any exchange compare on the same ids.
func Open(ctx context.Context, st store.StoreInterface, id vclock.ReplicaID, resolve versioned.Resolver[string], logger *zap.Logger) (*Replica, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resolve == nil {
		return nil, errors.New("replica: nil resolver")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	if _, err := st.GetReplica(id); errors.Is(err, store.ErrNotFound) {
		if _, err := st.RegisterReplica(id, "", ""); err != nil {
			return nil, fmt.Errorf("register replica %d: %w", id, err)
		}
	}

	r := &Replica{
		id:      id,
		st:      st,
		resolve: resolve,
		log:     logging.ForReplica(logger, int32(id)),
	}
	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// refresh reloads the stored record and rebuilds the versioned data from it.
// Other handles (or processes) may have written the replica since the last
// operation; every mutation starts from what is persisted.
func (r *Replica) refresh() error {
	rec, err := r.st.GetReplica(r.id)
	if err != nil {
		return fmt.Errorf("load replica %d: %w", r.id, err)
	}
	peers, err := r.st.ListReplicas()
	if err != nil {
		return fmt.Errorf("list replicas: %w", err)
	}
	vec := rec.Vector.Clone()
	for _, p := range peers {
		if _, ok := vec[p.ID]; !ok {
			vec[p.ID] = 0
		}
	}
	rec.Vector = vec

	r.rec = *rec
	r.rollback()
	return nil
}

// ID returns the replica id.
func (r *Replica) ID() vclock.ReplicaID { return r.id }

// Payload returns the payload as of the last operation on this handle.
func (r *Replica) Payload() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.Data()
}

// Vector returns the snapshot as of the last operation on this handle.
func (r *Replica) Vector() vclock.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.Vector()
}

// State returns a copy of the replica record as last persisted.
func (r *Replica) State() model.Replica {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.rec
	s.Vector = r.rec.Vector.Clone()
	return s
}

// Edit replaces the payload, records the local event and persists.
func (r *Replica) Edit(payload string) (vclock.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}
	snap := r.data.Update(payload)
	if err := r.persist(); err != nil {
		r.rollback()
		return nil, fmt.Errorf("edit: %w", err)
	}
	r.log.Debug("edited", zap.Stringer("vector", snap))
	return snap, nil
}

// Publish advances the clock for a send and appends one message carrying
// the snapshot and current payload to each recipient. The replica's own
// state is persisted before any message is written.
func (r *Replica) Publish(to ...vclock.ReplicaID) ([]model.Message, error) {
	if len(to) == 0 {
		return nil, errors.New("publish: no recipients")
	}
	for _, id := range to {
		if id == r.id {
			return nil, fmt.Errorf("publish: replica %d cannot send to itself", id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	snap := r.data.SendData()
	if err := r.persist(); err != nil {
		r.rollback()
		return nil, fmt.Errorf("publish: %w", err)
	}

	msgs := make([]model.Message, 0, len(to))
	for _, id := range to {
		m := model.Message{
			From:    r.data.LocalID(),
			To:      id,
			Vector:  snap.Clone(),
			Payload: r.data.Data(),
		}
		if _, err := r.st.InsertMessage(&m); err != nil {
			return msgs, fmt.Errorf("publish to %d: %w", id, err)
		}
		r.log.Debug("published",
			zap.Int32("to", int32(id)),
			zap.String("message", m.ID),
			zap.Stringer("vector", snap),
		)
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Drain reloads the persisted state, then reads up to limit messages after
// the replica's cursor and applies each one in delivery order. State and
// cursor are persisted after every message. A resolver error stops the
// drain: the failing message is left
// unconsumed, the replica rolls back to its last persisted state, and the
// verdicts applied so far are returned along with the error. Cancelling
// ctx stops the drain between messages.
func (r *Replica) Drain(ctx context.Context, limit int) ([]model.Verdict, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.refresh(); err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	cursor := r.st.GetCursor(r.id)
	msgs, err := r.st.ListMessagesFor(r.id, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}

	var verdicts []model.Verdict
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return verdicts, err
		}

		before := r.data.Data()
		occurred, err := r.data.OnDataReceived(m.Vector, m.Payload)
		if err != nil {
			r.rollback()
			r.log.Warn("resolve failed",
				zap.Int32("from", int32(m.From)),
				zap.String("message", m.ID),
				zap.Error(err),
			)
			return verdicts, fmt.Errorf("apply message %s from %d: %w: %w", m.ID, m.From, ErrUnresolved, err)
		}

		next := r.rec
		next.Payload = r.data.Data()
		next.Vector = r.data.Vector()
		if err := r.st.SaveReceived(&next, m.Seq); err != nil {
			r.rollback()
			return verdicts, fmt.Errorf("save after message %s: %w", m.ID, err)
		}
		r.rec = next

		v := model.Verdict{
			MessageID:  m.ID,
			From:       m.From,
			Occurrence: occurred.String(),
			Before:     before,
			After:      next.Payload,
		}
		r.log.Info("received",
			zap.Int32("from", int32(m.From)),
			zap.String("occurrence", v.Occurrence),
			zap.Bool("changed", v.Changed()),
			zap.Stringer("vector", next.Vector),
		)
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// persist writes the in-memory payload and vector to the store.
func (r *Replica) persist() error {
	next := r.rec
	next.Payload = r.data.Data()
	next.Vector = r.data.Vector()
	if err := r.st.SaveReplica(&next); err != nil {
		return err
	}
	r.rec = next
	return nil
}

// rollback rebuilds the versioned data from the last persisted record.
func (r *Replica) rollback() {
	r.data = versioned.New(r.rec.Payload, r.id, r.rec.Vector, r.resolve)
}
