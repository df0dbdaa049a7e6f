// Package versioned pairs an opaque payload with a vector clock and uses the
// causal verdict of each received snapshot to decide whether to keep the
// local payload, adopt the remote one, or merge both with an injected
// resolver.
//
// Data is single-threaded by contract: the host must serialize calls.
package versioned

import (
	"github.com/daviddao/versionmail/pkg/vclock"
)

// Resolver merges two concurrently produced payloads. It should be
// deterministic and must not mutate either argument. A returned error is
// passed through OnDataReceived to the caller as is.
type Resolver[T any] func(local, remote T) (T, error)

// Data is a payload versioned by a vector clock.
type Data[T any] struct {
	data    T
	vector  *vclock.VectorClock
	resolve Resolver[T]
}

// New returns versioned data holding data, with a vector clock for localID
// seeded from vector. A nil resolve is a programming error and panics.
func New[T any](data T, localID vclock.ReplicaID, vector vclock.Snapshot, resolve Resolver[T]) *Data[T] {
	if resolve == nil {
		panic("versioned: nil resolver")
	}
	return &Data[T]{
		data:    data,
		vector:  vclock.NewFromSnapshot(localID, vector),
		resolve: resolve,
	}
}

// Data returns the current payload.
func (d *Data[T]) Data() T { return d.data }

// LocalID returns the id of the local replica.
func (d *Data[T]) LocalID() vclock.ReplicaID { return d.vector.LocalID() }

// Vector returns a snapshot of the vector clock without advancing it.
func (d *Data[T]) Vector() vclock.Snapshot { return d.vector.Count() }

// OnDataModified records that the payload was edited locally.
func (d *Data[T]) OnDataModified() vclock.Snapshot {
	return d.vector.Event()
}

// Update replaces the payload with v and records the local edit.
func (d *Data[T]) Update(v T) vclock.Snapshot {
	d.data = v
	return d.OnDataModified()
}

// SendData advances the local entry ahead of a transmission and returns the
// snapshot to send together with Data(). It does not transmit anything.
func (d *Data[T]) SendData() vclock.Snapshot {
	return d.vector.Send()
}

// OnDataReceived merges the remote snapshot into the vector clock and then
// applies the verdict to the payload:
//
//	AfterRemote            keep the local payload
//	BeforeRemote           adopt remote (also on exact equality)
//	ConcurrentlyWithRemote adopt resolve(local, remote)
//
// The vector clock is merged whatever the verdict. If the resolver fails, the
// payload is left unchanged and its error is returned.
func (d *Data[T]) OnDataReceived(remote vclock.Snapshot, data T) (vclock.Occurrence, error) {
	occurred := d.vector.Receive(remote)
	switch occurred {
	case vclock.AfterRemote:
	case vclock.BeforeRemote:
		d.data = data
	case vclock.ConcurrentlyWithRemote:
		merged, err := d.resolve(d.data, data)
		if err != nil {
			return occurred, err
		}
		d.data = merged
	}
	return occurred, nil
}
