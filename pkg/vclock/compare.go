package vclock

// Occurrence classifies when the local state occurred relative to a remote
// snapshot.
type Occurrence int

const (
	// BeforeRemote: the local vector is dominated by, or exactly equal to,
	// the remote vector.
	BeforeRemote Occurrence = iota + 1
	// AfterRemote: the local vector strictly dominates the remote vector.
	AfterRemote
	// ConcurrentlyWithRemote: neither vector dominates the other.
	ConcurrentlyWithRemote
)

func (o Occurrence) String() string {
	switch o {
	case BeforeRemote:
		return "before"
	case AfterRemote:
		return "after"
	case ConcurrentlyWithRemote:
		return "concurrent"
	default:
		return "unknown"
	}
}

// Compare classifies local against remote.
//
// A side that knows a replica id the other side lacks counts as ahead on
// that id. Over the common ids, a strictly greater counter makes its side
// ahead. Neither side ahead (exact equality) is reported as BeforeRemote, so
// a receiver adopts the remote data on a tie.
//
// The scan over common ids stops as soon as both sides are ahead; map
// iteration order therefore never changes the result.
func Compare(local, remote Snapshot) Occurrence {
	var localAhead, remoteAhead bool

	for id := range local {
		if _, ok := remote[id]; !ok {
			localAhead = true
			break
		}
	}
	for id := range remote {
		if _, ok := local[id]; !ok {
			remoteAhead = true
			break
		}
	}

	for id, l := range local {
		if localAhead && remoteAhead {
			break
		}
		r, ok := remote[id]
		if !ok {
			continue
		}
		if l > r {
			localAhead = true
		} else if l < r {
			remoteAhead = true
		}
	}

	switch {
	case localAhead && remoteAhead:
		return ConcurrentlyWithRemote
	case localAhead:
		return AfterRemote
	default:
		return BeforeRemote
	}
}

// Dominates reports whether a strictly dominates b: a knows every id b
// knows with a counter at least as large, and a and b are not equal.
func Dominates(a, b Snapshot) bool {
	return Compare(a, b) == AfterRemote
}
