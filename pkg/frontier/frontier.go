// Package frontier computes the causal frontier of a set of replicas.
//
// The frontier is the antichain of causally maximal versions: the
// snapshots that no other known snapshot strictly dominates. A single
// head means every replica has seen (or is behind) the same latest state;
// more than one head means concurrent updates are still unreconciled.
package frontier

import (
	"sort"

	"github.com/daviddao/versionmail/pkg/vclock"
)

// Head is one replica's latest known snapshot.
type Head struct {
	Replica vclock.ReplicaID `json:"replica"`
	Vector  vclock.Snapshot  `json:"vector"`
}

// ComputeFrontier returns the heads that no other head strictly dominates,
// ordered by replica id. Heads with equal vectors are all kept.
func ComputeFrontier(heads []Head) []Head {
	var frontier []Head
	for _, p := range heads {
		dominated := false
		for _, q := range heads {
			if q.Replica != p.Replica && vclock.Dominates(q.Vector, p.Vector) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i].Replica < frontier[j].Replica })
	return frontier
}

// Status summarizes the frontier for display.
type Status struct {
	Converged bool               `json:"converged"`
	Frontier  []Head             `json:"frontier"`
	Behind    []vclock.ReplicaID `json:"behind,omitempty"`
}

// ComputeStatus reports whether heads have converged to one version, the
// frontier itself, and which replicas lag behind some frontier head.
func ComputeStatus(heads []Head) Status {
	f := ComputeFrontier(heads)
	status := Status{Frontier: f, Converged: true}
	for i := 1; i < len(f); i++ {
		if !f[i].Vector.Equal(f[0].Vector) {
			status.Converged = false
			break
		}
	}
	inFrontier := make(map[vclock.ReplicaID]bool, len(f))
	for _, h := range f {
		inFrontier[h.Replica] = true
	}
	for _, h := range heads {
		if !inFrontier[h.Replica] {
			status.Behind = append(status.Behind, h.Replica)
		}
	}
	sort.Slice(status.Behind, func(i, j int) bool { return status.Behind[i] < status.Behind[j] })
	if len(status.Behind) > 0 {
		status.Converged = false
	}
	return status
}
