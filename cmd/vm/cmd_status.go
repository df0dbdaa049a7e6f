package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/daviddao/versionmail/pkg/frontier"
	"github.com/daviddao/versionmail/pkg/model"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	rep := flags.String("replica", "", "replica id (optional, marks your row)")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	// Best-effort replica resolution (status works without one).
	me, meErr := a.resolveReplica(*rep)

	replicas, err := a.store.ListReplicas()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: status: %v\n", err)
		return 1
	}

	type replicaInfo struct {
		model.Replica
		Presence string `json:"presence"`
		Pending  int64  `json:"pending"`
	}
	infos := make([]replicaInfo, len(replicas))
	heads := make([]frontier.Head, len(replicas))
	for i, r := range replicas {
		n, err := a.store.CountPending(r.ID, a.store.GetCursor(r.ID))
		if err != nil {
			fmt.Fprintf(os.Stderr, "vm: status: pending for %d: %v\n", r.ID, err)
			return 1
		}
		infos[i] = replicaInfo{Replica: r, Presence: replicaPresence(r), Pending: n}
		heads[i] = frontier.Head{Replica: r.ID, Vector: r.Vector}
	}
	fs := frontier.ComputeStatus(heads)

	if *jsonOut {
		printJSON(map[string]interface{}{
			"replicas": infos,
			"frontier": fs,
			"messages": a.store.CountMessages(),
		})
		return 0
	}

	fmt.Println("replicas:")
	for _, ri := range infos {
		marker := ""
		if meErr == nil && ri.ID == me {
			marker = " <-- you"
		}
		fmt.Printf("  %s %-4d %-12s vector=%-20s pending=%-3d last_seen=%s%s\n",
			presenceIndicator(ri.Presence), ri.ID, ri.Name, ri.Vector, ri.Pending,
			humanize.Time(ri.LastSeen), marker)
	}
	fmt.Printf("messages: %s\n", humanize.Comma(a.store.CountMessages()))

	if len(fs.Frontier) > 0 {
		fmt.Println("frontier:")
		for _, h := range fs.Frontier {
			fmt.Printf("  %d @ %s\n", h.Replica, h.Vector)
		}
	}
	if fs.Converged {
		fmt.Println("converged: yes")
	} else {
		fmt.Println("converged: no")
		if len(fs.Behind) > 0 {
			fmt.Printf("  behind: %v\n", fs.Behind)
		}
	}
	return 0
}

// replicaPresence returns a presence string based on last_seen time.
//   - "online":  seen within 2 minutes
//   - "idle":    seen within 10 minutes
//   - "offline": not seen for 10+ minutes
func replicaPresence(r model.Replica) string {
	since := time.Since(r.LastSeen)
	switch {
	case since < 2*time.Minute:
		return "online"
	case since < 10*time.Minute:
		return "idle"
	default:
		return "offline"
	}
}

// presenceIndicator returns a short text indicator for display.
func presenceIndicator(presence string) string {
	switch presence {
	case "online":
		return "[+]"
	case "idle":
		return "[~]"
	default:
		return "[-]"
	}
}
