package main

import (
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	rep := flags.String("replica", "", "replica id to register (optional)")
	name := flags.String("name", "", "display name for the registered replica")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	replicas, err := a.store.ListReplicas()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: init: database error: %v\n", err)
		return 1
	}

	result := map[string]interface{}{
		"db":       a.cfg.DB,
		"replicas": len(replicas),
		"strategy": a.cfg.Strategy,
	}
	if !*jsonOut {
		fmt.Printf("initialized versionmail (db: %s, strategy: %s)\n", a.cfg.DB, a.cfg.Strategy)
		if len(replicas) > 0 {
			fmt.Printf("  %d existing replica(s)\n", len(replicas))
		}
	}

	var registered bool
	if *rep != "" || a.cfg.Replica != nil {
		id, err := a.resolveReplica(*rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vm: init: %v\n", err)
			return 1
		}
		r, err := a.store.RegisterReplica(id, *name, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "vm: init: register: %v\n", err)
			return 1
		}
		registered = true
		result["registered"] = r
		if !*jsonOut {
			fmt.Printf("  registered replica %d (vector=%s)\n", r.ID, r.Vector)
		}
	}

	if *jsonOut {
		printJSON(result)
		return 0
	}

	fmt.Println()
	fmt.Println("next steps:")
	if !registered {
		fmt.Println("  vm register <id>")
		fmt.Println("  export VM_REPLICA=<id>")
	}
	fmt.Println("  vm edit <payload>     # change the local payload")
	fmt.Println("  vm sync <peers>       # receive, then publish to peers")
	return 0
}
