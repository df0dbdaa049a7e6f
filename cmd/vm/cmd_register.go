package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/config"
)

func (a *app) cmdRegister(args []string) int {
	flags := flag.NewFlagSet("register", flag.ContinueOnError)
	name := flags.String("name", "", "display name")
	payload := flags.String("payload", "", "initial payload for a new replica")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vm register [--name S] [--payload S] [--json] <replica_id>")
		return 1
	}

	id, err := config.ParseReplicaID(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: register: %v\n", err)
		return 1
	}

	r, err := a.store.RegisterReplica(id, *name, *payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: register: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(r)
	} else {
		fmt.Printf("registered replica %d %q (vector=%s)\n", r.ID, r.Name, r.Vector)
		fmt.Fprintf(os.Stderr, "hint: export %s=%d\n", config.EnvReplica, r.ID)
	}
	return 0
}
