package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func (a *app) cmdEdit(args []string) int {
	flags := flag.NewFlagSet("edit", flag.ContinueOnError)
	rep := flags.String("replica", "", "replica id")
	stdin := flags.Bool("stdin", false, "read the payload from stdin")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if !*stdin && flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vm edit [--replica N] [--json] (--stdin | <payload...>)")
		return 1
	}

	id, err := a.resolveReplica(*rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: %v\n", err)
		return 1
	}

	payload := strings.Join(flags.Args(), " ")
	if *stdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vm: edit: read stdin: %v\n", err)
			return 1
		}
		payload = string(b)
	}

	r, err := a.openReplica(context.Background(), id, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: edit: %v\n", err)
		return 1
	}
	snap, err := r.Edit(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: edit: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"replica": id, "vector": snap, "payload": payload,
		})
	} else {
		fmt.Printf("replica %d edited (vector=%s)\n", id, snap)
	}
	return 0
}
