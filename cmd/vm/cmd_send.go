package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/replica"
)

func (a *app) cmdSend(args []string) int {
	flags := flag.NewFlagSet("send", flag.ContinueOnError)
	rep := flags.String("replica", "", "sender replica id")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vm send [--replica N] [--json] <to,to,...>")
		return 1
	}

	id, err := a.resolveReplica(*rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: %v\n", err)
		return 1
	}
	to, err := parseRecipients(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: send: %v\n", err)
		return 1
	}

	r, err := a.openReplica(context.Background(), id, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: send: %v\n", err)
		return 1
	}
	msgs, err := r.Publish(to...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: send: %v\n", err)
		return 1
	}

	printSent(r, msgs, *jsonOut)
	return 0
}

// printSent reports a publish. Shared by send and sync.
func printSent(r *replica.Replica, msgs []model.Message, jsonOut bool) {
	if jsonOut {
		printJSON(map[string]interface{}{
			"replica": r.ID(), "vector": r.Vector(), "messages": msgs, "recipients": len(msgs),
		})
		return
	}
	if len(msgs) == 0 {
		return
	}
	fmt.Printf("sent vector=%s to %d recipient(s):", msgs[0].Vector, len(msgs))
	for _, m := range msgs {
		fmt.Printf(" %d", m.To)
	}
	fmt.Println()
}
