package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/vclock"
)

// cmdSync applies pending messages, then publishes the reconciled payload,
// so peers always see a snapshot that includes what this replica received.
func (a *app) cmdSync(args []string) int {
	flags := flag.NewFlagSet("sync", flag.ContinueOnError)
	rep := flags.String("replica", "", "replica id")
	limit := flags.Int("limit", 0, "max messages to apply (0 = configured limit)")
	strategy := flags.String("strategy", "", "override the conflict strategy")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	id, err := a.resolveReplica(*rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: %v\n", err)
		return 1
	}

	// Recipients are optional: without them sync only receives.
	var to []vclock.ReplicaID
	if flags.NArg() > 0 {
		if to, err = parseRecipients(flags.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "vm: sync: %v\n", err)
			return 1
		}
	}

	ctx := context.Background()
	r, err := a.openReplica(ctx, id, *strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: sync: %v\n", err)
		return 1
	}

	// 1. Recv: apply everything pending.
	verdicts, err := r.Drain(ctx, a.drainLimit(*limit))
	if err != nil {
		printReceived(r, verdicts, *jsonOut)
		return drainExit("sync", err)
	}

	// 2. Send: publish the result.
	var sent []model.Message
	if len(to) > 0 {
		if sent, err = r.Publish(to...); err != nil {
			fmt.Fprintf(os.Stderr, "vm: sync: %v\n", err)
			return 1
		}
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"replica":  r.ID(),
			"verdicts": verdicts,
			"sent":     sent,
			"vector":   r.Vector(),
			"payload":  r.Payload(),
		})
		return 0
	}
	printReceived(r, verdicts, false)
	printSent(r, sent, false)
	fmt.Printf("sync %d vector=%s payload=%q\n", r.ID(), r.Vector(), truncate(r.Payload(), 80))
	return 0
}
