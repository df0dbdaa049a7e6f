package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/replica"
)

func (a *app) cmdRecv(args []string) int {
	flags := flag.NewFlagSet("recv", flag.ContinueOnError)
	rep := flags.String("replica", "", "recipient replica id")
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
	r, err := a.openReplica(context.Background(), id, *strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: recv: %v\n", err)
		return 1
	}

	verdicts, err := r.Drain(context.Background(), a.drainLimit(*limit))
	printReceived(r, verdicts, *jsonOut)
	return drainExit("recv", err)
}

// drainLimit falls back to the configured batch size.
func (a *app) drainLimit(flagVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return a.cfg.Limit
}

// printReceived reports the verdicts of a drain. Shared by recv, sync and
// watch.
func printReceived(r *replica.Replica, verdicts []model.Verdict, jsonOut bool) {
	if jsonOut {
		printJSON(map[string]interface{}{
			"replica":  r.ID(),
			"verdicts": verdicts,
			"count":    len(verdicts),
			"vector":   r.Vector(),
			"payload":  r.Payload(),
		})
		return
	}
	if len(verdicts) == 0 {
		fmt.Println("no new messages")
		return
	}
	printVerdicts(verdicts)
	fmt.Fprintf(os.Stderr, "(%d message(s), vector now %s)\n", len(verdicts), r.Vector())
}

// drainExit maps a Drain error to an exit code: 2 when a conflict could not
// be resolved, 1 for any other failure.
func drainExit(cmd string, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, replica.ErrUnresolved):
		fmt.Fprintf(os.Stderr, "vm: %s: %v\n", cmd, err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "vm: %s: %v\n", cmd, err)
		return 1
	}
}
