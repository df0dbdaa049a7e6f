package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daviddao/versionmail/pkg/replica"
	"github.com/daviddao/versionmail/pkg/vclock"
)

func (a *app) cmdWatch(args []string) int {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	rep := flags.String("replica", "", "replica id")
	interval := flags.Int("interval", 1, "poll interval in seconds")
	strategy := flags.String("strategy", "", "override the conflict strategy")
	jsonOut := flags.Bool("json", false, "JSON output (one JSON object per line)")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *interval <= 0 {
		fmt.Fprintln(os.Stderr, "vm: watch: --interval must be positive")
		return 1
	}

	id, err := a.resolveReplica(*rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: %v\n", err)
		return 1
	}

	// Handle ctrl-c gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fail fast on a bad strategy or an unreachable database.
	if _, err := a.openReplica(ctx, id, *strategy); err != nil {
		fmt.Fprintf(os.Stderr, "vm: watch: %v\n", err)
		return 1
	}

	pollInterval := time.Duration(*interval) * time.Second
	fmt.Fprintf(os.Stderr, "watching replica %d (poll every %s, ctrl-c to stop)\n", id, pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nstopped")
			return 0
		case <-ticker.C:
			if code, done := a.watchTick(ctx, id, *strategy, *jsonOut); done {
				return code
			}
		}
	}
}

// watchTick reopens the replica from the store, drains its inbox once and
// prints the verdicts. Edits made by other processes since the previous tick
// are part of the reopened state. done is true when watching must stop.
func (a *app) watchTick(ctx context.Context, id vclock.ReplicaID, strategy string, jsonOut bool) (code int, done bool) {
	r, err := a.openReplica(ctx, id, strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: watch: %v\n", err)
		return 1, false
	}
	verdicts, err := r.Drain(ctx, a.cfg.Limit)
	if jsonOut {
		for _, v := range verdicts {
			b, _ := json.Marshal(v)
			fmt.Println(string(b))
		}
	} else {
		printVerdicts(verdicts)
	}
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0, false
	case errors.Is(err, replica.ErrUnresolved):
		// Retrying would hit the same message again.
		return drainExit("watch", err), true
	default:
		fmt.Fprintf(os.Stderr, "vm: watch: %v\n", err)
		return 1, false
	}
}
