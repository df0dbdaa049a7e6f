package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/vclock"
)

// cmdCompare classifies a local snapshot against a remote one without
// touching any replica state.
func cmdCompare(args []string) int {
	flags := flag.NewFlagSet("compare", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(os.Stderr, `usage: vm compare [--json] '{"0":1}' '{"0":2,"1":1}'`)
		return 1
	}

	local, err := parseSnapshot(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: compare: local: %v\n", err)
		return 1
	}
	remote, err := parseSnapshot(flags.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: compare: remote: %v\n", err)
		return 1
	}

	occurred := vclock.Compare(local, remote)
	if *jsonOut {
		printJSON(map[string]interface{}{
			"local":      local,
			"remote":     remote,
			"occurrence": occurred.String(),
		})
	} else {
		fmt.Printf("local %s vs remote %s: %s\n", local, remote, occurred)
	}
	return 0
}

// parseSnapshot decodes a JSON object of replica id to counter.
func parseSnapshot(s string) (vclock.Snapshot, error) {
	var snap vclock.Snapshot
	if err := json.Unmarshal([]byte(s), &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot %q: %w", s, err)
	}
	if snap == nil {
		snap = vclock.Snapshot{}
	}
	return snap, nil
}
