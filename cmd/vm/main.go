// Command vm is the versionmail CLI: replicas that version one payload each
// with a vector clock and reconcile it over a shared SQLite mailbox.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("vm", version)
		return
	case "compare":
		// Pure computation; no database needed.
		os.Exit(cmdCompare(os.Args[2:]))
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	// Setup
	case "init":
		os.Exit(a.cmdInit(os.Args[2:]))
	case "register":
		os.Exit(a.cmdRegister(os.Args[2:]))

	// Operations
	case "edit":
		os.Exit(a.cmdEdit(os.Args[2:]))
	case "send":
		os.Exit(a.cmdSend(os.Args[2:]))
	case "recv":
		os.Exit(a.cmdRecv(os.Args[2:]))
	case "sync":
		os.Exit(a.cmdSync(os.Args[2:]))
	case "watch":
		os.Exit(a.cmdWatch(os.Args[2:]))

	// Inspection
	case "status":
		os.Exit(a.cmdStatus(os.Args[2:]))
	case "log":
		os.Exit(a.cmdLog(os.Args[2:]))

	default:
		fmt.Fprintf(os.Stderr, "vm: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'vm --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`vm - versioned payloads reconciled with vector clocks

Each replica holds one payload and a vector clock. Receiving a peer's
snapshot either keeps the local payload, adopts the remote one, or merges
both when the edits were concurrent. Shared SQLite is the mailbox.

Usage:
  vm <command> [flags]

Setup:
  init [--replica N]              Create the database, optionally register
  register <id> [--name S]        Register a replica

Commands:
  edit <payload...>               Replace the payload (local event)
  send <to,to,...>                Publish payload + snapshot to peers
  recv [--limit N]                Apply pending messages, print verdicts
  sync <to,to,...>                recv, then send
  watch [--interval N]            Apply messages as they arrive
  status                          Replicas, vectors and causal frontier
  log [--since N]                 Query the message log
  compare <local> <remote>        Classify two JSON snapshots

Environment:
  VM_CONFIG      YAML config file (default: .versionmail/config.yaml)
  VM_DB          SQLite database path (default: .versionmail/versionmail.db)
  VM_REPLICA     Default replica id (avoids passing --replica every time)
  VM_STRATEGY    Conflict strategy: prefer-local, prefer-remote, concat
  VM_LOG_LEVEL   debug, info, warn, error (default: warn)

All commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  conflict could not be resolved
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "vm: "+format+"\n", args...)
	os.Exit(1)
}
