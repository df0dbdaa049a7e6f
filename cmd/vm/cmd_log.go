package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daviddao/versionmail/pkg/config"
	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/vclock"
)

func (a *app) cmdLog(args []string) int {
	flags := flag.NewFlagSet("log", flag.ContinueOnError)
	since := flags.Int64("since", 0, "fetch messages with seq > this")
	limit := flags.Int("limit", 50, "max messages to return")
	from := flags.String("from", "", "filter by sender replica id")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	msgs, err := a.store.ListMessages(*since, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vm: log: %v\n", err)
		return 1
	}

	if *from != "" {
		id, err := config.ParseReplicaID(*from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vm: log: %v\n", err)
			return 1
		}
		msgs = filterByFrom(msgs, id)
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"messages": msgs, "count": len(msgs)})
		return 0
	}
	if len(msgs) == 0 {
		fmt.Println("no messages")
		return 0
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return 0
}

// filterByFrom keeps messages sent by id, preserving delivery order.
func filterByFrom(msgs []model.Message, id vclock.ReplicaID) []model.Message {
	var out []model.Message
	for _, m := range msgs {
		if m.From == id {
			out = append(out, m)
		}
	}
	return out
}

// printMessage prints a single message on one line.
func printMessage(m model.Message) {
	fmt.Printf("[seq=%d] %d -> %d %s: %s\n", m.Seq, m.From, m.To, m.Vector, truncate(m.Payload, 80))
}
