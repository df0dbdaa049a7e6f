package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/daviddao/versionmail/pkg/config"
	"github.com/daviddao/versionmail/pkg/logging"
	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/replica"
	"github.com/daviddao/versionmail/pkg/resolve"
	"github.com/daviddao/versionmail/pkg/store"
	"github.com/daviddao/versionmail/pkg/vclock"
	"github.com/daviddao/versionmail/pkg/versioned"
)

const (
	defaultDir    = ".versionmail"
	defaultDB     = config.DefaultDB
	defaultConfig = defaultDir + "/config.yaml"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg   *config.Config
	store store.StoreInterface
	log   *zap.Logger

	// resolverFor maps a strategy name to a resolver. Nil means resolve.ByName.
	resolverFor func(name string) (versioned.Resolver[string], error)
}

// newApp loads configuration, opens the database and builds the logger.
// Creates the .versionmail/ directory if using the default DB path.
func newApp() (*app, error) {
	cfg, err := config.Load(envOr(config.EnvConfig, defaultConfig))
	if err != nil {
		return nil, err
	}
	if cfg.DB == defaultDB {
		if err := os.MkdirAll(defaultDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", defaultDir, err)
		}
	}
	s, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", cfg.DB, err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("cannot build logger: %w", err)
	}
	return &app{cfg: cfg, store: s, log: logger}, nil
}

// Close flushes the logger and releases the database connection.
func (a *app) Close() {
	_ = a.log.Sync()
	a.store.Close()
}

// resolveReplica returns the replica id from the flag (if non-empty),
// falling back to the configured default.
func (a *app) resolveReplica(flagVal string) (vclock.ReplicaID, error) {
	if flagVal != "" {
		return config.ParseReplicaID(flagVal)
	}
	if a.cfg != nil && a.cfg.Replica != nil {
		return *a.cfg.Replica, nil
	}
	return 0, fmt.Errorf("no replica id: pass --replica or set %s", config.EnvReplica)
}

// openReplica loads the replica with the named strategy, or the configured
// one when strategy is empty.
func (a *app) openReplica(ctx context.Context, id vclock.ReplicaID, strategy string) (*replica.Replica, error) {
	if strategy == "" {
		strategy = a.cfg.Strategy
	}
	lookup := a.resolverFor
	if lookup == nil {
		lookup = resolve.ByName
	}
	resolver, err := lookup(strategy)
	if err != nil {
		return nil, err
	}
	return replica.Open(ctx, a.store, id, resolver, a.log)
}

// parseRecipients splits a comma-separated list of replica ids.
func parseRecipients(s string) ([]vclock.ReplicaID, error) {
	var ids []vclock.ReplicaID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := config.ParseReplicaID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no recipients in %q", s)
	}
	return ids, nil
}

// printVerdicts prints one line per applied message.
func printVerdicts(verdicts []model.Verdict) {
	for _, v := range verdicts {
		action := "kept"
		if v.Changed() {
			action = "replaced"
		}
		fmt.Printf("[%s] from %d: %s (payload %s)\n", shortID(v.MessageID), v.From, v.Occurrence, action)
	}
}

// shortID trims a UUID to its first block for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// truncate shortens s to n bytes for one-line display.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
