// Package resolve provides stock conflict-resolution strategies for
// versioned.Data. Every strategy is deterministic and leaves its arguments
// untouched.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/daviddao/versionmail/pkg/versioned"
)

// Strategy names accepted by ByName.
const (
	NamePreferLocal  = "prefer-local"
	NamePreferRemote = "prefer-remote"
	NameConcat       = "concat"
)

// PreferLocal keeps the local payload on conflict.
func PreferLocal[T any](local, _ T) (T, error) { return local, nil }

// PreferRemote adopts the remote payload on conflict.
func PreferRemote[T any](_, remote T) (T, error) { return remote, nil }

// Func adapts an infallible merge function to a versioned.Resolver.
func Func[T any](merge func(local, remote T) T) versioned.Resolver[T] {
	return func(local, remote T) (T, error) {
		return merge(local, remote), nil
	}
}

// ConcatLines keeps the lines of both payloads, sorted and de-duplicated.
// The result is the same whichever side is local.
func ConcatLines(local, remote string) (string, error) {
	lines := append(splitLines(local), splitLines(remote)...)
	slices.Sort(lines)
	return strings.Join(slices.Compact(lines), "\n"), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// ByName returns the string strategy registered under name.
func ByName(name string) (versioned.Resolver[string], error) {
	switch name {
	case NamePreferLocal:
		return PreferLocal[string], nil
	case NamePreferRemote:
		return PreferRemote[string], nil
	case NameConcat:
		return ConcatLines, nil
	default:
		return nil, fmt.Errorf("unknown resolution strategy %q (want %s, %s or %s)",
			name, NamePreferLocal, NamePreferRemote, NameConcat)
	}
}
