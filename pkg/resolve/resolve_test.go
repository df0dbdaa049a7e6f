package resolve

import (
	"strings"
	"testing"

	"github.com/daviddao/versionmail/pkg/vclock"
	"github.com/daviddao/versionmail/pkg/versioned"
)

func TestPreferLocalAndRemote(t *testing.T) {
	if got, _ := PreferLocal("L", "R"); got != "L" {
		t.Fatalf("PreferLocal: got %q, want L", got)
	}
	if got, _ := PreferRemote("L", "R"); got != "R" {
		t.Fatalf("PreferRemote: got %q, want R", got)
	}
}

func TestFuncAdapter(t *testing.T) {
	sum := Func(func(a, b int) int { return a + b })
	got, err := sum(2, 3)
	if err != nil || got != 5 {
		t.Fatalf("Func(sum)(2, 3) = %d, %v; want 5, nil", got, err)
	}
}

func TestConcatLines(t *testing.T) {
	got, _ := ConcatLines("milk\neggs\n", "bread\nmilk")
	if got != "bread\neggs\nmilk" {
		t.Fatalf("ConcatLines: got %q", got)
	}
	rev, _ := ConcatLines("bread\nmilk", "milk\neggs\n")
	if rev != got {
		t.Fatalf("ConcatLines not symmetric: %q vs %q", got, rev)
	}
}

func TestConcatLinesEmptySides(t *testing.T) {
	if got, _ := ConcatLines("", ""); got != "" {
		t.Fatalf("both empty: got %q", got)
	}
	if got, _ := ConcatLines("", "a"); got != "a" {
		t.Fatalf("local empty: got %q", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{NamePreferLocal, NamePreferRemote, NameConcat} {
		r, err := ByName(name)
		if err != nil || r == nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("coin-flip"); err == nil || !strings.Contains(err.Error(), "coin-flip") {
		t.Fatalf("ByName(unknown): got %v", err)
	}
}

func TestStrategiesDriveVersionedData(t *testing.T) {
	r, err := ByName(NameConcat)
	if err != nil {
		t.Fatal(err)
	}
	d := versioned.New("x", 1, vclock.Snapshot{0: 15, 1: 99, 2: 13}, r)
	if _, err := d.OnDataReceived(vclock.Snapshot{0: 10, 1: 146, 2: 13}, "y"); err != nil {
		t.Fatal(err)
	}
	if d.Data() != "x\ny" {
		t.Fatalf("Data: got %q, want %q", d.Data(), "x\ny")
	}
}
