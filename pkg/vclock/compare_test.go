package vclock

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		local  Snapshot
		remote Snapshot
		want   Occurrence
	}{
		{"empty vs empty", Snapshot{}, Snapshot{}, BeforeRemote},
		{"equal", Snapshot{0: 1, 1: 2}, Snapshot{0: 1, 1: 2}, BeforeRemote},
		{"local dominated", Snapshot{0: 1, 1: 1}, Snapshot{0: 2, 1: 2}, BeforeRemote},
		{"local dominates", Snapshot{0: 2, 1: 2}, Snapshot{0: 1, 1: 1}, AfterRemote},
		{"mixed", Snapshot{0: 2, 1: 1}, Snapshot{0: 1, 1: 2}, ConcurrentlyWithRemote},
		{"local subset equal on common", Snapshot{0: 1}, Snapshot{0: 1, 1: 1}, BeforeRemote},
		{"local superset equal on common", Snapshot{0: 1, 1: 1}, Snapshot{0: 1}, AfterRemote},
		{"local subset but ahead on common", Snapshot{0: 2}, Snapshot{0: 1, 1: 2}, ConcurrentlyWithRemote},
		{"local superset but behind on common", Snapshot{0: 1, 1: 5}, Snapshot{0: 2}, ConcurrentlyWithRemote},
		{"disjoint ids", Snapshot{0: 2}, Snapshot{1: 2}, ConcurrentlyWithRemote},
		{"local empty", Snapshot{}, Snapshot{0: 1}, BeforeRemote},
		{"remote empty", Snapshot{0: 1}, Snapshot{}, AfterRemote},
		{"remote dominated on one id", Snapshot{0: 10, 1: 99, 2: 13}, Snapshot{0: 9, 1: 99, 2: 13}, AfterRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.local, tt.remote); got != tt.want {
				t.Errorf("Compare(%v, %v) = %v, want %v", tt.local, tt.remote, got, tt.want)
			}
		})
	}
}

func TestCompareIsStableAcrossIterationOrder(t *testing.T) {
	local := Snapshot{0: 5, 1: 1, 2: 7, 3: 0, 4: 9, 5: 3}
	remote := Snapshot{0: 4, 1: 2, 2: 7, 3: 1, 4: 9, 5: 2}
	want := Compare(local, remote)
	for i := 0; i < 200; i++ {
		if got := Compare(local, remote); got != want {
			t.Fatalf("iteration %d: got %v, want %v", i, got, want)
		}
	}
	if want != ConcurrentlyWithRemote {
		t.Fatalf("got %v, want %v", want, ConcurrentlyWithRemote)
	}
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	local := Snapshot{0: 1, 1: 2}
	remote := Snapshot{0: 2, 2: 1}
	Compare(local, remote)
	if !local.Equal(Snapshot{0: 1, 1: 2}) || !remote.Equal(Snapshot{0: 2, 2: 1}) {
		t.Fatalf("inputs mutated: %v %v", local, remote)
	}
}

func TestDominates(t *testing.T) {
	a := Snapshot{0: 2, 1: 2}
	b := Snapshot{0: 1, 1: 1}
	if !Dominates(a, b) {
		t.Fatal("a should dominate b")
	}
	if Dominates(b, a) {
		t.Fatal("b should not dominate a")
	}
	if Dominates(a, a.Clone()) {
		t.Fatal("equal snapshots do not dominate each other")
	}
}

func TestOccurrenceString(t *testing.T) {
	tests := map[Occurrence]string{
		BeforeRemote:           "before",
		AfterRemote:            "after",
		ConcurrentlyWithRemote: "concurrent",
		Occurrence(0):          "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Occurrence(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
