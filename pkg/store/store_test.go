package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/vclock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// --- Replica tests ---

func TestRegisterReplica(t *testing.T) {
	s := newTestStore(t)
	r, err := s.RegisterReplica(1, "laptop", "hello")
	if err != nil {
		t.Fatalf("RegisterReplica: %v", err)
	}
	if r.ID != 1 || r.Name != "laptop" || r.Payload != "hello" {
		t.Fatalf("got %+v, want id=1 name=laptop payload=hello", r)
	}
	if !r.Vector.Equal(vclock.Snapshot{1: 0}) {
		t.Fatalf("new replica vector: got %v, want {1:0}", r.Vector)
	}
	if r.Registered.IsZero() || r.LastSeen.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestRegisterReplica_IdempotentKeepsState(t *testing.T) {
	s := newTestStore(t)
	r, _ := s.RegisterReplica(1, "laptop", "first")
	r.Payload = "edited"
	r.Vector = vclock.Snapshot{1: 4, 2: 1}
	if err := s.SaveReplica(r); err != nil {
		t.Fatalf("SaveReplica: %v", err)
	}

	again, err := s.RegisterReplica(1, "other", "second")
	if err != nil {
		t.Fatal(err)
	}
	if again.Payload != "edited" || !again.Vector.Equal(vclock.Snapshot{1: 4, 2: 1}) {
		t.Fatalf("re-register overwrote state: %+v", again)
	}
}

func TestGetReplica_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetReplica(42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSaveReplica(t *testing.T) {
	s := newTestStore(t)
	r, _ := s.RegisterReplica(3, "", "")
	r.Payload = "v2"
	r.Vector = vclock.Snapshot{0: 10, 3: 7}
	if err := s.SaveReplica(r); err != nil {
		t.Fatalf("SaveReplica: %v", err)
	}
	got, err := s.GetReplica(3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Payload != "v2" || !got.Vector.Equal(r.Vector) {
		t.Fatalf("got payload=%q vector=%v, want v2 %v", got.Payload, got.Vector, r.Vector)
	}
}

func TestListReplicas_Ordered(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []vclock.ReplicaID{5, 1, 3} {
		if _, err := s.RegisterReplica(id, "", ""); err != nil {
			t.Fatal(err)
		}
	}
	rs, err := s.ListReplicas()
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 3 || rs[0].ID != 1 || rs[1].ID != 3 || rs[2].ID != 5 {
		t.Fatalf("ListReplicas order: got %+v", rs)
	}
}

// --- Cursor tests ---

func TestCursor_DefaultZero(t *testing.T) {
	s := newTestStore(t)
	if got := s.GetCursor(9); got != 0 {
		t.Fatalf("unset cursor: got %d, want 0", got)
	}
}

func TestCursor_AdvancedBySaveReceived(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(1, "", "")
	r, err := s.GetReplica(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReceived(r, 12); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReceived(r, 15); err != nil {
		t.Fatal(err)
	}
	if got := s.GetCursor(1); got != 15 {
		t.Fatalf("cursor: got %d, want 15", got)
	}
}

func TestSaveReceived_StateAndCursorTogether(t *testing.T) {
	s := newTestStore(t)
	r, _ := s.RegisterReplica(1, "", "L")
	r.Payload = "R"
	r.Vector = vclock.Snapshot{0: 2, 1: 1}
	if err := s.SaveReceived(r, 7); err != nil {
		t.Fatalf("SaveReceived: %v", err)
	}
	got, _ := s.GetReplica(1)
	if got.Payload != "R" || !got.Vector.Equal(r.Vector) {
		t.Fatalf("state: got %+v", got)
	}
	if c := s.GetCursor(1); c != 7 {
		t.Fatalf("cursor: got %d, want 7", c)
	}
}

// --- Message tests ---

func TestInsertMessage_AssignsIDAndSeq(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	m := &model.Message{From: 0, To: 1, Vector: vclock.Snapshot{0: 1}, Payload: "p"}
	seq, err := s.InsertMessage(m)
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	if seq <= 0 || m.Seq != seq {
		t.Fatalf("seq: got %d (m.Seq=%d)", seq, m.Seq)
	}
	if m.ID == "" {
		t.Fatal("message id not assigned")
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("created_at not assigned")
	}
}

func TestInsertMessage_DuplicateIDRejected(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	m := &model.Message{ID: "fixed", From: 0, To: 1, Vector: vclock.Snapshot{0: 1}}
	if _, err := s.InsertMessage(m); err != nil {
		t.Fatal(err)
	}
	dup := &model.Message{ID: "fixed", From: 0, To: 1, Vector: vclock.Snapshot{0: 2}}
	if _, err := s.InsertMessage(dup); err == nil {
		t.Fatal("expected unique constraint error for duplicate id")
	}
}

func TestListMessagesFor_FiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	for i, to := range []vclock.ReplicaID{1, 2, 1, 1} {
		m := &model.Message{From: 0, To: to, Vector: vclock.Snapshot{0: int64(i + 1)}, Payload: "p"}
		if _, err := s.InsertMessage(m); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := s.ListMessagesFor(1, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages for 1: got %d, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Seq <= msgs[i-1].Seq {
			t.Fatalf("not ordered by seq: %d then %d", msgs[i-1].Seq, msgs[i].Seq)
		}
	}
	if !msgs[0].Vector.Equal(vclock.Snapshot{0: 1}) {
		t.Fatalf("first vector: got %v, want {0:1}", msgs[0].Vector)
	}

	after, err := s.ListMessagesFor(1, msgs[0].Seq, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 2 {
		t.Fatalf("messages after cursor: got %d, want 2", len(after))
	}
}

func TestListMessagesFor_Limit(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	for i := 0; i < 5; i++ {
		s.InsertMessage(&model.Message{From: 0, To: 1, Vector: vclock.Snapshot{0: int64(i)}})
	}
	msgs, err := s.ListMessagesFor(1, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("limit 2: got %d", len(msgs))
	}
}

func TestCountPending_NotCappedByLimit(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	var third int64
	for i := 0; i < 150; i++ {
		seq, err := s.InsertMessage(&model.Message{From: 0, To: 1, Vector: vclock.Snapshot{0: int64(i)}})
		if err != nil {
			t.Fatal(err)
		}
		if i == 2 {
			third = seq
		}
	}
	s.InsertMessage(&model.Message{From: 0, To: 2, Vector: vclock.Snapshot{0: 1}})

	n, err := s.CountPending(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 150 {
		t.Fatalf("pending for 1: got %d, want 150", n)
	}
	if n, _ := s.CountPending(1, third); n != 147 {
		t.Fatalf("pending after seq %d: got %d, want 147", third, n)
	}
	if n, _ := s.CountPending(3, 0); n != 0 {
		t.Fatalf("pending for 3: got %d, want 0", n)
	}
}

func TestListMessagesAndCount(t *testing.T) {
	s := newTestStore(t)
	s.RegisterReplica(0, "", "")
	if got := s.CountMessages(); got != 0 {
		t.Fatalf("empty count: got %d", got)
	}
	for _, to := range []vclock.ReplicaID{1, 2, 3} {
		s.InsertMessage(&model.Message{From: 0, To: to, Vector: vclock.Snapshot{0: 1}})
	}
	all, err := s.ListMessages(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("ListMessages: got %d, want 3", len(all))
	}
	if got := s.CountMessages(); got != 3 {
		t.Fatalf("CountMessages: got %d, want 3", got)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s.RegisterReplica(1, "", "kept")
	s.Close()

	s2, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	r, err := s2.GetReplica(1)
	if err != nil {
		t.Fatal(err)
	}
	if r.Payload != "kept" {
		t.Fatalf("payload after reopen: got %q", r.Payload)
	}
}
