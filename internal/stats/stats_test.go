package stats

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndTotals(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.RecordMessage("room1", "alice", false); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := s.RecordMessage("room1", "bob", true); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := s.RecordMessage("room2", "alice", true); err != nil {
		t.Fatalf("record: %v", err)
	}

	got := s.Totals()
	if got.Messages != 5 {
		t.Errorf("messages = %d, want 5", got.Messages)
	}
	if got.Commands != 2 {
		t.Errorf("commands = %d, want 2", got.Commands)
	}
	if got.Conversations != 2 {
		t.Errorf("conversations = %d, want 2", got.Conversations)
	}
}

func TestTopSenders(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		s.RecordMessage("room", "alice", false)
	}
	for i := 0; i < 2; i++ {
		s.RecordMessage("room", "bob", false)
	}
	s.RecordMessage("other", "carol", false)

	ranks, err := s.TopSenders("room", 10)
	if err != nil {
		t.Fatalf("top senders: %v", err)
	}
	if len(ranks) != 2 {
		t.Fatalf("ranks = %v, want 2 entries", ranks)
	}
	if ranks[0].Sender != "alice" || ranks[0].Messages != 5 {
		t.Errorf("first = %+v", ranks[0])
	}
	if ranks[1].Sender != "bob" || ranks[1].Messages != 2 {
		t.Errorf("second = %+v", ranks[1])
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)

	if v, err := s.Get("bio"); err != nil || v != "" {
		t.Fatalf("get unset: %q, %v", v, err)
	}
	if err := s.Set("bio", "hello there"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("bio", "general kenobi"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := s.Get("bio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "general kenobi" {
		t.Errorf("bio = %q", v)
	}
}
