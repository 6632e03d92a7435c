package history

import (
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "history.jsonl"), 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	l.Record("play.start", "wave")
	l.Record("play.stop", "")

	entries := l.Recent()
	if len(entries) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(entries))
	}
	if entries[0].Seq != 1 || entries[1].Seq != 2 {
		t.Fatalf("sequence numbers = %d, %d, want 1, 2", entries[0].Seq, entries[1].Seq)
	}
	if entries[0].PrevHash != "genesis" {
		t.Fatalf("first entry PrevHash = %q, want genesis", entries[0].PrevHash)
	}
	if entries[1].PrevHash != entries[0].Hash {
		t.Fatal("second entry should chain from the first entry's hash")
	}
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "history.jsonl"), 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	l.Record("preset.save", "wave")
	l.Record("preset.delete", "wave")

	if err := l.VerifyChain(); err != nil {
		t.Fatalf("VerifyChain on an untampered log: %v", err)
	}

	l.recent[0].Detail = "tampered"
	if err := l.VerifyChain(); err == nil {
		t.Fatal("VerifyChain should detect a mutated entry")
	}
}

func TestVerifyChainAfterRingEviction(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "history.jsonl"), 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	for i := 0; i < recentCapacity+10; i++ {
		l.Record("preset.save", "wave")
	}

	if l.recent[0].Seq == 1 {
		t.Fatal("test setup: ring should have evicted the first-ever entry by now")
	}
	if l.recent[0].PrevHash == "genesis" {
		t.Fatal("test setup: oldest retained entry should not carry the genesis sentinel")
	}

	if err := l.VerifyChain(); err != nil {
		t.Fatalf("VerifyChain should not false-positive after ring eviction: %v", err)
	}

	l.recent[5].Detail = "tampered"
	if err := l.VerifyChain(); err == nil {
		t.Fatal("VerifyChain should still detect tampering after ring eviction")
	}
}

func TestReopenReplaysChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	l1, err := Open(path, 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l1.Record("record.start", "")
	l1.Record("record.stop", "")
	l1.Close()

	l2, err := Open(path, 0, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	entries := l2.Recent()
	if len(entries) != 2 {
		t.Fatalf("replayed %d entries, want 2", len(entries))
	}

	l2.Record("record.start", "")
	entries = l2.Recent()
	if entries[len(entries)-1].Seq != 3 {
		t.Fatalf("seq after reopen = %d, want 3 (continuing the chain)", entries[len(entries)-1].Seq)
	}
	if entries[len(entries)-1].PrevHash != entries[len(entries)-2].Hash {
		t.Fatal("new entry after reopen should chain from the replayed tail")
	}
}

func TestNilLogRecordAndRecentAreNoops(t *testing.T) {
	var l *Log
	l.Record("anything", "detail") // must not panic
	if got := l.Recent(); got != nil {
		t.Fatalf("Recent() on nil log = %v, want nil", got)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() on nil log should not error: %v", err)
	}
	if err := l.VerifyChain(); err != nil {
		t.Fatalf("VerifyChain() on nil log should not error: %v", err)
	}
}
