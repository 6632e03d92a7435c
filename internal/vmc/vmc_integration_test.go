package vmc

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmcd/vmcd/internal/restpose"
)

// waitUntil polls cond until it returns true or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSenderRecorderRoundTrip(t *testing.T) {
	rec := NewRecorder("127.0.0.1", 0)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Stop()

	port := rec.conn.LocalAddr().(*net.UDPAddr).Port

	rest := restpose.New(filepath.Join(t.TempDir(), "restpose.json"))
	sender := NewSender("127.0.0.1", port, rest)
	defer sender.Close()

	sender.SendBlendshapes(map[string]float64{"Joy": 0.5})

	waitUntil(t, func() bool {
		blends, _ := rec.CurrentState()
		return blends["Joy"] == 0.5
	})
}

func TestRecorderRecordsFramesOnApply(t *testing.T) {
	rec := NewRecorder("127.0.0.1", 0)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Stop()

	port := rec.conn.LocalAddr().(*net.UDPAddr).Port

	rest := restpose.New(filepath.Join(t.TempDir(), "restpose.json"))
	sender := NewSender("127.0.0.1", port, rest)
	defer sender.Close()

	rec.StartRecording()
	sender.SendBlendshape("Joy", 0.25)
	sender.SendBlendshapeApply()

	time.Sleep(100 * time.Millisecond)

	frames := rec.StopRecording()
	if len(frames) == 0 {
		t.Fatal("expected at least one recorded frame")
	}
	if got := frames[0].Blendshapes["Joy"]; got != 0.25 {
		t.Fatalf("recorded Joy = %v, want 0.25", got)
	}
}
