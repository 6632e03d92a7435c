package app

import (
	"context"
	"testing"
	"time"

	"github.com/vmcd/vmcd/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.ListenHost = "127.0.0.1"
	cfg.ListenPort = 0 // ephemeral, avoids clobbering a real vmcd instance
	cfg.SendHost = "127.0.0.1"
	cfg.SendPort = 0
	cfg.HistoryEnabled = true
	cfg.DebugStreamEnabled = true
	cfg.RemotePresetsEnabled = false
	return cfg
}

func TestNewWiresEveryComponent(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, "test-version")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if a.Sender == nil || a.Recorder == nil || a.Mixer == nil || a.RestPose == nil ||
		a.Presets == nil || a.Classifier == nil || a.Health == nil || a.Workers == nil {
		t.Fatal("New should construct every core component")
	}
	if a.History == nil {
		t.Fatal("History should be non-nil when HistoryEnabled is true")
	}
	if a.DebugHub == nil {
		t.Fatal("DebugHub should be non-nil when DebugStreamEnabled is true")
	}
	if a.Remote != nil {
		t.Fatal("Remote should be nil when RemotePresetsEnabled is false")
	}
}

func TestStartAndStopLifecycle(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, "test-version")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Stop(ctx)
}

func TestHistoryRecordsStartAndStop(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, "test-version")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	entries := a.History.Recent()
	found := false
	for _, e := range entries {
		if e.Action == "daemon.start" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a daemon.start history entry after Start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Stop(ctx)
}
