// Package app wires every vmcd component into a single explicit
// lifecycle object: one constructed, start/stop owned value instead of
// package-level singletons.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmcd/vmcd/internal/config"
	"github.com/vmcd/vmcd/internal/debugstream"
	"github.com/vmcd/vmcd/internal/emotion"
	"github.com/vmcd/vmcd/internal/health"
	"github.com/vmcd/vmcd/internal/history"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/mixer"
	"github.com/vmcd/vmcd/internal/presets"
	"github.com/vmcd/vmcd/internal/restpose"
	"github.com/vmcd/vmcd/internal/vmc"
	"github.com/vmcd/vmcd/internal/workerpool"
)

var log = logging.L("app")

// App owns every long-lived component of a running vmcd daemon. It is
// the single place components are constructed, started, and stopped —
// nothing here is a package-level singleton.
type App struct {
	Config *config.Config

	Sender     *vmc.Sender
	Recorder   *vmc.Recorder
	Mixer      *mixer.Mixer
	RestPose   *restpose.Store
	Presets    *presets.Store
	Remote     *presets.Remote
	Classifier *emotion.Classifier
	History    *history.Log
	Health     *health.Monitor
	DebugHub   *debugstream.Hub
	Workers    *workerpool.Pool
	Version    string

	logFileWriter io.Closer
}

// New constructs every component from cfg but does not start any
// goroutines; call Start to bring the daemon up.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	restPose := restpose.New(filepath.Join(cfg.DataDir, "rest_pose.json"))
	sender := vmc.NewSender(cfg.SendHost, cfg.SendPort, restPose)
	recorder := vmc.NewRecorder(cfg.ListenHost, cfg.ListenPort)

	presetStore := presets.New(filepath.Join(cfg.DataDir, "presets"))

	a := &App{
		Config:     cfg,
		Sender:     sender,
		Recorder:   recorder,
		Mixer:      mixer.New(sender),
		RestPose:   restPose,
		Presets:    presetStore,
		Classifier: emotion.NewClassifier(),
		Health:     health.NewMonitor(),
		Workers:    workerpool.New(cfg.WorkerPoolSize, cfg.WorkerPoolQueueSize),
		Version:    version,
	}

	if cfg.HistoryEnabled {
		hlog, err := history.Open(filepath.Join(cfg.DataDir, "history.jsonl"), cfg.HistoryMaxSizeMB, cfg.HistoryMaxBackups)
		if err != nil {
			return nil, fmt.Errorf("open history log: %w", err)
		}
		a.History = hlog
	}

	if cfg.DebugStreamEnabled {
		a.DebugHub = debugstream.NewHub()
		a.Mixer.SetTickObserver(func(info mixer.TickInfo) {
			data, err := json.Marshal(debugstream.TickEvent{
				Type:           "tick",
				IdleActive:     info.IdleActive,
				IdleName:       info.IdleName,
				ActiveActions:  info.ActiveActions,
				DirtyBlendKeys: info.DirtyBlend,
				Timestamp:      time.Now().UnixMilli(),
			})
			if err != nil {
				return
			}
			a.DebugHub.Broadcast(data)
		})
	}

	if cfg.RemotePresetsEnabled {
		remote, err := presets.NewRemote(ctx, presetStore, presets.RemoteConfig{
			Bucket:   cfg.RemotePresetsBucket,
			Prefix:   cfg.RemotePresetsPrefix,
			Region:   cfg.RemotePresetsRegion,
			Endpoint: cfg.RemotePresetsEndpoint,
		})
		if err != nil {
			log.Error("remote preset sync unavailable, continuing without it", "error", err)
		} else {
			a.Remote = remote
		}
	}

	return a, nil
}

// InitLogging configures slog from a.Config: a rotating file writer
// teed with stdout, and an optional webhook shipper when LogWebhookURL
// is set.
func (a *App) InitLogging() {
	cfg := a.Config
	var output io.Writer = os.Stdout

	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
			a.logFileWriter = rw
		}
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, output)

	if cfg.LogWebhookURL != "" {
		logging.InitShipper(logging.ShipperConfig{
			WebhookURL:    cfg.LogWebhookURL,
			DaemonVersion: a.Version,
			MinLevel:      "warn",
		})
	}
}

// Start brings up the UDP recorder and health monitor. The mixer and
// HTTP server are started separately (mixer starts lazily on first
// SetIdle/PlayAction; the HTTP server is owned by cmd/vmcd).
func (a *App) Start() error {
	if err := a.Recorder.Start(); err != nil {
		a.Health.Update("recorder", health.Unhealthy, err.Error())
		return fmt.Errorf("start recorder: %w", err)
	}
	a.Health.Update("recorder", health.Healthy, "")
	a.Health.Update("mixer", health.Healthy, "")
	a.History.Record("daemon.start", a.Version)
	return nil
}

// Stop tears down every component in reverse dependency order.
func (a *App) Stop(ctx context.Context) {
	a.History.Record("daemon.stop", "")

	a.Mixer.Stop()
	a.Recorder.Stop()
	a.Sender.Close()

	a.Workers.StopAccepting()
	a.Workers.Drain(ctx)

	if err := a.History.Close(); err != nil {
		log.Warn("failed to close history log", "error", err)
	}

	logging.StopShipper()

	if a.logFileWriter != nil {
		a.logFileWriter.Close()
	}
}
