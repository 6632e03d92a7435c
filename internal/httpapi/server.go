// Package httpapi is the REST control surface for a running vmcd
// daemon: recording, preset management, playback, rest pose, direct
// blendshape pokes, emotion classification, and the ambient
// status/history/debug-stream endpoints, routed on a bare
// net/http.ServeMux with explicit per-method checks.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/logging"
	"github.com/vmcd/vmcd/internal/metrics"
	"github.com/vmcd/vmcd/internal/presets"
)

var log = logging.L("httpapi")

// NewServer builds the root handler wired to every vmcd REST route.
func NewServer(a *app.App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/record/start", handleRecordStart(a))
	mux.HandleFunc("/record/stop", handleRecordStop(a))
	mux.HandleFunc("/record/status", handleRecordStatus(a))

	mux.HandleFunc("/presets", handlePresetsList(a))
	mux.HandleFunc("/presets/", handlePresetByName(a))
	mux.HandleFunc("/presets/generate", handlePresetsGenerate(a))

	mux.HandleFunc("/play", handlePlay(a))
	mux.HandleFunc("/play/stop", handlePlayStop(a))
	mux.HandleFunc("/play/status", handlePlayStatus(a))

	mux.HandleFunc("/idle/set", handleIdleSet(a))
	mux.HandleFunc("/idle/stop", handleIdleStop(a))
	mux.HandleFunc("/idle/status", handleIdleStatus(a))

	mux.HandleFunc("/rest-pose", handleRestPoseGet(a))
	mux.HandleFunc("/rest-pose/apply", handleRestPoseApply(a))
	mux.HandleFunc("/rest-pose/capture", handleRestPoseCapture(a))
	mux.HandleFunc("/rest-pose/reset", handleRestPoseReset(a))

	mux.HandleFunc("/blendshapes", handleBlendshapes(a))

	mux.HandleFunc("/emotion/detect", handleEmotionDetect(a))
	mux.HandleFunc("/emotion/mappings", handleEmotionMappings(a))
	mux.HandleFunc("/emotion/filter/install", handleEmotionFilterInstall(a))

	mux.HandleFunc("/status", handleStatus(a))
	mux.HandleFunc("/history", handleHistory(a))
	mux.HandleFunc("/history/verify", handleHistoryVerify(a))

	if a.DebugHub != nil {
		mux.Handle("/debug/stream", a.DebugHub)
	}

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// statusForError maps a domain error to the REST status code: 404 for
// not-found, 500 otherwise.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, presets.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func handleStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := map[string]any{
			"health":  a.Health.Summary(),
			"version": a.Version,
			"idle": map[string]any{
				"active": a.Mixer.IsIdleActive(),
				"name":   a.Mixer.IdleName(),
			},
			"playing": a.Mixer.IsPlaying(),
		}
		if a.Config.MetricsEnabled {
			resp["metrics"] = metrics.Collect(ctx)
		}
		if a.DebugHub != nil {
			resp["debugClients"] = a.DebugHub.ClientCount()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHistory(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": a.History.Recent()})
	}
}

// handleHistoryVerify checks the hash chain across the retained history
// ring. A chain break past the ring's eviction point only proves tampering
// within the retained window, not against entries rotated out of memory.
func handleHistoryVerify(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := a.History.VerifyChain(); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}
