package httpapi

import (
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
)

func handleRecordStart(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if a.Recorder.IsRecording() {
			writeError(w, http.StatusConflict, "already recording")
			return
		}
		a.Recorder.StartRecording()
		a.History.Record("record.start", "")
		writeJSON(w, http.StatusOK, map[string]any{"recording": true})
	}
}

func handleRecordStop(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !a.Recorder.IsRecording() {
			writeError(w, http.StatusConflict, "not recording")
			return
		}
		frames := a.Recorder.StopRecording()
		a.History.Record("record.stop", "")
		writeJSON(w, http.StatusOK, map[string]any{"frames": frames, "frameCount": len(frames)})
	}
}

func handleRecordStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recording": a.Recorder.IsRecording()})
	}
}
