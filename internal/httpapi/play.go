package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/clip"
)

type playRequest struct {
	Clip clip.Clip `json:"clip"`
	Loop bool      `json:"loop"`
}

// handlePlay accepts either an absolute or a relative clip, converting
// absolute clips to relative before handing them to the mixer — the
// "convert-if-needed" step callers would otherwise have to do
// themselves.
func handlePlay(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req playRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		action := req.Clip
		if action.Mode == clip.ModeAbsolute {
			action = clip.ToRelative(action)
		}

		if err := a.Mixer.PlayAction(action, req.Loop); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.History.Record("play.start", "")
		writeJSON(w, http.StatusOK, map[string]any{"playing": true})
	}
}

func handlePlayStop(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.Mixer.StopAction()
		a.History.Record("play.stop", "")
		writeJSON(w, http.StatusOK, map[string]any{"playing": false})
	}
}

func handlePlayStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"playing": a.Mixer.IsPlaying()})
	}
}
