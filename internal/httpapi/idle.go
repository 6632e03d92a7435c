package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/clip"
)

type idleSetRequest struct {
	Name string    `json:"name"`
	Clip clip.Clip `json:"clip"`
}

func handleIdleSet(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req idleSetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := a.Mixer.SetIdle(req.Clip, req.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.History.Record("idle.set", req.Name)
		writeJSON(w, http.StatusOK, map[string]any{"idleActive": true, "idleName": req.Name})
	}
}

func handleIdleStop(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.Mixer.StopIdle()
		a.History.Record("idle.stop", "")
		writeJSON(w, http.StatusOK, map[string]any{"idleActive": false})
	}
}

func handleIdleStatus(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"idleActive": a.Mixer.IsIdleActive(),
			"idleName":   a.Mixer.IdleName(),
		})
	}
}
