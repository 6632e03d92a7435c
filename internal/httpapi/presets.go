package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/clip"
	"github.com/vmcd/vmcd/internal/emotion"
)

type savePresetRequest struct {
	Name string    `json:"name"`
	Clip clip.Clip `json:"clip"`
}

func handlePresetsList(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			summaries, err := a.Presets.List()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"presets": summaries})

		case http.MethodPost:
			var req savePresetRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := a.Presets.Save(req.Name, req.Clip); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			a.History.Record("preset.save", req.Name)
			writeJSON(w, http.StatusOK, map[string]any{"saved": req.Name})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func handlePresetByName(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/presets/")
		if name == "" || name == "generate" {
			writeError(w, http.StatusNotFound, "preset name required")
			return
		}

		switch r.Method {
		case http.MethodGet:
			c, err := a.Presets.Load(name)
			if err != nil {
				writeError(w, statusForError(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, c)

		case http.MethodDelete:
			removed, err := a.Presets.Delete(name)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			a.History.Record("preset.delete", name)
			writeJSON(w, http.StatusOK, map[string]any{"removed": removed})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

type generatePresetRequest struct {
	Overwrite bool `json:"overwrite"`
}

// handlePresetsGenerate writes all seven starter presets via the preset
// store, skipping any that already exist unless overwrite is requested.
// The whole batch is dispatched through the worker pool so the disk
// writes never block the HTTP handler goroutine.
func handlePresetsGenerate(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req generatePresetRequest
		if r.Body != nil {
			// A body is optional; ignore decode errors on an empty body.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		accepted := a.Workers.Submit(func() {
			for name, gen := range emotion.StarterPresets {
				if !req.Overwrite {
					if _, err := a.Presets.Load(name); err == nil {
						continue
					}
				}
				if err := a.Presets.Save(name, gen()); err != nil {
					log.Error("starter preset generation failed to save", "preset", name, "error", err)
					continue
				}
				a.History.Record("preset.generate", name)
			}
		})
		if !accepted {
			writeError(w, http.StatusServiceUnavailable, "worker pool saturated")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
	}
}
