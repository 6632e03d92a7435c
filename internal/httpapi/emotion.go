package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/clip"
)

type emotionDetectRequest struct {
	Text string `json:"text"`
}

// handleEmotionDetect classifies text and, on a match, triggers the
// mapped preset: load, convert to relative if needed, play once.
// Missing presets and any load error are swallowed with a log line —
// detection itself always succeeds or fails independently of playback.
func handleEmotionDetect(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req emotionDetectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		name, score := a.Classifier.Detect(req.Text)
		resp := map[string]any{"emotion": name, "score": score}

		if name != "" {
			if presetName, ok := a.Classifier.Mappings()[name]; ok {
				triggerPreset(a, presetName)
				resp["triggeredPreset"] = presetName
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func triggerPreset(a *app.App, presetName string) {
	c, err := a.Presets.Load(presetName)
	if err != nil {
		log.Warn("emotion trigger: preset unavailable", "preset", presetName, "error", err)
		return
	}
	if c.Mode == clip.ModeAbsolute {
		c = clip.ToRelative(c)
	}
	if err := a.Mixer.PlayAction(c, false); err != nil {
		log.Warn("emotion trigger: play failed", "preset", presetName, "error", err)
		return
	}
	a.History.Record("emotion.trigger", presetName)
}

func handleEmotionMappings(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"mappings": a.Classifier.Mappings()})
	}
}

// handleEmotionFilterInstall is a reinterpretation of the original
// open-webui Functions-DB plugin installer, which has no equivalent in
// this system: rather than installing anything, it returns the live
// pattern table so a caller can see what phrases the classifier reacts
// to.
func handleEmotionFilterInstall(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"installed": false,
			"reason":    "no plugin host in this system; returning the live pattern table instead",
			"patterns":  a.Classifier.Patterns(),
		})
	}
}
