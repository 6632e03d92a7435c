package httpapi

import (
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
)

func handleRestPoseGet(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bones": a.RestPose.Get()})
	}
}

// handleRestPoseApply sends the current rest pose to the host
// out-of-band of the render loop, via a single direct send_frame-style
// pass over the Sender.
func handleRestPoseApply(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		bones := a.RestPose.Get()
		for name, b := range bones {
			if name == "Hips" {
				continue
			}
			a.Sender.SendBone(name, [3]float64{0, 0, 0}, b.Rot.Array())
		}
		a.History.Record("restpose.apply", "")
		writeJSON(w, http.StatusOK, map[string]any{"applied": len(bones)})
	}
}

// handleRestPoseCapture snapshots the recorder's live bone state as the
// new rest pose.
func handleRestPoseCapture(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		_, bones := a.Recorder.CurrentState()
		if err := a.RestPose.Set(bones); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.History.Record("restpose.capture", "")
		writeJSON(w, http.StatusOK, map[string]any{"captured": len(bones)})
	}
}

func handleRestPoseReset(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := a.RestPose.Reset(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.History.Record("restpose.reset", "")
		writeJSON(w, http.StatusOK, map[string]any{"reset": true})
	}
}
