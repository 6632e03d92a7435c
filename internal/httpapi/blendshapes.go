package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vmcd/vmcd/internal/app"
	"github.com/vmcd/vmcd/internal/clip"
)

// handleBlendshapes sends values directly to the host, bypassing the
// mixer entirely (a direct send_blendshapes poke, useful for manual
// testing and one-off corrections).
func handleBlendshapes(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var values clip.BlendMap
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		a.Sender.SendBlendshapes(values)
		writeJSON(w, http.StatusOK, map[string]any{"sent": len(values)})
	}
}
