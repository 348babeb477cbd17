package handlers

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// Health reports process liveness and the authorization state.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	cred := h.tokens.Credential()

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"authorized":     cred != nil && cred.RefreshToken != "",
		"token_expired":  h.tokens.IsExpired(),
	})
}
