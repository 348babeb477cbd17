package handlers

import (
	"net/http"
	"time"
)

// AuthorizeURL returns the vendor consent page URL for the configured
// client.
func (h *Handlers) AuthorizeURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.tokens.AuthorizeURL()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"authorize_url": u,
	})
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeCode trades an authorization code for the initial token pair.
func (h *Handlers) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.tokens.ExchangeCode(r.Context(), req.Code); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "tokens obtained",
	})
}

// RefreshToken triggers a refresh regardless of the token's current state.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.ForceRefresh(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}

	resp := map[string]interface{}{
		"status":  "ok",
		"message": "token refreshed",
	}
	if cred := h.tokens.Credential(); cred != nil && cred.ExpiresAt != nil {
		resp["expires_at"] = cred.ExpiresAt.Format(time.RFC3339)
	}
	h.respondJSON(w, http.StatusOK, resp)
}
