package handlers

import (
	"net/http"
	"time"

	"utec-gateway/internal/settings"
)

const masked = "***"

// GetConfig returns the runtime settings with secrets masked, plus the
// current token status.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	s := h.settings.Get()
	cred := h.tokens.Credential()

	clientID := ""
	clientSecret := ""
	if cred != nil {
		clientID = cred.ClientID
		if cred.ClientSecret != "" {
			clientSecret = masked
		}
	}

	tokenStatus := map[string]interface{}{
		"has_token":         cred != nil && cred.AccessToken != "",
		"has_refresh_token": cred != nil && cred.RefreshToken != "",
		"is_expired":        h.tokens.IsExpired(),
	}
	if cred != nil && cred.ExpiresAt != nil {
		tokenStatus["expires_at"] = cred.ExpiresAt.Format(time.RFC3339)
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"api_base_url":           s.APIBaseURL,
		"oauth_base_url":         s.OAuthBaseURL,
		"action_path":            s.ActionPath,
		"scope":                  s.Scope,
		"redirect_uri":           s.RedirectURI,
		"poll_interval_seconds":  int(s.PollInterval.Seconds()),
		"auto_refresh":           s.AutoRefresh,
		"refresh_buffer_seconds": int(s.RefreshBuffer.Seconds()),
		"client_id":              clientID,
		"client_secret":          clientSecret,
		"token_status":           tokenStatus,
	})
}

// configUpdate uses pointers so absent fields leave current values alone.
type configUpdate struct {
	APIBaseURL           *string `json:"api_base_url"`
	OAuthBaseURL         *string `json:"oauth_base_url"`
	ActionPath           *string `json:"action_path"`
	Scope                *string `json:"scope"`
	RedirectURI          *string `json:"redirect_uri"`
	PollIntervalSeconds  *int    `json:"poll_interval_seconds"`
	AutoRefresh          *bool   `json:"auto_refresh"`
	RefreshBufferSeconds *int    `json:"refresh_buffer_seconds"`
	ClientID             *string `json:"client_id"`
	ClientSecret         *string `json:"client_secret"`
}

// UpdateConfig applies a partial settings update. Settings change hooks take
// care of rescheduling the poll job and adjusting the refresh buffer.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdate
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	_, err := h.settings.Update(func(s *settings.Settings) {
		if req.APIBaseURL != nil {
			s.APIBaseURL = *req.APIBaseURL
		}
		if req.OAuthBaseURL != nil {
			s.OAuthBaseURL = *req.OAuthBaseURL
		}
		if req.ActionPath != nil {
			s.ActionPath = *req.ActionPath
		}
		if req.Scope != nil {
			s.Scope = *req.Scope
		}
		if req.RedirectURI != nil {
			s.RedirectURI = *req.RedirectURI
		}
		if req.PollIntervalSeconds != nil {
			s.PollInterval = time.Duration(*req.PollIntervalSeconds) * time.Second
		}
		if req.AutoRefresh != nil {
			s.AutoRefresh = *req.AutoRefresh
		}
		if req.RefreshBufferSeconds != nil {
			s.RefreshBuffer = time.Duration(*req.RefreshBufferSeconds) * time.Second
		}
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	if req.ClientID != nil || req.ClientSecret != nil {
		cred := h.tokens.Credential()
		clientID := ""
		clientSecret := ""
		if cred != nil {
			clientID = cred.ClientID
			clientSecret = cred.ClientSecret
		}
		if req.ClientID != nil {
			clientID = *req.ClientID
		}
		if req.ClientSecret != nil {
			clientSecret = *req.ClientSecret
		}
		if err := h.tokens.SetClientCredentials(r.Context(), clientID, clientSecret); err != nil {
			h.respondError(w, err)
			return
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "configuration updated",
	})
}
