// Package handlers exposes the gateway's HTTP API and the embedded control
// panel.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/devices"
	"utec-gateway/internal/settings"
	"utec-gateway/internal/token"
	"utec-gateway/internal/uhome"
)

// Handlers carries the gateway components the HTTP surface is built on.
type Handlers struct {
	tokens   *token.Manager
	client   *uhome.Client
	cache    *devices.Cache
	settings *settings.Manager
	logPath  string
	logger   logging.Logger
}

// New wires the handler set.
func New(tokens *token.Manager, client *uhome.Client, cache *devices.Cache, settingsMgr *settings.Manager, logPath string, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		tokens:   tokens,
		client:   client,
		cache:    cache,
		settings: settingsMgr,
		logPath:  logPath,
		logger:   logger,
	}
}

// Register attaches all routes to the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/api/config", h.GetConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config", h.UpdateConfig).Methods(http.MethodPost)

	r.HandleFunc("/api/oauth/authorize-url", h.AuthorizeURL).Methods(http.MethodGet)
	r.HandleFunc("/api/oauth/exchange", h.ExchangeCode).Methods(http.MethodPost)
	r.HandleFunc("/api/oauth/refresh", h.RefreshToken).Methods(http.MethodPost)

	r.HandleFunc("/api/devices", h.GetDevices).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.QueryStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/status/latest", h.LatestStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/lock", h.LockDevice).Methods(http.MethodPost)
	r.HandleFunc("/api/unlock", h.UnlockDevice).Methods(http.MethodPost)
	r.HandleFunc("/lock", h.LockDevice).Methods(http.MethodPost)
	r.HandleFunc("/unlock", h.UnlockDevice).Methods(http.MethodPost)

	r.HandleFunc("/logs", h.GetLogs).Methods(http.MethodGet)
	r.HandleFunc("/logs/clear", h.ClearLogs).Methods(http.MethodPost)

	r.HandleFunc("/", h.ControlPanel).Methods(http.MethodGet)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode response", err)
		}
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", err)
	}
	h.respondJSON(w, status, map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
		"type":   string(errors.GetType(err)),
	})
}

// statusFor maps the error taxonomy to HTTP status codes. Upstream errors
// carry the vendor's own status through.
func statusFor(err error) int {
	switch errors.GetType(err) {
	case errors.ErrTypeValidation, errors.ErrTypeConfig:
		return http.StatusBadRequest
	case errors.ErrTypeAuthUnavailable:
		return http.StatusUnauthorized
	case errors.ErrTypeNotFound:
		return http.StatusNotFound
	case errors.ErrTypeTransport, errors.ErrTypeAuthExchange:
		return http.StatusBadGateway
	case errors.ErrTypeUpstream:
		if s := errors.HTTPStatus(err); s != 0 {
			return s
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ValidationError("invalid JSON body")
	}
	return nil
}
